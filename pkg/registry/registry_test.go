package registry

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/solana-zh/pulsefeed/pkg/model"
)

func TestRegisterThenLookupAndProbe(t *testing.T) {
	r, err := New(0)
	require.NoError(t, err)

	pool := model.Pool{PoolAddress: solana.NewWallet().PublicKey(), CreatedAt: time.Now()}
	addr := pool.PoolAddress.String()
	r.RegisterPool(pool)

	got, ok := r.LookupPool(context.Background(), addr)
	require.True(t, ok)
	require.Equal(t, pool.PoolAddress, got.PoolAddress)

	createdAt, ok := r.PoolCreatedAt(addr)
	require.True(t, ok)
	require.WithinDuration(t, pool.CreatedAt, createdAt, time.Second)
}

func TestLookupMissReturnsFalse(t *testing.T) {
	r, err := New(0)
	require.NoError(t, err)
	_, ok := r.LookupPool(context.Background(), "unknown")
	require.False(t, ok)
}
