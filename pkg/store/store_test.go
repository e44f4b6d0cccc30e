package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solana-zh/pulsefeed/pkg/model"
)

func TestStoreErrorFormatting(t *testing.T) {
	transport := transportErr(errors.New("dial tcp: timeout"))
	require.Contains(t, transport.Error(), "transport")

	decode := decodeErr("num_holders", errors.New("invalid uint64"))
	require.Contains(t, decode.Error(), "decode")
	require.Contains(t, decode.Error(), "num_holders")

	var se *StoreError
	require.ErrorAs(t, decode, &se)
	require.Equal(t, ErrDecode, se.Kind)
}

func TestIsMissingRow(t *testing.T) {
	missing := &StoreError{Kind: ErrMissingRow, Err: errors.New("no rows")}
	require.True(t, IsMissingRow(missing))
	require.False(t, IsMissingRow(errors.New("plain error")))
	require.False(t, IsMissingRow(transportErr(errors.New("x"))))
}

func TestPulseQuerySourceView(t *testing.T) {
	cases := []struct {
		table model.PulseTable
		want  string
	}{
		{model.PulseTableNewPairs, "pulse_new_pairs"},
		{model.PulseTableFinalStretch, "pulse_final_stretch"},
		{model.PulseTableMigrated, "pulse_migrated"},
	}
	for _, tc := range cases {
		q := PulseQuery{Table: tc.table}
		require.Equal(t, tc.want, q.sourceView())
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, 20, cfg.MaxOpenConns)
	require.Equal(t, 10, cfg.MaxIdleConns)
	require.Equal(t, 50, cfg.MaxQueriesPerSecond)
	require.Positive(t, cfg.QueryTimeout)
}
