package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusErrorWrapping(t *testing.T) {
	inner := errors.New("connection reset")
	err := busErr(inner)
	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "bus:")
}

func TestBusErrNilPassthrough(t *testing.T) {
	require.Nil(t, busErr(nil))
}
