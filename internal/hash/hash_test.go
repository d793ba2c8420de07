package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("secret")
	require.NoError(t, err)
	require.NotEqual(t, "secret", h)

	require.True(t, CheckPassword(h, "secret"))
	require.False(t, CheckPassword(h, "Secret"))
	require.False(t, CheckPassword(h, ""))
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("secret")
	require.NoError(t, err)
	second, err := HashPassword("secret")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
