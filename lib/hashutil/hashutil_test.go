package hashutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashGolden(t *testing.T) {
	// golden values, these ids are already persisted in storage
	require.Equal(t, uint64(749031430096446), Hash("2015181"))
	require.Equal(t, uint64(3338908027751811), Hash(""))
	require.Equal(t, uint64(7375970803044473), Hash("2015181", "PREGRADO"))
	require.Equal(t, uint64(7929297801672961), Hash("a"))
}

func TestHashEmptyEquivalence(t *testing.T) {
	require.Equal(t, Hash(), Hash(""))
}

func TestHashDeterminism(t *testing.T) {
	for i := 0; i < 100; i++ {
		require.Equal(t, Hash("2015181"), Hash("2015181"))
	}
}

func TestHashOrderSensitive(t *testing.T) {
	require.NotEqual(t, Hash("a", "b"), Hash("b", "a"))
}

func TestHashSeed(t *testing.T) {
	require.NotEqual(t, HashSeed(0, "2015181"), HashSeed(1, "2015181"))
}

func TestHash53Bits(t *testing.T) {
	for _, s := range []string{"", "2015181", "CIENCIAS DE LA COMPUTACIÓN", "libre elección"} {
		require.Less(t, Hash(s), uint64(1)<<53)
	}
}
