package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestBasicMethods(t *testing.T) {
	tests := []struct {
		method Method
		input  []int
		want   []int
	}{
		{Natural, seq(6), []int{1, 2, 3, 4, 5, 6}},
		{Reverse, seq(6), []int{6, 5, 4, 3, 2, 1}},
		{HalfShift, seq(6), []int{4, 5, 6, 1, 2, 3}},
		{ReverseHalfShift, seq(6), []int{3, 2, 1, 6, 5, 4}},
		{PairFlip, seq(6), []int{2, 1, 4, 3, 6, 5}},
		{InnerOuter, seq(4), []int{1, 4, 2, 3}},
		{InnerOuter, seq(8), []int{1, 8, 4, 5, 3, 6, 2, 7}},
		{InnerOuter, []int{1, 2}, []int{1, 2}},
	}
	for _, tt := range tests {
		got, err := Apply(tt.method, tt.input, 0)
		require.NoError(t, err, string(tt.method))
		assert.Equal(t, tt.want, got, string(tt.method))
	}
}

// The top two seeds must land in opposite bracket halves.
func TestInnerOuterSixteen(t *testing.T) {
	got, err := Apply(InnerOuter, seq(16), 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 16, 8, 9, 5, 12, 4, 13, 2, 15, 7, 10, 6, 11, 3, 14}, got)
	assert.Contains(t, got[:8], 1)
	assert.Contains(t, got[8:], 2)
}

func TestInnerOuterRejectsBadLength(t *testing.T) {
	_, err := Apply(InnerOuter, seq(6), 0)
	assert.Error(t, err)
}

func TestGroupMethods(t *testing.T) {
	got, err := Apply(GroupsEffortBalanced, seq(8), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5, 7, 2, 4, 6, 8}, got)

	got, err = Apply(GroupsSeedOptimized, seq(8), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 5, 8, 2, 3, 6, 7}, got)
}

func TestBracketOptimizedNotImplemented(t *testing.T) {
	_, err := Apply(GroupsBracketOptimized, seq(8), 2)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

// Every method must be a permutation on compatible inputs.
func TestMethodsArePermutations(t *testing.T) {
	for _, method := range []Method{Natural, Reverse, HalfShift, ReverseHalfShift, PairFlip, InnerOuter} {
		got, err := Apply(method, seq(8), 0)
		require.NoError(t, err, string(method))
		assert.ElementsMatch(t, seq(8), got, string(method))
	}
	for _, method := range []Method{GroupsEffortBalanced, GroupsSeedOptimized} {
		got, err := Apply(method, seq(12), 3)
		require.NoError(t, err, string(method))
		assert.ElementsMatch(t, seq(12), got, string(method))
	}
}

func TestDefaultLoserOrdering(t *testing.T) {
	assert.Equal(t, Natural, DefaultLoserOrdering(8, 0))
	assert.Equal(t, Reverse, DefaultLoserOrdering(8, 1))
	assert.Equal(t, Natural, DefaultLoserOrdering(8, 2))
	assert.Equal(t, ReverseHalfShift, DefaultLoserOrdering(16, 1))
	// Unknown sizes and indices fall back to natural.
	assert.Equal(t, Natural, DefaultLoserOrdering(4, 0))
	assert.Equal(t, Natural, DefaultLoserOrdering(8, 9))
}
