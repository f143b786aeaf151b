package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_PushBelowCapacity(t *testing.T) {
	r := NewRing[int](5)

	r.Push(1)
	r.Push(2)
	r.Push(3)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 5, r.Cap())
	assert.False(t, r.Full())
	assert.Equal(t, []int{1, 2, 3}, r.ToSlice())
}

func TestRing_OverwriteOldest(t *testing.T) {
	// 容量C，写入C+5个，只保留最后C个
	const capacity = 10
	r := NewRing[int](capacity)

	for i := 0; i < capacity+5; i++ {
		r.Push(i)
	}

	got := r.ToSlice()
	require.Len(t, got, capacity)
	for i, v := range got {
		assert.Equal(t, 5+i, v)
	}
}

func TestRing_LenInvariant(t *testing.T) {
	// 任意N次写入后 len == min(N, C)
	const capacity = 7
	for n := 0; n < 20; n++ {
		r := NewRing[int](capacity)
		for i := 0; i < n; i++ {
			r.Push(i)
		}
		want := n
		if want > capacity {
			want = capacity
		}
		assert.Equal(t, want, r.Len(), "n=%d", n)
		assert.Len(t, r.ToSlice(), want, "n=%d", n)
	}
}

func TestRing_Latest(t *testing.T) {
	r := NewRing[int](5)
	for i := 1; i <= 8; i++ {
		r.Push(i)
	}

	// 缓冲内容为 4..8
	assert.Equal(t, []int{7, 8}, r.Latest(2))
	assert.Equal(t, []int{4, 5, 6, 7, 8}, r.Latest(10))
}

func TestRing_Clear(t *testing.T) {
	r := NewRing[int](4)
	r.PushSlice([]int{1, 2, 3, 4, 5})

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.ToSlice())

	r.Push(9)
	assert.Equal(t, []int{9}, r.ToSlice())
}

func TestRing_GrowOnce(t *testing.T) {
	r := NewRing[int](3)
	r.PushSlice([]int{1, 2, 3, 4})

	ok := r.GrowOnce(2)
	require.True(t, ok)
	assert.Equal(t, 6, r.Cap())
	assert.Equal(t, []int{2, 3, 4}, r.ToSlice())

	// 只允许扩容一次
	assert.False(t, r.GrowOnce(2))
	assert.Equal(t, 6, r.Cap())
}

func TestRing_ZeroCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { NewRing[int](0) })
}
