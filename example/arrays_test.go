package example

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexhholmes/boxarray/boxed"
)

func TestSeq(t *testing.T) {
	got := Seq(func(i int) int { return i })
	assert.Equal(t, [3]int{0, 1, 2}, *got)
}

func TestSquares(t *testing.T) {
	got := Squares(func(i int) int { return i * i })
	assert.Equal(t, [5]int{0, 1, 4, 9, 16}, *got)
}

func TestNested(t *testing.T) {
	got := Pair(func(j int) [3]int {
		return *Seq(func(i int) int { return i + j })
	})
	assert.Equal(t, [2][3]int{{0, 1, 2}, {1, 2, 3}}, *got)
}

func TestCallOrder(t *testing.T) {
	var calls []int
	got := Lanes(func(i int) string {
		calls = append(calls, i)
		return string(rune('a' + i))
	})

	assert.Equal(t, [4]string{"a", "b", "c", "d"}, *got)
	assert.Equal(t, []int{0, 1, 2, 3}, calls)
}

func TestEmpty(t *testing.T) {
	called := false
	got := Empty(func(int) int {
		called = true
		return 0
	})

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.False(t, called)
}

func TestSlots(t *testing.T) {
	pool := NewPool()
	got := Slots(pool.Acquire)

	assert.Equal(t, 4, pool.Leased())
	for i, s := range got {
		assert.Equal(t, i, s.ID)
	}
}

func TestPanicReleasesPrefix(t *testing.T) {
	tests := []struct {
		name  string
		build func(init func(int) Slot)
	}{
		{"runtime", func(init func(int) Slot) { Slots(init) }},
		{"inline", func(init func(int) Slot) { Lanes(init) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool()
			calls := 0
			init := func(i int) Slot {
				calls++
				if i == 2 {
					panic("out of slots")
				}
				return pool.Acquire(i)
			}

			assert.PanicsWithValue(t, "out of slots", func() { tt.build(init) })
			assert.Equal(t, 3, calls)
			assert.Zero(t, pool.Leased())
		})
	}
}

func TestPanicSkipsNilSlots(t *testing.T) {
	pool := NewPool()

	// A nil *Slot in the prefix must not mask the original panic
	assert.PanicsWithValue(t, "out of slots", func() {
		Lanes(func(i int) *Slot {
			switch i {
			case 1:
				return nil
			case 3:
				panic("out of slots")
			}
			s := pool.Acquire(i)
			return &s
		})
	})
	assert.Zero(t, pool.Leased())
}

func TestTrySlots(t *testing.T) {
	errFull := errors.New("pool full")
	pool := NewPool()

	got, err := TrySlots(func(i int) (Slot, error) {
		if i == 3 {
			return Slot{}, errFull
		}
		return pool.Acquire(i), nil
	})

	assert.Nil(t, got)
	require.ErrorIs(t, err, errFull)

	var initErr *boxed.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, 3, initErr.Index)
	assert.Zero(t, pool.Leased())
}

func TestTryLanes(t *testing.T) {
	errFull := errors.New("pool full")
	pool := NewPool()

	got, err := TryLanes(func(i int) (Slot, error) {
		if i == 1 {
			return Slot{}, errFull
		}
		return pool.Acquire(i), nil
	})

	assert.Nil(t, got)
	require.ErrorIs(t, err, errFull)
	assert.EqualError(t, err, "init 1: pool full")
	assert.Zero(t, pool.Leased())

	ok, err := TryLanes(func(i int) (int, error) { return i * 10, nil })
	require.NoError(t, err)
	assert.Equal(t, [4]int{0, 10, 20, 30}, *ok)
}
