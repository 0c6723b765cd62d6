package boxed

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// tracked records its id in log when released.
type tracked struct {
	id  int
	log *[]int
}

func (t tracked) Release() { *t.log = append(*t.log, t.id) }

// counted releases through a pointer receiver.
type counted struct {
	releases *int
}

func (c *counted) Release() { *c.releases++ }

func TestFillValues(t *testing.T) {
	tests := []struct {
		name string
		n    int
		f    func(int) int
		want []int
	}{
		{"empty", 0, func(i int) int { return i }, []int{}},
		{"single", 1, func(i int) int { return i + 7 }, []int{7}},
		{"identity", 3, func(i int) int { return i }, []int{0, 1, 2}},
		{"squares", 5, func(i int) int { return i * i }, []int{0, 1, 4, 9, 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fill[int](tt.n, tt.f)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, tt.n)
			assert.Equal(t, tt.n, cap(got), "allocation must be sized exactly")
		})
	}
}

func TestFillCallsInitInOrder(t *testing.T) {
	var calls []int
	got := Fill[string](4, func(i int) string {
		calls = append(calls, i)
		return fmt.Sprint(i)
	})

	assert.Equal(t, []int{0, 1, 2, 3}, calls)
	assert.Equal(t, []string{"0", "1", "2", "3"}, got)
}

func TestFillStatefulInit(t *testing.T) {
	next := 10
	got := Fill[int](3, func(int) int {
		next *= 2
		return next
	})
	assert.Equal(t, []int{20, 40, 80}, got)
}

func TestFillZeroNeverCallsInit(t *testing.T) {
	got := Fill[int](0, func(int) int {
		t.Fatal("init called for empty array")
		return 0
	})
	require.NotNil(t, got)
	assert.Empty(t, got)

	arr := (*[0]int)(got)
	assert.NotNil(t, arr)
}

func TestFillConvertsWithoutCopy(t *testing.T) {
	s := Fill[int](3, func(i int) int { return i })
	arr := (*[3]int)(s)
	assert.Same(t, &s[0], &arr[0])
}

func TestFillPanicReleasesPrefix(t *testing.T) {
	var log []int
	assert.PanicsWithValue(t, "boom", func() {
		Fill[tracked](6, func(i int) tracked {
			if i == 3 {
				panic("boom")
			}
			return tracked{id: i, log: &log}
		})
	})
	assert.Equal(t, []int{0, 1, 2}, log)
}

func TestFillPanicOnFirstReleasesNothing(t *testing.T) {
	var log []int
	assert.Panics(t, func() {
		Fill[tracked](3, func(int) tracked { panic(errors.New("first")) })
	})
	assert.Empty(t, log)
}

func TestFillPanicPointerReceiver(t *testing.T) {
	releases := 0
	assert.Panics(t, func() {
		Fill[counted](4, func(i int) counted {
			if i == 2 {
				panic("stop")
			}
			return counted{releases: &releases}
		})
	})
	assert.Equal(t, 2, releases)
}

func TestFillPanicSkipsNilPointers(t *testing.T) {
	releases := 0
	assert.PanicsWithValue(t, "stop", func() {
		Fill[*counted](4, func(i int) *counted {
			switch i {
			case 1:
				return nil
			case 3:
				panic("stop")
			}
			return &counted{releases: &releases}
		})
	})
	assert.Equal(t, 2, releases)

	// Same through an interface element holding a nil pointer
	releases = 0
	assert.PanicsWithValue(t, "stop", func() {
		Fill[Releaser](3, func(i int) Releaser {
			switch i {
			case 0:
				return (*counted)(nil)
			case 2:
				panic("stop")
			}
			return &counted{releases: &releases}
		})
	})
	assert.Equal(t, 1, releases)
}

func TestFillSuccessReleasesNothing(t *testing.T) {
	var log []int
	got := Fill[tracked](3, func(i int) tracked { return tracked{id: i, log: &log} })
	assert.Len(t, got, 3)
	assert.Empty(t, log)
}

func TestFillZeroSizedElements(t *testing.T) {
	calls := 0
	got := Fill[struct{}](1000, func(int) struct{} {
		calls++
		return struct{}{}
	})
	assert.Len(t, got, 1000)
	assert.Equal(t, 1000, calls)
}

func TestFillConcurrent(t *testing.T) {
	var g errgroup.Group
	for w := 0; w < 8; w++ {
		w := w
		g.Go(func() error {
			got := Fill[int](64, func(i int) int { return i + w })
			for i, v := range got {
				if v != i+w {
					return fmt.Errorf("worker %d: slot %d = %d", w, i, v)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestTryFill(t *testing.T) {
	got, err := TryFill[int](4, func(i int) (int, error) { return i * 3, nil })
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6, 9}, got)
}

func TestTryFillError(t *testing.T) {
	errBad := errors.New("bad index")
	var log []int
	var calls []int

	got, err := TryFill[tracked](5, func(i int) (tracked, error) {
		calls = append(calls, i)
		if i == 2 {
			return tracked{id: i, log: &log}, errBad
		}
		return tracked{id: i, log: &log}, nil
	})

	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, errBad)

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, 2, initErr.Index)
	assert.Equal(t, "boxed: init 2: bad index", err.Error())

	assert.Equal(t, []int{0, 1, 2}, calls, "init must stop at the failing index")
	assert.Equal(t, []int{0, 1}, log, "only constructed slots are released")
}

func recovered(f func()) (v any) {
	defer func() { v = recover() }()
	f()
	return nil
}

func TestReserveNegative(t *testing.T) {
	v := recovered(func() { Reserve[int](-1) })

	var allocErr *AllocationError
	require.ErrorAs(t, v.(error), &allocErr)
	assert.Equal(t, -1, allocErr.Len)
	assert.Equal(t, "boxed: negative length -1", allocErr.Error())
}

func TestReserveTooLarge(t *testing.T) {
	v := recovered(func() { Reserve[[16]byte](int(^uint(0) >> 1)) })

	allocErr, ok := v.(*AllocationError)
	require.True(t, ok, "expected *AllocationError, got %T", v)
	assert.Equal(t, uintptr(16), allocErr.ElemSize)
}

func TestBuilderProtocol(t *testing.T) {
	b := Reserve[int](3)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 3, b.Cap())

	for i := 0; i < 3; i++ {
		// No slot at or after i is reachable before it is written.
		require.Equal(t, i, b.Len())
		require.False(t, b.Full())
		b.Push(i * 10)
	}
	assert.True(t, b.Full())

	s := b.Finish()
	assert.Equal(t, []int{0, 10, 20}, s)
	assert.Equal(t, 0, b.Len())
	assert.False(t, b.Full())
}

func TestBuilderMisuse(t *testing.T) {
	t.Run("push past capacity", func(t *testing.T) {
		b := Reserve[int](1)
		b.Push(1)
		assert.PanicsWithValue(t, "boxed: push past capacity 1", func() { b.Push(2) })
	})

	t.Run("finish incomplete", func(t *testing.T) {
		b := Reserve[int](2)
		b.Push(1)
		assert.PanicsWithValue(t, "boxed: finish with 1 of 2 slots constructed", func() { b.Finish() })
	})

	t.Run("push after finish", func(t *testing.T) {
		b := Reserve[int](0)
		b.Finish()
		assert.Panics(t, func() { b.Push(1) })
	})

	t.Run("finish after abort", func(t *testing.T) {
		b := Reserve[int](1)
		b.Abort()
		assert.Panics(t, func() { b.Finish() })
	})
}

func TestBuilderAbortOnce(t *testing.T) {
	var log []int
	b := Reserve[tracked](4)
	b.Push(tracked{id: 0, log: &log})
	b.Push(tracked{id: 1, log: &log})

	b.Abort()
	b.Abort()
	assert.Equal(t, []int{0, 1}, log)
}

func TestBuilderAbortAfterFinish(t *testing.T) {
	var log []int
	b := Reserve[tracked](1)
	b.Push(tracked{id: 0, log: &log})
	s := b.Finish()

	b.Abort()
	assert.Empty(t, log)
	assert.Equal(t, 0, s[0].id)
}
