package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func (r *Buffer) indices() (head, tail, size int) {
	r.cs.Lock()
	defer r.cs.Unlock()
	return r.head, r.tail, r.size
}

type countingLocker struct {
	sync.Mutex
	locks int
}

func (l *countingLocker) Lock() {
	l.Mutex.Lock()
	l.locks++
}

func TestInsertRetrieveHello(t *testing.T) {
	r := New(DefaultCapacity, nil)
	for _, b := range []byte("Hello") {
		require.NoError(t, r.Insert(b))
	}
	require.Equal(t, 5, r.Len())
	var out []byte
	for i := 0; i < 5; i++ {
		b, err := r.Retrieve()
		require.NoError(t, err)
		out = append(out, b)
	}
	require.Equal(t, []byte{'H', 'e', 'l', 'l', 'o'}, out)
	require.Equal(t, 0, r.Len())
}

func TestInsertBeyondCapacity(t *testing.T) {
	r := New(DefaultCapacity, nil)
	for i := 0; i < 10; i++ {
		err := r.Insert(byte(i))
		if i < DefaultCapacity {
			require.NoError(t, err, "insert %d", i)
		} else {
			require.Equal(t, ErrBufferFull, err, "insert %d", i)
		}
	}
	require.Equal(t, DefaultCapacity, r.Len())
	require.Equal(t, 0, r.Free())
}

func TestFullInsertLeavesStateUnchanged(t *testing.T) {
	r := New(4, nil)
	// move the indices away from zero before filling.
	require.NoError(t, r.Insert(9))
	_, err := r.Retrieve()
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		require.NoError(t, r.Insert(byte(i)))
	}
	head, tail, size := r.indices()
	require.Equal(t, ErrBufferFull, r.Insert(0xff))
	h, tl, s := r.indices()
	require.Equal(t, head, h)
	require.Equal(t, tail, tl)
	require.Equal(t, size, s)
	for i := 0; i < 4; i++ {
		b, err := r.Retrieve()
		require.NoError(t, err)
		require.Equal(t, byte(i), b)
	}
}

func TestEmptyRetrieve(t *testing.T) {
	r := New(DefaultCapacity, nil)
	require.NoError(t, r.Insert('x'))
	_, err := r.Retrieve()
	require.NoError(t, err)
	head, tail, size := r.indices()
	b, err := r.Retrieve()
	require.Equal(t, ErrBufferEmpty, err)
	require.Zero(t, b)
	h, tl, s := r.indices()
	require.Equal(t, []int{head, tail, size}, []int{h, tl, s})
}

func TestFIFOWrapAround(t *testing.T) {
	testCases := []struct {
		name     string
		capacity int
		rounds   int
		batch    int
	}{
		{"single byte batches", 8, 20, 1},
		{"partial batches", 8, 10, 5},
		{"full batches", 8, 5, 8},
		{"odd capacity", 3, 7, 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(tc.capacity, nil)
			var in, out []byte
			next := byte(0)
			for n := 0; n < tc.rounds; n++ {
				for i := 0; i < tc.batch; i++ {
					require.NoError(t, r.Insert(next))
					in = append(in, next)
					next++
				}
				for r.Len() > 0 {
					b, err := r.Retrieve()
					require.NoError(t, err)
					out = append(out, b)
				}
				head, tail, size := r.indices()
				require.True(t, head >= 0 && head < tc.capacity)
				require.True(t, tail >= 0 && tail < tc.capacity)
				require.Equal(t, 0, size)
			}
			require.Equal(t, in, out)
		})
	}
}

func TestLenTracksSuccessfulOperations(t *testing.T) {
	r := New(DefaultCapacity, nil)
	inserted, retrieved := 0, 0
	ops := []bool{true, true, false, true, true, true, true, true, true, true, true, false, false, false}
	for _, insert := range ops {
		if insert {
			if r.Insert('a') == nil {
				inserted++
			}
		} else if _, err := r.Retrieve(); err == nil {
			retrieved++
		}
		require.Equal(t, inserted-retrieved, r.Len())
	}
}

func TestResetAndCriticalSection(t *testing.T) {
	cs := &countingLocker{}
	r := New(DefaultCapacity, cs)
	require.NoError(t, r.Insert(1))
	require.NoError(t, r.Insert(2))
	r.Reset()
	require.Equal(t, 0, r.Len())
	_, err := r.Retrieve()
	require.Equal(t, ErrBufferEmpty, err)
	require.Equal(t, 5, cs.locks)
}

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	require.Panics(t, func() { New(0, nil) })
}
