package slicestore

import (
	"testing"

	"github.com/TomTonic/hitgen/slicefile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func frame(run uuid.UUID, start int64) *slicefile.Frame {
	return &slicefile.Frame{
		RunID:  run,
		Start:  start,
		End:    start + 1000,
		Times:  []int64{start + 1, start + 7, start + 300},
		Values: []uint32{0x000CA319, 0x000CA31A, 0x000CA31B},
	}
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)
	run := uuid.New()
	f := frame(run, 5000)
	require.NoError(t, s.Put(f))

	got, err := s.Get(run, 5000)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	_, err = s.Get(run, 6000)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(uuid.New(), 5000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersByStart(t *testing.T) {
	s := openTestStore(t)
	run, other := uuid.New(), uuid.New()
	for _, start := range []int64{3000, -2000, 0, 1 << 40, 1000} {
		require.NoError(t, s.Put(frame(run, start)))
	}
	require.NoError(t, s.Put(frame(other, 500)))

	starts, err := s.List(run)
	require.NoError(t, err)
	assert.Equal(t, []int64{-2000, 0, 1000, 3000, 1 << 40}, starts)

	starts, err = s.List(uuid.New())
	require.NoError(t, err)
	assert.Empty(t, starts)
}

func TestRunsAndDelete(t *testing.T) {
	s := openTestStore(t)
	a, b := uuid.New(), uuid.New()
	for _, start := range []int64{0, 1000, 2000} {
		require.NoError(t, s.Put(frame(a, start)))
	}
	require.NoError(t, s.Put(frame(b, 0)))

	runs, err := s.Runs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, runs)

	n, err := s.Delete(a)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	runs, err = s.Runs()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, runs)
}

func TestPutRejectsBadFrame(t *testing.T) {
	s := openTestStore(t)
	err := s.Put(&slicefile.Frame{RunID: uuid.New(), Times: []int64{1}})
	assert.ErrorIs(t, err, slicefile.ErrLength)
}
