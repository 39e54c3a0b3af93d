package statefile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	Count int `json:"count"`
}

func newFixtureState(t *testing.T) *State[fixture] {
	path := filepath.Join(t.TempDir(), "fixture.json")
	return New(
		path,
		func() (fixture, error) { return fixture{Count: 0}, nil },
		func(raw json.RawMessage, shape fixture) (fixture, error) {
			err := json.Unmarshal(raw, &shape)
			return shape, err
		},
		nil,
	)
}

func TestStateLoadCreatesWhenMissing(t *testing.T) {
	s := newFixtureState(t)

	value, err := s.Load(false, false)
	require.NoError(t, err)
	assert.Equal(t, 0, value.Count)
}

func TestStateCommitAndLoadRoundTrip(t *testing.T) {
	s := newFixtureState(t)

	require.NoError(t, s.Commit(fixture{Count: 7}))

	value, err := s.Load(false, false)
	require.NoError(t, err)
	assert.Equal(t, 7, value.Count)
}

func TestStateLoadResetIgnoresExistingFile(t *testing.T) {
	s := newFixtureState(t)
	require.NoError(t, s.Commit(fixture{Count: 7}))

	value, err := s.Load(false, true)
	require.NoError(t, err)
	assert.Equal(t, 0, value.Count)
}

func TestStateLoadCorruptReturnsErrCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o666))

	s := New(
		path,
		func() (fixture, error) { return fixture{}, nil },
		func(raw json.RawMessage, shape fixture) (fixture, error) {
			err := json.Unmarshal(raw, &shape)
			return shape, err
		},
		nil,
	)

	_, err := s.Load(false, false)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestStateLoadCleansStaleEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	s := New(
		path,
		func() (fixture, error) { return fixture{}, nil },
		func(raw json.RawMessage, shape fixture) (fixture, error) {
			err := json.Unmarshal(raw, &shape)
			return shape, err
		},
		func(f fixture) fixture {
			f.Count = 0
			return f
		},
	)
	require.NoError(t, s.Commit(fixture{Count: 42}))

	value, err := s.Load(true, false)
	require.NoError(t, err)
	assert.Equal(t, 0, value.Count)
}

func TestWithCommitsOnlyOnSuccess(t *testing.T) {
	s := newFixtureState(t)
	require.NoError(t, s.Commit(fixture{Count: 1}))

	err := With(s, false, false, func(f *fixture) error {
		f.Count = 99
		return assert.AnError
	})
	require.Error(t, err)

	value, err := s.Load(false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, value.Count, "a failing fn must not commit")
}

func TestWithResultThreadsReturnValue(t *testing.T) {
	s := newFixtureState(t)

	result, err := WithResult(s, false, false, func(f *fixture) (string, error) {
		f.Count = 3
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	value, err := s.Load(false, false)
	require.NoError(t, err)
	assert.Equal(t, 3, value.Count)
}
