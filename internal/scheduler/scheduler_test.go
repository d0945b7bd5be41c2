package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	runs int
	err  error
}

func (j *fakeJob) Name() string { return "fake" }
func (j *fakeJob) Run() error {
	j.runs++
	return j.err
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))
	err := s.AddJob("not a schedule", &fakeJob{})
	assert.Error(t, err)
}

func TestAddJobAcceptsDescriptor(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, s.AddJob("@every 1h", &fakeJob{}))
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	job := &fakeJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	failing := &fakeJob{err: errors.New("boom")}
	assert.Error(t, s.RunNow(failing))
}
