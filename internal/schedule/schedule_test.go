package schedule

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestValidate(t *testing.T) {
	for _, spec := range []string{
		"* * * * *",
		"*/5 * * * *",
		"0 3 * * 1-5",
		"@hourly",
		"@every 90s",
	} {
		assert.NoError(t, Validate(spec), "spec %q", spec)
	}

	for _, spec := range []string{
		"",
		"every day",
		"61 * * * *",
		"* * * *",
	} {
		assert.Error(t, Validate(spec), "spec %q", spec)
	}
}

func TestAddRejectsBadSpec(t *testing.T) {
	s := New(quietLogger())
	assert.Error(t, s.Add("nonsense", func() {}))
	assert.NoError(t, s.Add("@daily", func() {}))
}

func TestRunStopsWithContext(t *testing.T) {
	s := New(quietLogger())
	require.NoError(t, s.Add("@daily", func() {}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, s.Run(ctx))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunFiresJobs(t *testing.T) {
	s := New(quietLogger())

	var fired int64
	require.NoError(t, s.Add("@every 100ms", func() {
		atomic.AddInt64(&fired, 1)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 350*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.GreaterOrEqual(t, atomic.LoadInt64(&fired), int64(1))
}
