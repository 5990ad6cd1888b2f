package engine

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/notify"
	"github.com/wangguanran/Tools/internal/sync/remote"
	"github.com/wangguanran/Tools/internal/sync/synctypes"
	"github.com/wangguanran/Tools/internal/testutil"
)

// recordingNotifier captures notifications instead of raising toasts.
type recordingNotifier struct {
	mu       sync.Mutex
	titles   []string
	messages []string
}

func (n *recordingNotifier) Send(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
	return nil
}

// newTestSession wires a session over in-memory trees with fast timings and
// every external surface faked out.
func newTestSession(
	t *testing.T,
	cfg *SessionConfig,
	src, dst map[string]string,
	opts ...SessionOption,
) (*Session, *fsys.FS, *bytes.Buffer) {
	t.Helper()

	fs := fsys.NewInMemoryFS()
	require.NoError(t, fs.MkdirAll("src", 0o755))
	require.NoError(t, fs.MkdirAll("dst", 0o755))
	testutil.WriteTree(t, fs, "src", src)
	testutil.WriteTree(t, fs, "dst", dst)

	if cfg.Engine == nil {
		cfg.Engine = &Config{}
	}
	cfg.Engine.Source = "src"
	cfg.Engine.Destination = "dst"
	cfg.Engine.Concurrency = 1
	cfg.Engine.MaxAttempts = 1
	cfg.Engine.Logger = quietLogger()

	out := &bytes.Buffer{}
	base := []SessionOption{
		WithInput(strings.NewReader("")),
		WithOutput(out),
		WithNotifier(notify.Discard{}),
		WithRunner(&testutil.RecordingRunner{}),
	}

	s, err := NewSession(fs, fs, cfg, append(base, opts...)...)
	require.NoError(t, err)
	return s, fs, out
}

func TestNewSessionValidation(t *testing.T) {
	fs := fsys.NewInMemoryFS()

	_, err := NewSession(fs, fs, nil)
	assert.Error(t, err)

	_, err = NewSession(fs, fs, &SessionConfig{})
	assert.Error(t, err)
}

func TestSessionOneShot(t *testing.T) {
	notifier := &recordingNotifier{}
	s, fs, out := newTestSession(t,
		&SessionConfig{InitialSync: true},
		map[string]string{"code.c": "int x;"},
		nil,
		WithNotifier(notifier),
	)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, "int x;", testutil.ReadFileString(t, fs, "dst/code.c"))
	assert.Contains(t, out.String(), "Copied 1 files")

	require.Len(t, notifier.titles, 1)
	assert.Equal(t, "Sync complete", notifier.titles[0])
	assert.Contains(t, notifier.messages[0], "src: copied 1 files in")
}

func TestSessionOneShotPromptsWithoutInitialSyncFlag(t *testing.T) {
	t.Run("declining the skip runs the pass", func(t *testing.T) {
		s, fs, out := newTestSession(t,
			&SessionConfig{},
			map[string]string{"a.txt": "a"},
			nil,
			WithInput(strings.NewReader("n\n")),
		)

		require.NoError(t, s.Run(context.Background()))

		assert.Contains(t, out.String(), "Skip initial sync? (y/n): ")
		assert.Equal(t, "a", testutil.ReadFileString(t, fs, "dst/a.txt"))
	})

	t.Run("accepting the skip copies nothing", func(t *testing.T) {
		s, fs, out := newTestSession(t,
			&SessionConfig{},
			map[string]string{"a.txt": "a"},
			nil,
			WithInput(strings.NewReader("y\n")),
		)

		require.NoError(t, s.Run(context.Background()))

		assert.Contains(t, out.String(), "Skip initial sync? (y/n): ")
		assert.False(t, exists(t, fs, "dst/a.txt"))
	})
}

func TestPromptSkipInitial(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes short", "y\n", true},
		{"yes long", "yes\n", true},
		{"yes uppercase", "Y\n", true},
		{"padded yes", "  y  \n", true},
		{"no", "n\n", false},
		{"anything else", "maybe\n", false},
		{"empty line", "\n", false},
		{"eof", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _, out := newTestSession(t,
				&SessionConfig{Watch: true},
				nil, nil,
				WithInput(strings.NewReader(tc.input)),
			)

			assert.Equal(t, tc.want, s.promptSkipInitial())
			assert.Equal(t, "Skip initial sync? (y/n): ", out.String())
		})
	}
}

func TestSessionWatchSkipsInitialOnRequest(t *testing.T) {
	s, fs, out := newTestSession(t,
		&SessionConfig{
			Watch:        true,
			ForcePolling: true,
			PollInterval: 20 * time.Millisecond,
		},
		map[string]string{"a.txt": "a"},
		nil,
		WithInput(strings.NewReader("y\n")),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))

	assert.Contains(t, out.String(), "Skip initial sync? (y/n): ")
	assert.False(t, exists(t, fs, "dst/a.txt"), "declined pass must not copy")
}

func TestSessionWatchMirrorsChanges(t *testing.T) {
	// Source and destination live on separate filesystems so the polling
	// scanner and the mirror pass never write the same in-memory store.
	srcFS := fsys.NewInMemoryFS()
	dstFS := fsys.NewInMemoryFS()
	testutil.WriteTree(t, srcFS, "src", map[string]string{"base.txt": "base"})
	require.NoError(t, dstFS.MkdirAll("dst", 0o755))

	cfg := &SessionConfig{
		Engine: &Config{
			Source:      "src",
			Destination: "dst",
			Concurrency: 1,
			MaxAttempts: 1,
			Logger:      quietLogger(),
		},
		InitialSync:  true,
		Watch:        true,
		ForcePolling: true,
		PollInterval: 250 * time.Millisecond,
	}

	out := &bytes.Buffer{}
	s, err := NewSession(srcFS, dstFS, cfg,
		WithInput(strings.NewReader("")),
		WithOutput(out),
		WithNotifier(notify.Discard{}),
		WithRunner(&testutil.RecordingRunner{}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	// Let the initial pass and the first poll snapshot finish, then change
	// the source midway through a poll interval so the write never overlaps
	// a scan.
	time.Sleep(125 * time.Millisecond)
	require.NoError(t, srcFS.WriteFile("src/added.txt", []byte("fresh"), 0o644))

	// Two poll intervals are plenty for the change to be mirrored.
	time.Sleep(600 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop after cancellation")
	}

	assert.Equal(t, "base", testutil.ReadFileString(t, dstFS, "dst/base.txt"))
	assert.Equal(t, "fresh", testutil.ReadFileString(t, dstFS, "dst/added.txt"))
}

func TestSessionRemapsUnreachableSource(t *testing.T) {
	refuse := func(network, addr string, timeout time.Duration) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Err: context.DeadlineExceeded}
	}

	fs := fsys.NewInMemoryFS()
	prober := remote.NewProber(fs, remote.WithDialFunc(refuse))
	runner := &testutil.RecordingRunner{}

	cfg := &SessionConfig{
		Engine: &Config{
			Source:      `\\deadhost\share\tree`,
			Destination: "dst",
			Concurrency: 1,
			MaxAttempts: 1,
			Logger:      quietLogger(),
		},
		InitialSync: true,
	}

	s, err := NewSession(fs, fs, cfg,
		WithInput(strings.NewReader("")),
		WithOutput(&bytes.Buffer{}),
		WithNotifier(notify.Discard{}),
		WithProber(prober),
		WithRunner(runner),
	)
	require.NoError(t, err)

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeRemoteUnreachable), "got %v", err)
}

func TestSessionScheduled(t *testing.T) {
	t.Run("runs until cancelled", func(t *testing.T) {
		s, fs, _ := newTestSession(t,
			&SessionConfig{InitialSync: true, Schedule: "*/5 * * * *"},
			map[string]string{"a.txt": "a"},
			nil,
		)

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()

		require.NoError(t, s.Run(ctx))
		assert.True(t, exists(t, fs, "dst/a.txt"), "initial pass runs before the schedule takes over")
	})

	t.Run("rejects malformed expressions", func(t *testing.T) {
		s, _, _ := newTestSession(t,
			&SessionConfig{InitialSync: true, Schedule: "every day at noon"},
			nil, nil,
		)

		err := s.Run(context.Background())
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.CodeInvalidInput))
	})
}

func TestSummarize(t *testing.T) {
	s, _, out := newTestSession(t, &SessionConfig{}, nil, nil)

	s.summarize(&synctypes.Result{
		FilesCopied:  3,
		BytesCopied:  1536,
		FilesSkipped: 2,
		FilesDeleted: 1,
		Duration:     4 * time.Second,
	})
	assert.Equal(t, "Copied 3 files (1.5 KiB), skipped 2, deleted 1 in 4s\n", out.String())

	out.Reset()
	s.summarize(&synctypes.Result{
		Errors: []synctypes.SyncError{{Path: "a"}, {Path: "b"}},
	})
	assert.Contains(t, out.String(), "2 files failed; see the log for details\n")
}
