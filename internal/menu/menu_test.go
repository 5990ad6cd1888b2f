package menu

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangguanran/Tools/internal/config"
	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/executor"
	"github.com/wangguanran/Tools/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		Tool:     "remote-sync",
		Profiles: config.DefaultProfiles(),
	}
}

func runMenu(t *testing.T, input string) (*testutil.RecordingRunner, *bytes.Buffer, error) {
	t.Helper()

	runner := &testutil.RecordingRunner{}
	out := &bytes.Buffer{}

	m := New(testConfig(),
		WithRunner(runner),
		WithInput(strings.NewReader(input)),
		WithOutput(out),
	)
	err := m.Run(context.Background())
	return runner, out, err
}

const menuHeader = "1. Sync W307 Release\n" +
	"2. Sync W117 TR5 Dev\n" +
	"\n" +
	"Enter your choice (1 or 2): "

func TestRunDispatchesProfiles(t *testing.T) {
	t.Run("choice 1", func(t *testing.T) {
		runner, out, err := runMenu(t, "1\n")
		require.NoError(t, err)

		assert.Equal(t, menuHeader, out.String())
		require.Equal(t, 1, runner.CallCount())
		assert.Equal(t, "remote-sync", runner.Calls[0].Program)
		assert.Equal(t, []string{
			"--resource", `\\172.16.0.243\wangguanran\Codes\sprd_w307_release`,
			"--destination", `D:\Codes\sprd_w307_release`,
			"--initial-sync", "--no-watch",
		}, runner.Calls[0].Args)
	})

	t.Run("choice 2", func(t *testing.T) {
		runner, _, err := runMenu(t, "2\n")
		require.NoError(t, err)

		require.Equal(t, 1, runner.CallCount())
		assert.Equal(t, []string{
			"--resource", `\\172.16.0.243\wangguanran\Codes\sprd_w117_tr5_dev`,
			"--destination", `D:\Codes\sprd_w117_tr5_dev`,
			"--initial-sync", "--no-watch",
		}, runner.Calls[0].Args)
	})
}

func TestRunRejectsEverythingElse(t *testing.T) {
	// Matching is literal: no trimming, no numeric parsing.
	inputs := map[string]string{
		"out of range":   "3\n",
		"non-numeric":    "abc\n",
		"leading space":  " 1\n",
		"trailing space": "1 \n",
		"empty line":     "\n",
		"immediate EOF":  "",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			runner, out, err := runMenu(t, input)

			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.CodeInvalidChoice))
			assert.Equal(t, menuHeader+"Invalid choice!\n", out.String())
			assert.Equal(t, 0, runner.CallCount(), "nothing may be spawned on a bad choice")
		})
	}
}

func TestRunPropagatesToolFailures(t *testing.T) {
	t.Run("tool not found", func(t *testing.T) {
		runner := &testutil.RecordingRunner{Err: exec.ErrNotFound}
		out := &bytes.Buffer{}

		m := New(testConfig(),
			WithRunner(runner),
			WithInput(strings.NewReader("1\n")),
			WithOutput(out),
		)
		err := m.Run(context.Background())

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.CodeToolNotFound))
	})

	t.Run("tool failed", func(t *testing.T) {
		runner := &testutil.RecordingRunner{
			Result: &executor.Result{ExitCode: 2},
			Err:    assert.AnError,
		}

		m := New(testConfig(),
			WithRunner(runner),
			WithInput(strings.NewReader("2\n")),
			WithOutput(&bytes.Buffer{}),
		)
		err := m.Run(context.Background())

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.CodeToolFailed))
	})
}

func TestBuildArgs(t *testing.T) {
	p := config.Profile{
		Label:       "X",
		Resource:    `\\host\share\tree`,
		Destination: `D:\tree`,
		Flags:       []string{"--initial-sync", "--no-watch"},
	}

	args := BuildArgs(p)
	assert.Equal(t, []string{
		"--resource", `\\host\share\tree`,
		"--destination", `D:\tree`,
		"--initial-sync", "--no-watch",
	}, args)
}

func TestRunUsesProfileOrder(t *testing.T) {
	cfg := &config.Config{
		Tool: "remote-sync",
		Profiles: map[string]config.Profile{
			"2": {Label: "Second", Resource: `\\h\s\b`, Destination: `D:\b`},
			"1": {Label: "First", Resource: `\\h\s\a`, Destination: `D:\a`},
		},
	}

	out := &bytes.Buffer{}
	m := New(cfg,
		WithRunner(&testutil.RecordingRunner{}),
		WithInput(strings.NewReader("nope\n")),
		WithOutput(out),
	)
	_ = m.Run(context.Background())

	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "1. Sync First", lines[0])
	assert.Equal(t, "2. Sync Second", lines[1])
}
