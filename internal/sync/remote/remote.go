// Package remote probes and prepares access to SMB shares.
// Source trees usually live on a Windows file server; before and during a
// sync session the engine needs to know whether the share is reachable and
// reestablish the connection when it drops.
package remote

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"strings"
	"time"

	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/executor"
	"github.com/wangguanran/Tools/internal/fsys"
)

// smbPort is the TCP port probed to tell a dead host from a stale mount.
const smbPort = "445"

// Share identifies an SMB share referenced by a UNC path.
type Share struct {
	// Host is the server name or address
	Host string

	// Name is the share name, the first component after the host
	Name string

	// Path is the original UNC path
	Path string
}

// UNC returns the share root in UNC form, without any trailing components.
func (s *Share) UNC() string {
	return `\\` + s.Host + `\` + s.Name
}

// ParseUNC splits a UNC path into its share parts. Forward slashes are
// accepted and normalized.
func ParseUNC(raw string) (*Share, error) {
	normalized := strings.ReplaceAll(raw, "/", `\`)
	if !strings.HasPrefix(normalized, `\\`) {
		return nil, errs.Newf(errs.CodeInvalidInput, "not a UNC path: %q", raw)
	}

	parts := strings.Split(strings.TrimPrefix(normalized, `\\`), `\`)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, errs.Newf(errs.CodeInvalidInput, "UNC path %q needs a host and share", raw)
	}

	return &Share{
		Host: parts[0],
		Name: parts[1],
		Path: normalized,
	}, nil
}

// DialFunc opens a TCP connection; it exists so tests can fake the network.
type DialFunc func(network, addr string, timeout time.Duration) (net.Conn, error)

// Prober checks whether a source path is reachable.
type Prober struct {
	filesystem  *fsys.FS
	statTimeout time.Duration
	dialTimeout time.Duration
	dial        DialFunc
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithStatTimeout bounds how long a filesystem stat may block.
// Stats against a dead SMB mount can hang far past any useful wait.
func WithStatTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		p.statTimeout = d
	}
}

// WithDialTimeout bounds the TCP probe against the file server.
func WithDialTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		p.dialTimeout = d
	}
}

// WithDialFunc replaces the network dialer.
func WithDialFunc(dial DialFunc) ProberOption {
	return func(p *Prober) {
		p.dial = dial
	}
}

// NewProber creates a prober over the given filesystem.
func NewProber(filesystem *fsys.FS, opts ...ProberOption) *Prober {
	p := &Prober{
		filesystem:  filesystem,
		statTimeout: 10 * time.Second,
		dialTimeout: 5 * time.Second,
		dial:        net.DialTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Available reports whether path looks reachable. A successful stat settles
// it. When the stat fails on a UNC path, a TCP probe against the SMB port
// distinguishes a live host with a stale mount (still considered available,
// the caller can remap) from a host that is actually down.
func (p *Prober) Available(ctx context.Context, path string) bool {
	if p.statPath(ctx, path) == nil {
		return true
	}

	share, err := ParseUNC(path)
	if err != nil {
		return false
	}
	return p.hostUp(share.Host)
}

// Check is like Available but returns a coded error describing what failed.
func (p *Prober) Check(ctx context.Context, path string) error {
	statErr := p.statPath(ctx, path)
	if statErr == nil {
		return nil
	}

	share, err := ParseUNC(path)
	if err != nil {
		return errs.Wrap(statErr, errs.CodeRemoteUnreachable,
			fmt.Sprintf("path %q is not accessible", path))
	}

	if p.hostUp(share.Host) {
		return nil
	}
	return errs.Wrap(statErr, errs.CodeRemoteUnreachable,
		fmt.Sprintf("host %q is not answering on port %s", share.Host, smbPort))
}

// statPath stats the path without letting a hung SMB call block forever.
func (p *Prober) statPath(ctx context.Context, path string) error {
	done := make(chan error, 1)
	go func() {
		_, err := p.filesystem.Stat(path)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.statTimeout):
		return errs.Newf(errs.CodeTimeout, "stat of %q timed out after %s", path, p.statTimeout)
	}
}

// hostUp probes the SMB port on the share's host.
func (p *Prober) hostUp(host string) bool {
	conn, err := p.dial("tcp", net.JoinHostPort(host, smbPort), p.dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Mapper reestablishes SMB sessions through the system net command.
type Mapper struct {
	runner executor.Runner
	goos   string
}

// NewMapper creates a mapper using the given process runner.
func NewMapper(runner executor.Runner) *Mapper {
	return &Mapper{
		runner: runner,
		goos:   runtime.GOOS,
	}
}

// MapShare connects the SMB session for the share backing path. On
// non-Windows hosts this is a no-op since mounts are managed elsewhere.
func (m *Mapper) MapShare(ctx context.Context, path string) error {
	if m.goos != "windows" {
		return nil
	}

	share, err := ParseUNC(path)
	if err != nil {
		return err
	}

	result, err := m.runner.Run(ctx, "net", []string{"use", share.UNC()}, executor.SilentMode())
	if err != nil {
		return errs.Wrap(err, errs.CodeRemoteUnreachable,
			fmt.Sprintf("failed to map share %s", share.UNC()))
	}
	if result.ExitCode != 0 {
		return errs.Newf(errs.CodeRemoteUnreachable,
			"net use %s exited with code %d", share.UNC(), result.ExitCode)
	}
	return nil
}
