// Package notify sends desktop notifications for long-running operations.
package notify

import (
	"runtime"
)

// Notifier delivers a short user-facing notification.
type Notifier interface {
	Send(title, message string) error
}

// Desktop sends native toast notifications through the Windows shell. The
// sync tooling targets Windows hosts; the toast library does not build for
// anything else. The GOOS gate keeps Send inert in tests and in any build
// that does carry the dependency on another platform.
type Desktop struct {
	appID string
	goos  string
}

// NewDesktop creates a desktop notifier registered under the given app id.
func NewDesktop(appID string) *Desktop {
	return &Desktop{
		appID: appID,
		goos:  runtime.GOOS,
	}
}

// Send shows the notification.
func (d *Desktop) Send(title, message string) error {
	if d.goos != "windows" {
		return nil
	}

	return pushToast(d.appID, title, message)
}

// Discard drops all notifications. Useful in tests and quiet mode.
type Discard struct{}

// Send implements Notifier and does nothing.
func (Discard) Send(title, message string) error {
	return nil
}
