//go:build !windows

package notify

// pushToast is only reachable when Desktop.goos is "windows"; on other
// platforms the toast library does not compile, so this stub keeps the
// package buildable. Send never calls it off-Windows.
func pushToast(appID, title, message string) error {
	return nil
}
