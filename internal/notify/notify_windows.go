//go:build windows

package notify

import "github.com/go-toast/toast"

func pushToast(appID, title, message string) error {
	n := toast.Notification{
		AppID:   appID,
		Title:   title,
		Message: message,
	}
	return n.Push()
}
