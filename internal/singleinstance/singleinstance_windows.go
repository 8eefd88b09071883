//go:build windows

// Package singleinstance provides single instance control for the application.
package singleinstance

import (
	"golang.org/x/sys/windows"

	"github.com/graaaaa/vrc-albums/internal/appinfo"
)

// AcquireLock attempts to acquire a session-scoped lock to ensure only one
// instance of the application mutates the log store at a time.
//
// Returns:
//   - release: function to call when shutting down (use with defer)
//   - ok: true if lock was acquired, false if another instance is running
//   - err: error if something went wrong
func AcquireLock() (release func(), ok bool, err error) {
	name, err := windows.UTF16PtrFromString(appinfo.MutexName)
	if err != nil {
		return nil, false, err
	}

	h, err := windows.CreateMutex(nil, false, name)
	if err != nil {
		// ERROR_ALREADY_EXISTS means another instance holds the mutex.
		if err == windows.ERROR_ALREADY_EXISTS {
			if h != 0 {
				windows.CloseHandle(h)
			}
			return nil, false, nil
		}
		return nil, false, err
	}

	return func() {
		windows.CloseHandle(h)
	}, true, nil
}
