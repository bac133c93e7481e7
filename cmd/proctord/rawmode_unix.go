//go:build darwin || linux

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// rawMode switches stdin to character-at-a-time input with echo off
// and returns a restore function. The engine does its own echoing,
// so the terminal must not.
func rawMode() (func(), error) {
	fd := int(os.Stdin.Fd())
	old, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, err
	}
	raw := *old
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Iflag &^= unix.IXON | unix.ICRNL | unix.BRKINT | unix.INPCK | unix.ISTRIP
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return nil, err
	}
	return func() {
		unix.IoctlSetTermios(fd, ioctlWriteTermios, old) //nolint:errcheck
	}, nil
}
