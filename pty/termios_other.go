//go:build !linux

package pty

import "golang.org/x/sys/unix"

const (
	termiosGetAttr = unix.TIOCGETA
	termiosSetAttr = unix.TIOCSETA
)
