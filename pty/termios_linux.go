//go:build linux

package pty

import "golang.org/x/sys/unix"

const (
	termiosGetAttr = unix.TCGETS
	termiosSetAttr = unix.TCSETS
)
