// Package pty spawns a shell behind a pseudoterminal and exposes a
// non-blocking read/write transport to it.
package pty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by Read/Write when the operation would block.
// It is returned in place of the underlying syscall.EAGAIN so callers can
// use errors.Is without depending on syscall directly.
var ErrWouldBlock = errors.New("pty: would block")

// Pty is a non-blocking pseudoterminal transport to a spawned shell.
type Pty struct {
	cmd *exec.Cmd
	f   *os.File

	mu     sync.Mutex
	exited bool
}

// Options configures how the child shell is spawned.
type Options struct {
	// Shell overrides shell discovery (config value, /etc/passwd, fallback list).
	Shell string
	// Dir is the child's working directory; defaults to the user's home.
	Dir string
	// ExtraEnv is appended to the built environment ("KEY=VALUE" pairs).
	ExtraEnv []string
	Cols     int
	Rows     int
}

// Open spawns an interactive shell inside a new session with a pty as its
// controlling terminal, and puts the master end into non-blocking mode.
func Open(opts Options) (*Pty, error) {
	shell := opts.Shell
	if shell == "" {
		shell = findShell()
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("pty: lookup current user: %w", err)
	}

	dir := opts.Dir
	if dir == "" {
		dir = currentUser.HomeDir
	}

	cmd := exec.Command(shell, "-i")
	cmd.Dir = dir
	cmd.Env = buildEnv(currentUser, shell, opts.ExtraEnv)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	f, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		return nil, fmt.Errorf("pty: start %s: %w", shell, err)
	}

	if err := configureTermios(f); err != nil {
		f.Close()
		cmd.Process.Kill()
		return nil, fmt.Errorf("pty: configure termios: %w", err)
	}

	if err := syscall.SetNonblock(int(f.Fd()), true); err != nil {
		f.Close()
		cmd.Process.Kill()
		return nil, fmt.Errorf("pty: set nonblocking: %w", err)
	}

	p := &Pty{cmd: cmd, f: f}

	go func() {
		cmd.Wait()
		p.mu.Lock()
		p.exited = true
		p.mu.Unlock()
	}()

	return p, nil
}

// Read performs a non-blocking read from the pty master. It returns
// ErrWouldBlock when there is nothing to read right now, and (0, nil)
// only on EOF (child hung up).
func (p *Pty) Read(buf []byte) (int, error) {
	n, err := p.f.Read(buf)
	if err != nil {
		if errors.Is(err, syscall.EAGAIN) {
			return 0, ErrWouldBlock
		}
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

// Write performs a non-blocking write to the pty master.
func (p *Pty) Write(buf []byte) (int, error) {
	n, err := p.f.Write(buf)
	if err != nil && errors.Is(err, syscall.EAGAIN) {
		return n, ErrWouldBlock
	}
	return n, err
}

// Resize changes the pty window size, which delivers SIGWINCH to the child.
func (p *Pty) Resize(cols, rows, pxWidth, pxHeight int) error {
	return pty.Setsize(p.f, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
		X:    uint16(pxWidth),
		Y:    uint16(pxHeight),
	})
}

// Exited reports whether the child process has been reaped.
func (p *Pty) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// Close sends SIGHUP to the child by closing the master end and releases it.
func (p *Pty) Close() error {
	if p.cmd.Process != nil {
		p.cmd.Process.Signal(syscall.SIGHUP)
	}
	return p.f.Close()
}

// configureTermios puts the pty master's line discipline into the
// terminal-emulator-standard cooked mode: canonical processing, echo,
// and signal generation stay on so the shell's own readline/job-control
// behaves normally, UTF-8 input and CR->NL translation are enabled, and
// output post-processing (NL->CRNL) is on. Full-screen programs (vim,
// tmux, less) switch their controlling tty to raw mode themselves once
// they start; the emulator never does that switch on their behalf.
func configureTermios(f *os.File) error {
	fd := int(f.Fd())
	term, err := unix.IoctlGetTermios(fd, termiosGetAttr)
	if err != nil {
		return err
	}

	term.Iflag |= unix.ICRNL | unix.IUTF8
	term.Oflag |= unix.OPOST | unix.ONLCR
	term.Cflag |= unix.CREAD | unix.CS8
	term.Cflag &^= unix.PARENB
	term.Lflag |= unix.ICANON | unix.ISIG | unix.IEXTEN | unix.ECHO | unix.ECHOE | unix.ECHOK

	term.Cc[unix.VEOF] = 4
	term.Cc[unix.VINTR] = 3
	term.Cc[unix.VQUIT] = 0x1c
	term.Cc[unix.VERASE] = 0x7f
	term.Cc[unix.VKILL] = 21
	term.Cc[unix.VWERASE] = 23
	term.Cc[unix.VREPRINT] = 18

	return unix.IoctlSetTermios(fd, termiosSetAttr, term)
}

// findShell probes $SHELL, /etc/passwd, then a fallback list.
func findShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		if _, err := os.Stat(sh); err == nil {
			return sh
		}
	}

	if currentUser, err := user.Current(); err == nil {
		if sh := passwdShell(currentUser.Username); sh != "" {
			if _, err := os.Stat(sh); err == nil {
				return sh
			}
		}
	}

	for _, sh := range []string{"/bin/bash", "/usr/bin/bash", "/bin/zsh", "/usr/bin/zsh", "/bin/sh"} {
		if _, err := os.Stat(sh); err == nil {
			return sh
		}
	}
	return "/bin/sh"
}

func passwdShell(username string) string {
	data, err := os.ReadFile("/etc/passwd")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) >= 7 && fields[0] == username {
			return fields[6]
		}
	}
	return ""
}

// probeTerm returns the first TERM value in the probe order
// (configured -> xterm-256color -> xterm) whose terminfo is present.
func probeTerm(configured string) string {
	for _, candidate := range []string{configured, "xterm-256color", "xterm"} {
		if candidate == "" {
			continue
		}
		if terminfoExists(candidate) {
			return candidate
		}
	}
	return "xterm"
}

func terminfoExists(term string) bool {
	if term == "" {
		return false
	}
	dirs := []string{"/usr/share/terminfo", "/lib/terminfo", "/etc/terminfo"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append([]string{home + "/.terminfo"}, dirs...)
	}
	sub := string(term[0])
	for _, dir := range dirs {
		if _, err := os.Stat(dir + "/" + sub + "/" + term); err == nil {
			return true
		}
		// Some installs hash the leading directory by hex code instead of the literal letter.
		if _, err := os.Stat(fmt.Sprintf("%s/%02x/%s", dir, term[0], term)); err == nil {
			return true
		}
	}
	return false
}

func buildEnv(u *user.User, shell string, extra []string) []string {
	xdgRuntimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if xdgRuntimeDir == "" {
		xdgRuntimeDir = "/run/user/" + u.Uid
	}

	env := []string{
		"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin:" + os.Getenv("PATH"),
		"TERM=" + probeTerm(os.Getenv("TERM")),
		"COLORTERM=truecolor",
		"HOME=" + u.HomeDir,
		"USER=" + u.Username,
		"SHELL=" + shell,
		"LANG=" + envOr("LANG", "en_US.UTF-8"),
		"XDG_RUNTIME_DIR=" + xdgRuntimeDir,
	}

	if display := os.Getenv("DISPLAY"); display != "" {
		env = append(env, "DISPLAY="+display)
	}
	if wayland := os.Getenv("WAYLAND_DISPLAY"); wayland != "" {
		env = append(env, "WAYLAND_DISPLAY="+wayland)
	}

	return append(env, extra...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
