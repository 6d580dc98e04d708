// Command vtcoreterm is a manual smoke-test harness: it spawns a real
// shell behind a pty, drives it through vtcore/session, and renders
// the terminal's plain-text content to stdout on every wakeup. It is
// not a renderer — no glyph shaping, no GPU, just enough to exercise
// pty+session+vtcore end to end from a prompt.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vtcore/vtcore"
	vtpty "github.com/vtcore/vtcore/pty"
	"github.com/vtcore/vtcore/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cols       int
		rows       int
		scrollback int
		shell      string
	)

	cmd := &cobra.Command{
		Use:   "vtcoreterm",
		Short: "Run a shell through vtcore and print the live screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cols, rows, scrollback, shell)
		},
	}

	cmd.Flags().IntVar(&cols, "cols", 80, "terminal width in columns")
	cmd.Flags().IntVar(&rows, "rows", 24, "terminal height in rows")
	cmd.Flags().IntVar(&scrollback, "scrollback", 10000, "scrollback capacity in rows (0 disables it)")
	cmd.Flags().StringVar(&shell, "shell", "", "shell to spawn (defaults to the user's login shell)")

	return cmd
}

func run(cols, rows, scrollback int, shell string) error {
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	storage := vtcore.NewMemoryScrollback(scrollback)
	s, err := session.Open(vtpty.Options{Shell: shell, Cols: cols, Rows: rows}, vtcore.WithScrollback(storage))
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	go s.Run()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if oldState, err := term.MakeRaw(fd); err == nil {
			defer term.Restore(fd, oldState)
		}
	}

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	go func() {
		for range winch {
			if w, h, err := term.GetSize(fd); err == nil {
				s.Commands() <- session.Command{Kind: session.CommandResize, Cols: w, Rows: h}
			}
		}
	}()

	go forwardStdin(s)

	for ev := range s.Events() {
		switch ev.Kind {
		case session.EventWakeup:
			redraw(s.Term)
		case session.EventBell:
			fmt.Fprint(os.Stderr, "\a")
		case session.EventTitle:
			logger.Info().Str("title", ev.Title).Msg("title changed")
		case session.EventExited:
			logger.Info().Msg("child exited")
			return nil
		case session.EventClipboardLoad:
			ev.Respond("")
		}
	}
	return nil
}

// forwardStdin relays raw bytes typed at this program's own stdin
// straight to the child; key-encoding decisions belong to a real
// front end (vtcore/keyenc) driving structured key events, not this
// smoke-test harness, which just proves the transport works.
func forwardStdin(s *session.Session) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			input := make([]byte, n)
			copy(input, buf[:n])
			s.Commands() <- session.Command{Kind: session.CommandInput, Input: input}
		}
		if err != nil {
			return
		}
	}
}

// redraw prints the current screen contents, one line per row,
// preceded by a clear-screen sequence so each wakeup overwrites the
// last frame in place.
func redraw(t *vtcore.Terminal) {
	fmt.Print("\x1b[2J\x1b[H")
	rows, cols := t.Rows(), t.Cols()
	for r := 0; r < rows; r++ {
		fmt.Println(padLine(t.LineContent(r), cols))
	}
	row, col := t.CursorPos()
	fmt.Printf("\x1b[%d;%dH", row+1, col+1)
}

func padLine(s string, cols int) string {
	n := len([]rune(s))
	for ; n < cols; n++ {
		s += " "
	}
	return s
}
