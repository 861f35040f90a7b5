// Package console is the line-oriented user interface of the affirmation player.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/makeitchaccha/voicewealth/voicewealth/playback"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

const prompt = "> "

var _ playback.Observer = (*Console)(nil)

// Console parses one command per line and prints controller state changes as they happen.
type Console struct {
	controller *playback.Controller
	engine     speech.Engine
	root       *cobra.Command

	// outMu guards out and last; observer calls arrive on engine goroutines.
	outMu sync.Mutex
	out   io.Writer
	last  *playback.SessionState

	quit bool
}

func New(controller *playback.Controller, engine speech.Engine, out io.Writer) *Console {
	c := &Console{
		controller: controller,
		engine:     engine,
		out:        out,
	}

	c.root = &cobra.Command{
		Use:           "console",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	c.root.SetOut(lockedWriter{c})
	c.root.SetErr(lockedWriter{c})
	c.root.AddCommand(c.commands()...)

	initial := controller.State()
	c.last = &initial
	return c
}

// Run reads commands from in until quit, EOF or ctx cancellation.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	c.printf("%s\n", formatState(c.controller.State()))
	c.printf("type \"help\" for commands\n%s", prompt)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.Execute(ctx, scanner.Text()); err != nil {
			c.printf("error: %s\n", friendlyMessage(err))
		}
		if c.quit {
			return nil
		}
		c.printf("%s", prompt)
	}
	return scanner.Err()
}

// Execute runs a single command line. Blank lines are ignored.
func (c *Console) Execute(ctx context.Context, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	slog.Debug("Console command", "args", args)
	c.resetHelpFlags()
	c.root.SetArgs(args)
	return c.root.ExecuteContext(ctx)
}

// resetHelpFlags clears --help left over from a previous line, since the command tree is reused.
func (c *Console) resetHelpFlags() {
	for _, cmd := range append(c.root.Commands(), c.root) {
		if f := cmd.Flags().Lookup("help"); f != nil && f.Changed {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}
}

// Quit reports whether the quit command was entered.
func (c *Console) Quit() bool {
	return c.quit
}

func (c *Console) OnStateChanged(state playback.SessionState) {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	last := c.last
	c.last = &state
	if last == nil {
		return
	}

	if !sameMessage(last.Current, state.Current) && state.Current != nil {
		fmt.Fprintf(c.out, "\n%s\n", formatMessage(*state.Current))
	}
	if last.Playing != state.Playing {
		if state.Playing {
			fmt.Fprintln(c.out, "[speaking]")
		} else {
			fmt.Fprintln(c.out, "[stopped]")
		}
	}
	if !sameVoice(last.Voice, state.Voice) {
		fmt.Fprintf(c.out, "voice: %s\n", formatVoice(state.Voice))
	}
}

func (c *Console) OnPlaybackError(err error) {
	c.printf("playback error: %s\n", err)
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// lockedWriter lets cobra share the console output with observer callbacks.
type lockedWriter struct {
	c *Console
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.outMu.Lock()
	defer w.c.outMu.Unlock()
	return w.c.out.Write(p)
}
