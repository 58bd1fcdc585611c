// Package interactive provides the interactive command-line interface
// for the shutter device.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/shutter-remote/shutter-go/pkg/capture"
)

// MaxRepeat caps the repeat count of a single command.
const MaxRepeat = 60

// Button is a physical button on the device.
type Button uint8

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonSelect
)

// String returns the button name.
func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	case ButtonSelect:
		return "select"
	default:
		return "unknown"
	}
}

// Status is what the status command prints.
type Status struct {
	View           capture.View
	Settling       bool
	Waiting        bool
	Link           string
	Linked         bool
	Companion      string
	PendingIntents int
}

// Controls is the device surface the console drives. Press must hand the
// press to the device loop rather than run it inline.
type Controls interface {
	Press(b Button) error
	Status() (Status, error)
}

// Console handles interactive mode for shutter-device.
type Console struct {
	controls Controls
	rl       *readline.Instance
	out      io.Writer
}

// New creates a readline-backed console.
func New(controls Controls) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "shutter> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{controls: controls, rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output and rendering to avoid interfering with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	if c.rl != nil {
		return c.rl.Stderr()
	}
	return c.out
}

// Run reads commands until EOF, quit or ctx is cancelled.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if c.Execute(line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether the console should exit.
func (c *Console) Execute(line string) bool {
	parts := strings.Fields(strings.ToLower(line))
	if len(parts) == 0 {
		return false
	}
	cmd, args := parts[0], parts[1:]

	if b, ok := parseButton(cmd); ok {
		count, err := parseRepeat(args)
		if err != nil {
			fmt.Fprintf(c.out, "%v\n", err)
			return false
		}
		c.press(b, count)
		return false
	}

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "status", "st":
		c.cmdStatus()

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) press(b Button, count int) {
	for i := 0; i < count; i++ {
		if err := c.controls.Press(b); err != nil {
			fmt.Fprintf(c.out, "Press %s failed: %v\n", b, err)
			return
		}
	}
}

func (c *Console) cmdStatus() {
	st, err := c.controls.Status()
	if err != nil {
		fmt.Fprintf(c.out, "Status unavailable: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "\nDevice Status")
	fmt.Fprintln(c.out, "-------------------------------------------")
	fmt.Fprintf(c.out, "  State:           %s\n", st.View.State)
	fmt.Fprintf(c.out, "  Timer value:     %d\n", st.View.TimerValue)
	if st.View.HasRemaining {
		fmt.Fprintf(c.out, "  Remaining:       %d\n", st.View.Remaining)
	}
	fmt.Fprintf(c.out, "  Settling:        %t\n", st.Settling)
	fmt.Fprintf(c.out, "  Awaiting photo:  %t\n", st.Waiting)
	fmt.Fprintf(c.out, "  Link:            %s\n", st.Link)
	if st.Linked {
		fmt.Fprintln(c.out, "  Intents:         deliverable")
	} else {
		fmt.Fprintln(c.out, "  Intents:         fail at once (no link)")
	}
	if st.Companion != "" {
		fmt.Fprintf(c.out, "  Companion:       %s\n", st.Companion)
	}
	fmt.Fprintf(c.out, "  Pending intents: %d\n", st.PendingIntents)
	fmt.Fprintln(c.out)
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Shutter Device Commands:
  Buttons:
    up, u [n]          - Press up (n times, as when holding the button)
    down, d [n]        - Press down
    select, s          - Press select

  General:
    status             - Show device status
    help               - Show this help
    quit               - Exit device`)
}

func parseButton(cmd string) (Button, bool) {
	switch cmd {
	case "u", "up":
		return ButtonUp, true
	case "d", "down":
		return ButtonDown, true
	case "s", "select":
		return ButtonSelect, true
	default:
		return 0, false
	}
}

func parseRepeat(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > MaxRepeat {
		return 0, fmt.Errorf("repeat count must be 1..%d, got %q", MaxRepeat, args[0])
	}
	return n, nil
}
