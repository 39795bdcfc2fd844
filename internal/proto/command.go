// Package proto implements the gadget's line-oriented control
// protocol: five plain-text commands arrive on stdin, JSON events leave
// on stdout, one per line. Stdout belongs to the protocol alone; all
// logging goes to stderr.
package proto

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Command is one inbound control action.
type Command int

const (
	CmdUp Command = iota
	CmdDown
	CmdSelect
	CmdSelectHold
	CmdBack
)

var commandNames = [...]string{"up", "down", "select", "select_hold", "back"}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return fmt.Sprintf("command(%d)", int(c))
	}
	return commandNames[c]
}

// ParseCommand maps one input line onto a command. Matching is
// case-insensitive and whitespace-tolerant; anything unrecognized is a
// transport error the caller logs and drops, never a crash.
func ParseCommand(line string) (Command, error) {
	name := strings.ToLower(strings.TrimSpace(line))
	for i, n := range commandNames {
		if name == n {
			return Command(i), nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// Reader pumps commands from an input stream into a buffered channel
// the control loop drains between ticks.
type Reader struct {
	r   io.Reader
	ch  chan Command
	log *slog.Logger
}

// NewReader wraps r. Run must be started on its own goroutine.
func NewReader(r io.Reader, log *slog.Logger) *Reader {
	return &Reader{r: r, ch: make(chan Command, 64), log: log}
}

// Commands returns the channel Run feeds. It is closed when the input
// stream ends.
func (rd *Reader) Commands() <-chan Command { return rd.ch }

// Run consumes the stream line by line until EOF or a read error, then
// closes the command channel. Closure is the engine's shutdown signal:
// a closed stdin means the supervising app is gone.
func (rd *Reader) Run() {
	sc := bufio.NewScanner(rd.r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := ParseCommand(line)
		if err != nil {
			rd.log.Warn("ignoring unknown command", "line", line)
			continue
		}
		rd.ch <- cmd
	}
	if err := sc.Err(); err != nil {
		rd.log.Warn("command stream error", "error", err)
	}
	close(rd.ch)
}
