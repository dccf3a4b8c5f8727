package control

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/bryanchriswhite/screenagent/internal/config"
	"github.com/bryanchriswhite/screenagent/internal/logger"
)

// Commands understood on the control channel
const (
	CommandConfig = ".CONFIG"
	CommandQuit   = ".QUIT"
)

var (
	// ErrQuit is returned by Apply for the quit command
	ErrQuit = errors.New("quit requested")

	// ErrUnknownCommand is returned by Apply for unrecognized commands
	ErrUnknownCommand = errors.New("unknown command")
)

const maxLineSize = 1 << 20

// Command is one parsed control line
type Command struct {
	Name string
	Args string
}

// ParseLine splits a control line into its command token and the verbatim
// remainder after the first separating whitespace. It reports false for
// blank lines.
func ParseLine(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false
	}

	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return Command{Name: line}, true
	}
	return Command{Name: line[:i], Args: line[i+1:]}, true
}

// Apply executes cmd against the active configuration and returns the
// configuration to use from the next tick on. On any error the active
// configuration is returned unchanged.
func Apply(active config.AgentConfig, cmd Command) (config.AgentConfig, error) {
	switch cmd.Name {
	case CommandConfig:
		next, err := config.Parse(active, cmd.Args)
		if err != nil {
			return active, fmt.Errorf("rejected %s: %w", CommandConfig, err)
		}
		return next, nil
	case CommandQuit:
		return active, ErrQuit
	default:
		return active, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
}

// Lines streams lines read from r on the returned channel, which is closed
// when r reaches EOF or fails.
func Lines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			out <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.WithComponent("control").Error().Err(err).Msg("Control input failed")
		}
	}()
	return out
}
