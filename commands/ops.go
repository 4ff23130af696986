package commands

import (
	"strings"

	"github.com/pkg/errors"
)

type Operation int

const (
	DEFAULT Operation = iota
	// Start mining, infinite loop until explicit cancel.
	START
	// Restart mining on a fresh block template.
	RESTART
	// Stop mining completely.
	STOP
	// Print miner statistics.
	STATUS
)

// A command contains a operation and many arguments.
type Command struct {
	Op   Operation
	Args []string
}

func (c Command) IsValid() bool {
	switch c.Op {
	case START, RESTART, STOP, STATUS:
		return len(c.Args) == 0
	default:
		return false
	}
}

// Interrupts reports whether the command should abort a running search.
func (c Command) Interrupts() bool {
	return c.Op == STOP || c.Op == RESTART
}

// From string, create
func CreateCommand(s string) (Command, error) {
	// split command by space.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return Command{}, errors.New("command is empty")
	}
	cmd := Command{}
	switch ss[0] {
	case "start":
		cmd.Op = START
	case "restart":
		cmd.Op = RESTART
	case "stop":
		cmd.Op = STOP
	case "status":
		cmd.Op = STATUS
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return Command{}, errors.New("invalid command")
	}
	return cmd, nil
}

// Create a brand new command with default operation.
func NewDefaultCommand() Command {
	return Command{
		Op: DEFAULT,
	}
}

func (c Command) IsDefault() bool {
	return c.Op == DEFAULT
}

func (c Command) String() string {
	switch c.Op {
	case START:
		return "start"
	case RESTART:
		return "restart"
	case STOP:
		return "stop"
	case STATUS:
		return "status"
	default:
		return "default"
	}
}
