package commands

import (
	"io"

	"github.com/Cloud-Foundations/overlayroot/lib/log"
)

type CommandFunc func([]string, log.DebugLogger) error

type Command struct {
	Command string
	Args    string
	MinArgs int
	MaxArgs int
	CmdFunc CommandFunc
}

func PrintCommands(writer io.Writer, commands []Command) {
	printCommands(writer, commands)
}

// RunCommands will run the command named by args[0] with the remaining
// arguments. It returns the exit status: 0 on success, 1 if the command
// failed and 2 for usage errors.
func RunCommands(commands []Command, args []string, printUsage func(),
	output io.Writer, logger log.DebugLogger) int {
	return runCommands(commands, args, printUsage, output, logger)
}
