// Package failure holds the single gate which decides whether the pipeline
// may proceed to irreversible actions, and the mapping from terminal results
// to the program which replaces the boot process.
package failure

import (
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
)

// Exec is a process image replacement to perform.
type Exec struct {
	Path string
	Argv []string
}

// Gate returns Continue if no failure was recorded in o, otherwise a
// Terminate with HandoffRescue. It has no side effects.
func Gate(o outcome.Outcome) outcome.Result {
	return gate(o)
}

// Action maps a terminal Result to the program to run. A Result which is
// not terminal maps to the startup process.
func Action(result outcome.Result, c *config.Config) Exec {
	return action(result, c)
}
