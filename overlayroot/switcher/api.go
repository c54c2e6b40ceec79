// Package switcher moves the staged overlay to the root. The sequence is a
// list of steps: checks which may still abort into the ordinary rescue path,
// one commit step (pivot_root) and relocations and detaches which run inside
// the new root.
package switcher

import (
	"github.com/Cloud-Foundations/overlayroot/overlayroot/assembler"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

type Phase uint

const (
	PreCommit  Phase = iota // Failure aborts with HandoffRescue.
	Commit                  // The point of no return; failure still rescues.
	PostCommit              // Failure of a Required step is a FatalAbort.
)

type Step struct {
	Name     string                       `yaml:"name"`
	Phase    Phase                        `yaml:"phase"`
	Required bool                         `yaml:"required,omitempty"`
	Action   func(sysops.SystemOps) error `yaml:"-"`
}

type Options struct {
	Layout  assembler.Layout
	Init    string // Startup process, as seen from the new root.
	ProcDir string // Pseudo file-system mounted for the boot process.
	PutOld  string // Where the old root goes, relative to the new root.
}

// NewSteps returns the switch sequence for options.
func NewSteps(options Options) []Step {
	return newSteps(options)
}

// Run performs steps in order. On success the Result is Terminate with
// HandoffNormal: the caller must then replace the process image with the
// startup process, which must be the last thing done.
func Run(ops sysops.SystemOps, steps []Step,
	reporter *outcome.Reporter) (outcome.Result, outcome.Outcome) {
	return run(ops, steps, reporter)
}

// Switch is shorthand for Run(ops, NewSteps(options), reporter).
func Switch(ops sysops.SystemOps, options Options,
	reporter *outcome.Reporter) (outcome.Result, outcome.Outcome) {
	return run(ops, newSteps(options), reporter)
}

func (p Phase) String() string {
	return p.string()
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
