// Package outcome carries the failure and warning tallies of one boot
// attempt and the terminal decision derived from them.
package outcome

import (
	"github.com/Cloud-Foundations/overlayroot/lib/log"
)

// Outcome is the tally produced by a component. Outcomes are merged by the
// caller; nothing reads a component's partial results except through one.
type Outcome struct {
	Failures uint
	Warnings uint
	Errors   []error // Every recorded failure and warning, in order.
}

type Handoff uint

const (
	HandoffNormal     Handoff = iota // Exec the normal startup process.
	HandoffConsole                   // Exec the rescue shell on request.
	HandoffRescue                    // Apply the ON_FAIL policy.
	HandoffFatalAbort                // Exec the rescue shell, whatever ON_FAIL says.
)

// Result is either Continue (Terminate is false) or Terminate with a handoff.
type Result struct {
	Terminate bool
	Handoff   Handoff
	Reason    string
}

// Reporter formats recorded events as "[LEVEL:overlay] message" lines.
type Reporter struct {
	logger  log.Logger
	verbose bool
}

// Recorder accumulates the Outcome of one component call.
type Recorder struct {
	reporter *Reporter
	outcome  Outcome
}

// Continue returns the Result which lets the pipeline proceed.
func Continue() Result {
	return Result{}
}

// Terminate returns a Result which ends the pipeline with handoff.
func Terminate(handoff Handoff, reason string) Result {
	return Result{Terminate: true, Handoff: handoff, Reason: reason}
}

// Merge adds the counts and errors of other to o.
func (o *Outcome) Merge(other Outcome) {
	o.merge(other)
}

// Failed returns true if any failure was recorded.
func (o Outcome) Failed() bool {
	return o.Failures > 0
}

func (h Handoff) String() string {
	return h.string()
}

func (h Handoff) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (r Result) String() string {
	return r.string()
}

// NewReporter creates a Reporter writing to logger. Informational events are
// dropped unless verbose is true; failures and warnings are always logged.
func NewReporter(logger log.Logger, verbose bool) *Reporter {
	return &Reporter{logger: logger, verbose: verbose}
}

// Begin starts a new, empty Outcome.
func (r *Reporter) Begin() *Recorder {
	return &Recorder{reporter: r}
}

// Fail logs err with the FAIL level and counts a failure.
func (rec *Recorder) Fail(err error) {
	rec.fail(err)
}

// Warn logs err with the FAIL level and counts a warning.
func (rec *Recorder) Warn(err error) {
	rec.warn(err)
}

func (rec *Recorder) Info(v ...interface{}) {
	rec.reporter.info(v...)
}

func (rec *Recorder) Infof(format string, v ...interface{}) {
	rec.reporter.infof(format, v...)
}

// Merge folds a sub-component's Outcome into the one being recorded.
func (rec *Recorder) Merge(other Outcome) {
	rec.outcome.merge(other)
}

// Outcome returns a copy of the tally recorded so far.
func (rec *Recorder) Outcome() Outcome {
	return rec.outcome.copy()
}
