package outcome

import (
	"fmt"
)

const (
	levelFail = "FAIL"
	levelInfo = "INFO"
)

var handoffNames = []string{"normal", "console", "rescue", "fatal-abort"}

func (o *Outcome) merge(other Outcome) {
	o.Failures += other.Failures
	o.Warnings += other.Warnings
	o.Errors = append(o.Errors, other.Errors...)
}

func (o Outcome) copy() Outcome {
	o.Errors = append([]error(nil), o.Errors...)
	return o
}

func (h Handoff) string() string {
	if h < Handoff(len(handoffNames)) {
		return handoffNames[h]
	}
	return fmt.Sprintf("UNKNOWN(%d)", h)
}

func (r Result) string() string {
	if !r.Terminate {
		return "continue"
	}
	if r.Reason == "" {
		return "terminate: " + r.Handoff.String()
	}
	return "terminate: " + r.Handoff.String() + ": " + r.Reason
}

func (r *Reporter) log(level, message string) {
	r.logger.Printf("[%s:overlay] %s\n", level, message)
}

func (r *Reporter) info(v ...interface{}) {
	if r.verbose {
		r.log(levelInfo, fmt.Sprint(v...))
	}
}

func (r *Reporter) infof(format string, v ...interface{}) {
	if r.verbose {
		r.log(levelInfo, fmt.Sprintf(format, v...))
	}
}

func (rec *Recorder) fail(err error) {
	rec.reporter.log(levelFail, err.Error())
	rec.outcome.Failures++
	rec.outcome.Errors = append(rec.outcome.Errors, err)
}

func (rec *Recorder) warn(err error) {
	rec.reporter.log(levelFail, err.Error())
	rec.outcome.Warnings++
	rec.outcome.Errors = append(rec.outcome.Errors, err)
}
