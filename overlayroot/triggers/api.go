// Package triggers reads the hardware lines which can bypass the overlay
// (disable) or request the rescue shell (console).
package triggers

import (
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

// Line is a GPIO line, written "N" or, if active low, "!N".
type Line struct {
	Number    uint
	ActiveLow bool
}

type Reader interface {
	Asserted(line Line) (bool, error)
}

// SysfsReader reads lines through the legacy sysfs GPIO interface.
type SysfsReader struct {
	ops      sysops.SystemOps
	sysfsDir string
}

func ParseLine(identifier string) (Line, error) {
	return parseLine(identifier)
}

// NewSysfsReader creates a SysfsReader for sysfs mounted at sysfsDir.
func NewSysfsReader(ops sysops.SystemOps, sysfsDir string) *SysfsReader {
	return &SysfsReader{ops: ops, sysfsDir: sysfsDir}
}

// Asserted exports the line if required and reads its value.
func (r *SysfsReader) Asserted(line Line) (bool, error) {
	return r.asserted(line)
}

// Check evaluates the disable trigger, then the console trigger. Empty
// identifiers are not checked. An asserted disable trigger yields
// HandoffNormal and an asserted console trigger HandoffConsole. A trigger
// which cannot be parsed or read yields HandoffFatalAbort. Otherwise the
// Result is Continue.
func Check(reader Reader, disable, console string,
	reporter *outcome.Reporter) (outcome.Result, outcome.Outcome) {
	return check(reader, disable, console, reporter)
}

func (l Line) String() string {
	return l.string()
}
