// Package boot runs one boot attempt: triggers, device resolution, writable
// medium validation, assembly, the gate and the root switch. It never
// replaces the process image; the Report says what to execute.
package boot

import (
	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"github.com/Cloud-Foundations/overlayroot/lib/logbuf"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/assembler"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/failure"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/resolver"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/triggers"
)

type Params struct {
	Config    *config.Config
	Ops       sysops.SystemOps
	LogBuffer *logbuf.LogBuffer // Receives the event log.
	Logger    log.DebugLogger
	Triggers  triggers.Reader // Default: sysfs GPIO lines.
	Layout    assembler.Layout
	FstabFile string // Default: /etc/fstab.
	ProcDir   string // Default: /proc.
	SysfsDir  string // Default: /sys.
}

// Report is the result of a boot attempt.
type Report struct {
	Result   outcome.Result
	Outcome  outcome.Outcome
	Exec     failure.Exec
	Root     *resolver.ResolvedDevice
	Rw       *resolver.ResolvedDevice
	Assembly *assembler.Assembly
	Switched bool // The commit step succeeded.
}

// Run performs a boot attempt. It always returns a terminal Report.
func Run(params Params) *Report {
	return run(params)
}
