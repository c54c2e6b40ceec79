// Package assembler mounts the read-only root, the writable layer and the
// overlay which combines them at the staging location.
package assembler

import (
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/resolver"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

// Layout holds the staging paths.
type Layout struct {
	Staging string `yaml:"staging"` // tmpfs holding the other staging paths.
	Lower   string `yaml:"lower"`
	Rw      string `yaml:"rw"`
	NewRoot string `yaml:"newroot"`
}

// Plan is the set of mounts for one boot attempt. Rw and Root are nil when
// there is nothing to mount.
type Plan struct {
	Rw      *sysops.MountPlan `yaml:"rw"`
	Root    *sysops.MountPlan `yaml:"root"`
	Overlay sysops.MountPlan  `yaml:"overlay"`
}

// Assembly describes a staged root.
type Assembly struct {
	Layout     Layout
	Plan       Plan
	RwIsTmpfs  bool
	StagedRoot string
}

// DefaultLayout returns the staging paths below /mnt.
func DefaultLayout() Layout {
	return newLayout("/mnt")
}

// NewLayout returns the staging paths below staging.
func NewLayout(staging string) Layout {
	return newLayout(staging)
}

// NewPlan builds the mounts for the root device and the writable device.
// Either may be nil. If rw is nil and policy is RwMediaTmpfs the writable
// layer is a tmpfs.
func NewPlan(layout Layout, root, rw *resolver.ResolvedDevice,
	policy config.RwMediaPolicy) Plan {
	return newPlan(layout, root, rw, policy)
}

// Assemble performs the mounts of the plan. Every step is attempted and
// every failure is recorded; whether to continue is decided by the caller
// from the returned Outcome.
func Assemble(ops sysops.SystemOps, layout Layout, root,
	rw *resolver.ResolvedDevice, policy config.RwMediaPolicy,
	reporter *outcome.Reporter) (*Assembly, outcome.Outcome) {
	return assemble(ops, layout, root, rw, policy, reporter)
}

// Prepare creates the /ro and /rw mount points inside the staged root and
// rewrites its copy of the boot table without the root entry. The table on
// the read-only medium is not modified. Problems are recorded as warnings.
func Prepare(ops sysops.SystemOps, assembly *Assembly,
	reporter *outcome.Reporter) outcome.Outcome {
	return prepare(ops, assembly, reporter)
}

// FstabComments are the lines appended to the rewritten boot table.
var FstabComments = []string{
	"overlayroot: the / entry was removed, / is an overlay assembled at boot",
	"overlayroot: the read-only root is mounted on /ro, the writable layer on /rw",
	"overlayroot: the original table is available at /ro/etc/fstab",
}
