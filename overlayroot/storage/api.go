// Package storage validates the writable medium and, when policy allows,
// reinitialises it.
package storage

import (
	"time"

	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

type Policy struct {
	FsType        string // Expected file-system of the only partition.
	TypeID        uint8  // Partition type written by recovery.
	Label         string // Label given to a reformatted file-system.
	AllowReformat bool
}

// Status is the state of a medium after EnsureSinglePartition.
type Status uint

const (
	StatusInvalid   Status = iota // Unusable; possibly partly reinitialised.
	StatusValid                   // Already had the expected layout.
	StatusRecovered               // Reinitialised; all data are gone.
)

// FindCandidate waits for the hinted raw devices in turn, the first for
// firstWait and the others for nextWait, and returns the first one present.
// rootDisk must be the canonical whole disk holding the root (see
// sysops.SystemOps.InspectDevice); a hint which is, or whose disk is, the
// root disk is skipped. The caller decides whether a candidate may be used.
func FindCandidate(ops sysops.SystemOps, hints []string, rootDisk string,
	firstWait, nextWait time.Duration) (string, bool) {
	return findCandidate(ops, hints, rootDisk, firstWait, nextWait)
}

// Holds returns true if device is disk or one of its partitions. Only names
// are compared, so both must be canonical device nodes.
func Holds(disk, device string) bool {
	return holds(disk, device)
}

// Matches returns true if layout has exactly one partition carrying the
// expected file-system.
func (p Policy) Matches(layout *sysops.PartitionLayout) bool {
	return p.matches(layout)
}

// EnsureSinglePartition inspects the raw device. If it does not have exactly
// one partition of the expected file-system it is reinitialised with
//
// RecoverWritableMedium, provided policy allows. Only StatusValid and
// StatusRecovered leave the device with the expected layout.
func EnsureSinglePartition(ops sysops.SystemOps, device string, policy Policy,
	reporter *outcome.Reporter) (Status, outcome.Outcome) {
	return ensureSinglePartition(ops, device, policy, reporter)
}

func (s Status) String() string {
	return s.string()
}

// RecoverWritableMedium wipes the partition table of device, creates one
// primary partition spanning it and formats that partition. All data on the
// device are lost. It returns the partition device path.
func RecoverWritableMedium(ops sysops.SystemOps, device string, policy Policy,
	reporter *outcome.Reporter) (string, outcome.Outcome) {
	return recoverWritableMedium(ops, device, policy, reporter)
}
