package storage

import (
	"strconv"
	"strings"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/errors"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

var statusNames = []string{"invalid", "valid", "recovered"}

func (s Status) string() string {
	if s < Status(len(statusNames)) {
		return statusNames[s]
	}
	return "UNKNOWN(" + strconv.FormatUint(uint64(s), 10) + ")"
}

func findCandidate(ops sysops.SystemOps, hints []string, rootDisk string,
	firstWait, nextWait time.Duration) (string, bool) {
	wait := firstWait
	for _, hint := range hints {
		if rootDisk != "" && holds(hint, rootDisk) {
			continue
		}
		present := ops.AwaitDevice(hint, wait)
		wait = nextWait
		if !present {
			continue
		}
		device, err := ops.InspectDevice(hint)
		if err != nil {
			continue
		}
		if rootDisk == "" || !holds(device.Disk, rootDisk) {
			return hint, true
		}
	}
	return "", false
}

func holds(disk, device string) bool {
	if device == disk {
		return true
	}
	if !strings.HasPrefix(device, disk) {
		return false
	}
	suffix := strings.TrimPrefix(device[len(disk):], "p")
	if suffix == "" {
		return false
	}
	for _, ch := range suffix {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func (p Policy) matches(layout *sysops.PartitionLayout) bool {
	return layout != nil && layout.Count == 1 && layout.LastFsType == p.FsType
}

func describe(layout *sysops.PartitionLayout) string {
	if layout.Count == 0 {
		return "nothing"
	}
	if layout.LastFsType == "" {
		return "unformatted"
	}
	return layout.LastFsType
}

func ensureSinglePartition(ops sysops.SystemOps, device string, policy Policy,
	reporter *outcome.Reporter) (Status, outcome.Outcome) {
	rec := reporter.Begin()
	layout, err := ops.ReadPartitionLayout(device)
	if err != nil {
		rec.Fail(errors.NewFormatError(device, "inspecting", err))
		return StatusInvalid, rec.Outcome()
	}
	if policy.matches(layout) {
		rec.Infof("%s has one %s partition", device, policy.FsType)
		return StatusValid, rec.Outcome()
	}
	rec.Warn(errors.NewPartitionMismatchError(device, int(layout.Count),
		describe(layout), policy.FsType))
	if !policy.AllowReformat {
		return StatusInvalid, rec.Outcome()
	}
	_, o := recoverWritableMedium(ops, device, policy, reporter)
	rec.Merge(o)
	if o.Failed() {
		return StatusInvalid, rec.Outcome()
	}
	layout, err = ops.ReadPartitionLayout(device)
	if err != nil {
		rec.Fail(errors.NewFormatError(device, "inspecting", err))
		return StatusInvalid, rec.Outcome()
	}
	if !policy.matches(layout) {
		rec.Fail(errors.NewPartitionMismatchError(device, int(layout.Count),
			describe(layout), policy.FsType))
		return StatusInvalid, rec.Outcome()
	}
	return StatusRecovered, rec.Outcome()
}

func recoverWritableMedium(ops sysops.SystemOps, device string, policy Policy,
	reporter *outcome.Reporter) (string, outcome.Outcome) {
	rec := reporter.Begin()
	rec.Infof("reinitialising %s with one %s partition",
		device, policy.FsType)
	partition, err := ops.Partition(device, policy.TypeID)
	if err != nil {
		rec.Fail(errors.NewFormatError(device, "partitioning", err))
		return "", rec.Outcome()
	}
	if err := ops.Format(partition, policy.FsType, policy.Label); err != nil {
		rec.Fail(errors.NewFormatError(partition, "formatting", err))
		return "", rec.Outcome()
	}
	rec.Infof("formatted %s as %s label=\"%s\"",
		partition, policy.FsType, policy.Label)
	return partition, rec.Outcome()
}
