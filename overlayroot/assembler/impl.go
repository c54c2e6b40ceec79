package assembler

import (
	"errors"
	"fmt"
	"path"

	liberrors "github.com/Cloud-Foundations/overlayroot/lib/errors"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/resolver"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

var errNoWritableMedium = errors.New("writable medium not found and ON_RW_MEDIA_NOT_FOUND=fail")

func newLayout(staging string) Layout {
	return Layout{
		Staging: staging,
		Lower:   path.Join(staging, "lower"),
		Rw:      path.Join(staging, "rw"),
		NewRoot: path.Join(staging, "newroot"),
	}
}

func newPlan(layout Layout, root, rw *resolver.ResolvedDevice,
	policy config.RwMediaPolicy) Plan {
	var plan Plan
	if rw != nil {
		plan.Rw = &sysops.MountPlan{
			Source:  rw.Path,
			Target:  layout.Rw,
			Type:    rw.Type,
			Options: rw.Options,
		}
	} else if policy == config.RwMediaTmpfs {
		plan.Rw = &sysops.MountPlan{
			Source: "tmpfs",
			Target: layout.Rw,
			Type:   "tmpfs",
		}
	}
	if root != nil {
		plan.Root = &sysops.MountPlan{
			Source:   root.Path,
			Target:   layout.Lower,
			Type:     root.Type,
			Options:  root.Options,
			ReadOnly: true,
		}
	}
	options := fmt.Sprintf("lowerdir=%s,upperdir=%s,workdir=%s",
		layout.Lower, path.Join(layout.Rw, "upper"),
		path.Join(layout.Rw, "work"))
	plan.Overlay = sysops.MountPlan{
		Source:  "overlay",
		Target:  layout.NewRoot,
		Type:    "overlay",
		Options: options,
	}
	return plan
}

func mount(ops sysops.SystemOps, plan sysops.MountPlan,
	rec *outcome.Recorder) bool {
	if err := ops.MakeDir(plan.Target); err != nil {
		rec.Fail(liberrors.NewMountError(plan.Source, plan.Target, plan.Type,
			err))
		return false
	}
	if err := ops.Mount(plan); err != nil {
		rec.Fail(liberrors.NewMountError(plan.Source, plan.Target, plan.Type,
			err))
		return false
	}
	rec.Infof("mounted %s", plan)
	return true
}

func assemble(ops sysops.SystemOps, layout Layout, root,
	rw *resolver.ResolvedDevice, policy config.RwMediaPolicy,
	reporter *outcome.Reporter) (*Assembly, outcome.Outcome) {
	rec := reporter.Begin()
	if rw != nil && !ops.Exists(rw.Path) {
		rec.Warn(liberrors.NewDeviceAbsentError(rw.Path, ""))
		rw = nil
	}
	if root != nil && !ops.Exists(root.Path) {
		rec.Fail(liberrors.NewDeviceAbsentError(root.Path, ""))
		root = nil
	}
	plan := newPlan(layout, root, rw, policy)
	assembly := &Assembly{
		Layout:     layout,
		Plan:       plan,
		RwIsTmpfs:  rw == nil && plan.Rw != nil,
		StagedRoot: layout.NewRoot,
	}
	// Step 1: writable layer.
	if plan.Rw == nil {
		rec.Fail(errNoWritableMedium)
	} else {
		if assembly.RwIsTmpfs {
			rec.Info("using tmpfs for the writable layer")
		}
		mount(ops, *plan.Rw, rec)
	}
	// Step 2: read-only root.
	if plan.Root == nil {
		rec.Fail(errors.New("no root device to mount"))
	} else {
		mount(ops, *plan.Root, rec)
	}
	// Step 3: overlay backing store.
	for _, name := range []string{"upper", "work"} {
		dirname := path.Join(layout.Rw, name)
		if err := ops.MakeDir(dirname); err != nil {
			rec.Fail(fmt.Errorf("error creating %s: %s", dirname, err))
		}
	}
	// Step 4: overlay.
	mount(ops, plan.Overlay, rec)
	return assembly, rec.Outcome()
}

func prepare(ops sysops.SystemOps, assembly *Assembly,
	reporter *outcome.Reporter) outcome.Outcome {
	rec := reporter.Begin()
	for _, name := range []string{"ro", "rw"} {
		dirname := path.Join(assembly.StagedRoot, name)
		if err := ops.MakeDir(dirname); err != nil {
			rec.Warn(fmt.Errorf("error creating %s: %s", dirname, err))
		}
	}
	filename := path.Join(assembly.StagedRoot, "etc", "fstab")
	data, err := ops.ReadFile(filename)
	if err != nil {
		rec.Warn(fmt.Errorf("error reading %s: %s", filename, err))
		return rec.Outcome()
	}
	table, err := fstab.Parse(data)
	if err != nil {
		rec.Warn(fmt.Errorf("error parsing %s: %s", filename, err))
		return rec.Outcome()
	}
	if table.Lookup("/") == nil {
		rec.Info("no root entry in fstab, leaving it unchanged")
		return rec.Outcome()
	}
	err = ops.WriteFile(filename, table.Without("/", FstabComments...))
	if err != nil {
		rec.Warn(fmt.Errorf("error writing %s: %s", filename, err))
		return rec.Outcome()
	}
	rec.Infof("removed root entry from %s", filename)
	return rec.Outcome()
}
