package switcher

import (
	stderrors "errors"
	"testing"

	"github.com/Cloud-Foundations/overlayroot/lib/errors"
	"github.com/Cloud-Foundations/overlayroot/lib/log/testlogger"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/assembler"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/resolver"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

var testOptions = Options{
	Layout:  assembler.DefaultLayout(),
	Init:    "/sbin/init",
	ProcDir: "/proc",
	PutOld:  "mnt",
}

// stage builds a staged root the way the boot sequence does.
func stage(t *testing.T, files map[string]string) *sysops.Fake {
	ops := sysops.NewFake()
	ops.AddFilesystemDevice("/dev/mmcblk0p2", "ext4", files)
	reporter := outcome.NewReporter(testlogger.New(t), false)
	for _, plan := range []sysops.MountPlan{
		{Source: "proc", Target: "/proc", Type: "proc"},
		{Source: "tmpfs", Target: "/mnt", Type: "tmpfs"},
	} {
		if err := ops.Mount(plan); err != nil {
			t.Fatal(err)
		}
	}
	root := &resolver.ResolvedDevice{Path: "/dev/mmcblk0p2", Type: "ext4"}
	assembly, o := assembler.Assemble(ops, testOptions.Layout, root, nil,
		config.RwMediaTmpfs, reporter)
	if o.Failed() {
		t.Fatalf("assembly failed: %+v", o)
	}
	if o := assembler.Prepare(ops, assembly, reporter); o.Warnings > 0 {
		t.Fatalf("prepare: %+v", o)
	}
	return ops
}

var testFiles = map[string]string{
	"/etc/fstab": "/dev/mmcblk0p2 / ext4 defaults 0 1\n",
	"/sbin/init": "",
}

func TestSwitch(t *testing.T) {
	ops := stage(t, testFiles)
	result, o := Switch(ops, testOptions,
		outcome.NewReporter(testlogger.New(t), true))
	if !result.Terminate || result.Handoff != outcome.HandoffNormal {
		t.Fatalf("unexpected result: %s", result)
	}
	if o.Failures != 0 || o.Warnings != 0 {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	pivot := ops.CallIndex("pivot /mnt/newroot /mnt/newroot/mnt")
	moveRo := ops.CallIndex("move /mnt/mnt/lower /ro")
	moveRw := ops.CallIndex("move /mnt/mnt/rw /rw")
	detachStaging := ops.CallIndex("unmount /mnt/mnt")
	detachProc := ops.CallIndex("unmount /mnt/proc")
	detachOld := ops.CallIndex("unmount /mnt")
	if pivot < 0 || moveRo < pivot || moveRw < moveRo ||
		detachStaging < moveRw || detachProc < moveRw || detachOld < moveRw {
		t.Fatalf("unexpected order: %v", ops.Calls())
	}
	targets := make(map[string]string)
	for _, mount := range ops.Mounts() {
		targets[mount.Target] = mount.Type
	}
	expected := map[string]string{"/": "overlay", "/ro": "ext4", "/rw": "tmpfs"}
	if len(targets) != len(expected) {
		t.Fatalf("unexpected mounts: %v", targets)
	}
	for target, fsType := range expected {
		if targets[target] != fsType {
			t.Errorf("%s: type=%s, expected %s", target, targets[target], fsType)
		}
	}
	if !ops.Exists("/ro/etc/fstab") || !ops.Exists("/sbin/init") {
		t.Error("files not visible after switch")
	}
}

func TestMissingInitRescues(t *testing.T) {
	ops := stage(t, map[string]string{"/etc/fstab": ""})
	result, o := Switch(ops, testOptions,
		outcome.NewReporter(testlogger.New(t), false))
	if result.Handoff != outcome.HandoffRescue || o.Failures != 1 {
		t.Fatalf("result=%s outcome=%+v", result, o)
	}
	for _, call := range ops.Calls() {
		if len(call) >= 5 && call[:5] == "pivot" {
			t.Fatal("pivot attempted without startup process")
		}
	}
}

func TestPivotFailureRescues(t *testing.T) {
	ops := stage(t, testFiles)
	ops.FailOn("pivot /mnt/newroot /mnt/newroot/mnt",
		stderrors.New("invalid argument"))
	result, _ := Switch(ops, testOptions,
		outcome.NewReporter(testlogger.New(t), false))
	if result.Handoff != outcome.HandoffRescue {
		t.Errorf("unexpected result: %s", result)
	}
}

func TestRelocationFailureIsFatal(t *testing.T) {
	for _, call := range []string{
		"move /mnt/mnt/lower /ro",
		"move /mnt/mnt/rw /rw",
	} {
		ops := stage(t, testFiles)
		ops.FailOn(call, stderrors.New("no such file or directory"))
		result, o := Switch(ops, testOptions,
			outcome.NewReporter(testlogger.New(t), false))
		if result.Handoff != outcome.HandoffFatalAbort {
			t.Errorf("%s: unexpected result: %s", call, result)
			continue
		}
		var relocation *errors.RelocationError
		if !stderrors.As(o.Errors[len(o.Errors)-1], &relocation) {
			t.Errorf("%s: unexpected error: %v", call, o.Errors)
		}
		for _, detach := range []string{"unmount /mnt/mnt", "unmount /mnt"} {
			if ops.Called(detach) {
				t.Errorf("%s: %s after failed relocation", call, detach)
			}
		}
	}
}

func TestDetachFailureIsWarning(t *testing.T) {
	ops := stage(t, testFiles)
	ops.FailOn("unmount /mnt/proc", stderrors.New("busy"))
	result, o := Switch(ops, testOptions,
		outcome.NewReporter(testlogger.New(t), false))
	if result.Handoff != outcome.HandoffNormal {
		t.Fatalf("unexpected result: %s", result)
	}
	if o.Failures != 0 || o.Warnings != 1 {
		t.Errorf("unexpected outcome: %+v", o)
	}
	if !ops.Called("unmount /mnt") {
		t.Error("old root not detached after warning")
	}
}
