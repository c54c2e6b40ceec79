package boot

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/Cloud-Foundations/overlayroot/lib/log/testlogger"
	"github.com/Cloud-Foundations/overlayroot/lib/logbuf"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/triggers"
)

const (
	rootLine = "PARTUUID=738a4d67-02  /      ext4    defaults,noatime  0       1\n"
	bootLine = "PARTUUID=738a4d67-01  /boot  vfat    defaults          0       2\n"
	rwLine   = "LABEL=root-rw         /rw    ext4    defaults,noatime  0       2\n"
)

type testReader map[uint]bool

func (r testReader) Asserted(line triggers.Line) (bool, error) {
	return r[line.Number] != line.ActiveLow, nil
}

func newMachine(fstab string) *sysops.Fake {
	ops := sysops.NewFake()
	ops.AddFilesystemDevice("/dev/mmcblk0p2", "ext4", map[string]string{
		"/etc/fstab": fstab,
		"/mnt/":      "",
		"/sbin/init": "",
	})
	ops.Tag("PARTUUID=738a4d67-02", "/dev/mmcblk0p2")
	ops.AddFile("/etc/fstab", fstab)
	ops.AddFile("/sbin/init", "")
	return ops
}

func newParams(t *testing.T, ops *sysops.Fake) Params {
	return Params{
		Config:    config.Default(),
		Ops:       ops,
		LogBuffer: logbuf.New(),
		Logger:    testlogger.New(t),
	}
}

func mountTypes(ops *sysops.Fake) map[string]string {
	targets := make(map[string]string)
	for _, mount := range ops.Mounts() {
		targets[mount.Target] = mount.Type
	}
	return targets
}

func pivoted(ops *sysops.Fake) bool {
	for _, call := range ops.Calls() {
		if strings.HasPrefix(call, "pivot ") {
			return true
		}
	}
	return false
}

func TestRootResolvesNoWritableEntry(t *testing.T) {
	ops := newMachine(bootLine + rootLine)
	params := newParams(t, ops)
	params.Config.Logging = config.LogLevelInfo
	report := Run(params)
	if report.Result.Handoff != outcome.HandoffNormal || !report.Switched {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if report.Outcome.Failures != 0 || report.Outcome.Warnings != 0 {
		t.Fatalf("unexpected outcome: %+v", report.Outcome)
	}
	if report.Exec.Path != "/sbin/init" {
		t.Errorf("exec: %s", report.Exec.Path)
	}
	targets := mountTypes(ops)
	if targets["/"] != "overlay" || targets["/ro"] != "ext4" ||
		targets["/rw"] != "tmpfs" || len(targets) != 3 {
		t.Errorf("unexpected mounts: %v", targets)
	}
	data, err := ops.ReadFile("/etc/fstab")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 4 || lines[0] != strings.TrimSuffix(bootLine, "\n") {
		t.Fatalf("unexpected fstab:\n%s", string(data))
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, "# ") {
			t.Errorf("expected comment: %s", line)
		}
	}
	if original, _ := ops.DeviceFile("/dev/mmcblk0p2", "/etc/fstab"); string(original) != bootLine+rootLine {
		t.Error("fstab on the read-only medium was modified")
	}
	log, err := ops.ReadFile("/var/log/overlayroot.log")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "[INFO:overlay] ") {
		t.Errorf("unexpected log:\n%s", string(log))
	}
	if strings.Count(string(log), "resolved to /dev/mmcblk0p2") != 1 {
		t.Errorf("log lines duplicated or missing:\n%s", string(log))
	}
}

func TestRootUnresolvedRunsOriginal(t *testing.T) {
	ops := newMachine("UUID=dead-beef / ext4 defaults 0 1\n")
	report := Run(newParams(t, ops))
	if report.Result.Handoff != outcome.HandoffRescue {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if report.Outcome.Failures != 1 {
		t.Errorf("unexpected outcome: %+v", report.Outcome)
	}
	if report.Exec.Path != "/sbin/init" {
		t.Errorf("exec: %s", report.Exec.Path)
	}
	targets := mountTypes(ops)
	if len(targets) != 3 || targets["/proc"] != "proc" ||
		targets["/mnt"] != "tmpfs" {
		t.Errorf("unexpected mounts: %v", targets)
	}
	if pivoted(ops) {
		t.Error("root switched despite failure")
	}
	log, err := ops.ReadFile("/mnt/var/log/overlayroot.log")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(log), "[FAIL:overlay] ") {
		t.Errorf("unexpected log:\n%s", string(log))
	}
}

func TestWritableMissingUsesTmpfs(t *testing.T) {
	ops := newMachine(rootLine + rwLine)
	report := Run(newParams(t, ops))
	if report.Result.Handoff != outcome.HandoffNormal {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if report.Outcome.Failures != 0 || report.Outcome.Warnings != 1 {
		t.Fatalf("unexpected outcome: %+v", report.Outcome)
	}
	if targets := mountTypes(ops); targets["/rw"] != "tmpfs" {
		t.Errorf("unexpected mounts: %v", targets)
	}
	if report.Rw != nil {
		t.Errorf("writable device resolved: %+v", *report.Rw)
	}
}

func TestWritableMissingPolicyFail(t *testing.T) {
	ops := newMachine(rootLine + rwLine)
	params := newParams(t, ops)
	params.Config.OnRwMediaNotFound = config.RwMediaFail
	params.Config.OnFail = config.OnFailConsole
	report := Run(params)
	if report.Result.Handoff != outcome.HandoffRescue {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if report.Exec.Path != "/bin/sh" {
		t.Errorf("exec: %s", report.Exec.Path)
	}
	if pivoted(ops) {
		t.Error("root switched despite failure")
	}
}

func TestWritableMediumRecovered(t *testing.T) {
	ops := newMachine(rootLine + rwLine)
	ops.AddDisk("/dev/sda",
		sysops.FakePartition{TypeID: 0x0c, FsType: "vfat"},
		sysops.FakePartition{TypeID: 0x83, FsType: "ext4"})
	report := Run(newParams(t, ops))
	if report.Result.Handoff != outcome.HandoffNormal {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if report.Outcome.Failures != 0 {
		t.Fatalf("unexpected outcome: %+v", report.Outcome)
	}
	if !ops.Called("partition /dev/sda") || !ops.Called("format /dev/sda1") {
		t.Errorf("medium not recovered: %v", ops.Calls())
	}
	if report.Rw == nil || report.Rw.Path != "/dev/sda1" {
		t.Fatalf("writable device: %v", report.Rw)
	}
	var found bool
	for _, mount := range ops.Mounts() {
		if mount.Target == "/rw" {
			found = true
			if mount.Source != "/dev/sda1" || mount.Type != "ext4" {
				t.Errorf("unexpected /rw mount: %+v", mount)
			}
		}
	}
	if !found {
		t.Error("/rw not mounted")
	}
}

func TestRecoveryFailureRescues(t *testing.T) {
	ops := newMachine(rootLine + rwLine)
	ops.AddDisk("/dev/sda", sysops.FakePartition{TypeID: 0x0c, FsType: "vfat"})
	ops.FailOn("format /dev/sda1", stderrors.New("mkfs.ext4 not found"))
	report := Run(newParams(t, ops))
	if report.Result.Handoff != outcome.HandoffRescue {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if report.Outcome.Failures != 1 {
		t.Errorf("unexpected outcome: %+v", report.Outcome)
	}
	if pivoted(ops) {
		t.Error("root switched after failed recovery")
	}
}

func TestValidMediumNotTouched(t *testing.T) {
	ops := newMachine(rootLine + rwLine)
	ops.AddDisk("/dev/sda", sysops.FakePartition{TypeID: 0x83, FsType: "ext4"})
	ops.Tag("LABEL=root-rw", "/dev/sda1")
	report := Run(newParams(t, ops))
	if report.Result.Handoff != outcome.HandoffNormal {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if ops.Called("partition /dev/sda") {
		t.Error("valid medium repartitioned")
	}
	if report.Outcome.Warnings != 0 {
		t.Errorf("unexpected outcome: %+v", report.Outcome)
	}
}

func TestSpecifierWinsOverHintedDisk(t *testing.T) {
	ops := newMachine(rootLine + rwLine)
	ops.AddDisk("/dev/sda",
		sysops.FakePartition{TypeID: 0x0c, FsType: "vfat"},
		sysops.FakePartition{TypeID: 0x83, FsType: "ext4"})
	ops.AddDisk("/dev/sdb", sysops.FakePartition{TypeID: 0x83, FsType: "ext4"})
	ops.Tag("LABEL=root-rw", "/dev/sdb1")
	report := Run(newParams(t, ops))
	if report.Result.Handoff != outcome.HandoffNormal {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if ops.Called("partition /dev/sda") || ops.Called("partition /dev/sdb") {
		t.Errorf("disk repartitioned: %v", ops.Calls())
	}
	if report.Rw == nil || report.Rw.Path != "/dev/sdb1" {
		t.Fatalf("writable device: %v", report.Rw)
	}
	if report.Outcome.Warnings != 0 || report.Outcome.Failures != 0 {
		t.Errorf("unexpected outcome: %+v", report.Outcome)
	}
}

func TestLinkedRootDiskNotRecovered(t *testing.T) {
	fstab := "/dev/disk/by-uuid/abcd / ext4 defaults 0 1\n" + rwLine
	ops := sysops.NewFake()
	ops.AddDisk("/dev/sda",
		sysops.FakePartition{TypeID: 0x0c, FsType: "vfat"},
		sysops.FakePartition{TypeID: 0x83, FsType: "ext4", Files: map[string]string{
			"/etc/fstab": fstab,
			"/mnt/":      "",
			"/sbin/init": "",
		}})
	ops.AddLink("/dev/disk/by-uuid/abcd", "/dev/sda2")
	ops.AddFile("/etc/fstab", fstab)
	ops.AddFile("/sbin/init", "")
	report := Run(newParams(t, ops))
	if report.Result.Handoff != outcome.HandoffNormal {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if ops.Called("partition /dev/sda") || ops.Called("format /dev/sda1") {
		t.Fatalf("root disk reinitialised: %v", ops.Calls())
	}
	if targets := mountTypes(ops); targets["/rw"] != "tmpfs" ||
		targets["/ro"] != "ext4" {
		t.Errorf("unexpected mounts: %v", targets)
	}
	if report.Rw != nil {
		t.Errorf("writable device resolved: %+v", *report.Rw)
	}
}

func TestRelocationFailureRunsShell(t *testing.T) {
	ops := newMachine(rootLine)
	ops.FailOn("move /mnt/mnt/lower /ro", stderrors.New("invalid argument"))
	params := newParams(t, ops)
	params.Config.OnFail = config.OnFailOriginal
	report := Run(params)
	if report.Result.Handoff != outcome.HandoffFatalAbort {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if report.Exec.Path != "/bin/sh" {
		t.Errorf("exec: %s, expected shell", report.Exec.Path)
	}
	if ops.Called("unmount /mnt") || ops.Called("unmount /mnt/proc") {
		t.Error("detached after failed relocation")
	}
	log, err := ops.ReadFile("/var/log/overlayroot.log")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "move lower to /ro") {
		t.Errorf("failure not logged:\n%s", string(log))
	}
}

func TestAssemblyFailureBlocksSwitch(t *testing.T) {
	ops := newMachine(rootLine)
	ops.FailOn("mount /mnt/lower", stderrors.New("bad superblock"))
	params := newParams(t, ops)
	params.Config.OnFail = config.OnFailConsole
	report := Run(params)
	if report.Result.Handoff != outcome.HandoffRescue || report.Switched {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if pivoted(ops) {
		t.Error("root switched despite failure")
	}
	if report.Exec.Path != "/bin/sh" {
		t.Errorf("exec: %s", report.Exec.Path)
	}
}

func TestTriggers(t *testing.T) {
	tests := []struct {
		disable, console string
		handoff          outcome.Handoff
		path             string
	}{
		{"4", "", outcome.HandoffNormal, "/sbin/init"},
		{"5", "4", outcome.HandoffConsole, "/bin/sh"},
		{"bogus", "", outcome.HandoffFatalAbort, "/bin/sh"},
	}
	for _, test := range tests {
		ops := newMachine(rootLine)
		params := newParams(t, ops)
		params.Config.DisableTrigger = test.disable
		params.Config.ConsoleTrigger = test.console
		params.Triggers = testReader{4: true}
		report := Run(params)
		if report.Result.Handoff != test.handoff ||
			report.Exec.Path != test.path {
			t.Errorf("disable=%s console=%s: %s, exec %s",
				test.disable, test.console, report.Result, report.Exec.Path)
		}
		if ops.Called("mount /proc") {
			t.Error("pipeline ran after trigger")
		}
	}
}

func TestTriggerNotAssertedContinues(t *testing.T) {
	ops := newMachine(rootLine)
	ops.AddPseudoFile("sysfs", "/class/gpio/gpio17/value", "0\n")
	params := newParams(t, ops)
	params.Config.DisableTrigger = "17"
	report := Run(params)
	if report.Result.Handoff != outcome.HandoffNormal || !report.Switched {
		t.Fatalf("unexpected result: %s", report.Result)
	}
	if !ops.Called("mount /sys") || !ops.Called("unmount /sys") {
		t.Errorf("sysfs not mounted for trigger: %v", ops.Calls())
	}
}
