package boot

import (
	"bytes"
	"fmt"
	stdlog "log"
	"path"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/mbr"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/assembler"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/failure"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/resolver"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/storage"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/switcher"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/triggers"
)

const hintWait = 2 * time.Second

type booter struct {
	Params
	reporter       *outcome.Reporter
	total          outcome.Outcome
	report         *Report
	stagingMounted bool
	newRootLines   int // Event log lines already in the new root.
}

func run(params Params) *Report {
	if params.FstabFile == "" {
		params.FstabFile = "/etc/fstab"
	}
	if params.ProcDir == "" {
		params.ProcDir = "/proc"
	}
	if params.SysfsDir == "" {
		params.SysfsDir = "/sys"
	}
	if params.Layout.Staging == "" {
		params.Layout = assembler.DefaultLayout()
	}
	b := &booter{
		Params: params,
		reporter: outcome.NewReporter(stdlog.New(params.LogBuffer, "", 0),
			params.Config.Logging == config.LogLevelInfo),
		report: &Report{},
	}
	return b.run()
}

func (b *booter) run() *Report {
	if result := b.checkTriggers(); result.Terminate {
		return b.finish(result)
	}
	b.mountBootFilesystems()
	table := b.readTable()
	b.report.Root = b.resolveRoot(table)
	if b.report.Root == nil {
		return b.finish(failure.Gate(b.total))
	}
	b.report.Rw = b.resolveWritable(table)
	assembly, o := assembler.Assemble(b.Ops, b.Layout, b.report.Root,
		b.report.Rw, b.Config.OnRwMediaNotFound, b.reporter)
	b.total.Merge(o)
	b.report.Assembly = assembly
	if result := failure.Gate(b.total); result.Terminate {
		return b.finish(result)
	}
	b.total.Merge(assembler.Prepare(b.Ops, assembly, b.reporter))
	b.newRootLines = b.appendLog(
		path.Join(assembly.StagedRoot, b.Config.LogFile), 0)
	result, o := switcher.Switch(b.Ops, switcher.Options{
		Layout:  b.Layout,
		Init:    b.Config.Init,
		ProcDir: b.ProcDir,
		PutOld:  "mnt",
	}, b.reporter)
	b.total.Merge(o)
	b.report.Switched = result.Handoff != outcome.HandoffRescue
	return b.finish(result)
}

func (b *booter) checkTriggers() outcome.Result {
	if b.Config.DisableTrigger == "" && b.Config.ConsoleTrigger == "" {
		return outcome.Continue()
	}
	reader := b.Triggers
	var sysfsMounted bool
	if reader == nil {
		err := b.Ops.Mount(sysops.MountPlan{
			Source: "sysfs",
			Target: b.SysfsDir,
			Type:   "sysfs",
		})
		if err != nil {
			b.Logger.Printf("error mounting %s: %s\n", b.SysfsDir, err)
		} else {
			sysfsMounted = true
		}
		reader = triggers.NewSysfsReader(b.Ops, b.SysfsDir)
	}
	result, o := triggers.Check(reader, b.Config.DisableTrigger,
		b.Config.ConsoleTrigger, b.reporter)
	b.total.Merge(o)
	if sysfsMounted {
		if err := b.Ops.Unmount(b.SysfsDir, true); err != nil {
			b.Logger.Printf("error unmounting %s: %s\n", b.SysfsDir, err)
		}
	}
	return result
}

func (b *booter) mountBootFilesystems() {
	rec := b.reporter.Begin()
	for _, plan := range []sysops.MountPlan{
		{Source: "proc", Target: b.ProcDir, Type: "proc"},
		{Source: "tmpfs", Target: b.Layout.Staging, Type: "tmpfs",
			Options: "mode=0755"},
	} {
		if err := b.Ops.Mount(plan); err != nil {
			rec.Fail(fmt.Errorf("error mounting %s: %s", plan, err))
		} else if plan.Target == b.Layout.Staging {
			b.stagingMounted = true
		}
	}
	b.total.Merge(rec.Outcome())
}

func (b *booter) readTable() *fstab.Table {
	rec := b.reporter.Begin()
	defer func() { b.total.Merge(rec.Outcome()) }()
	data, err := b.Ops.ReadFile(b.FstabFile)
	if err != nil {
		rec.Warn(fmt.Errorf("error reading %s: %s", b.FstabFile, err))
		return &fstab.Table{}
	}
	table, err := fstab.Parse(data)
	if err != nil {
		rec.Warn(fmt.Errorf("error parsing %s: %s", b.FstabFile, err))
		return &fstab.Table{}
	}
	return table
}

func parseFallback(specifier string) fstab.Specifier {
	spec, err := fstab.ParseSpecifier(specifier)
	if err != nil {
		return fstab.Specifier{}
	}
	return spec
}

func (b *booter) resolveRoot(table *fstab.Table) *resolver.ResolvedDevice {
	request := resolver.EntryRequest("root", table.Lookup("/"),
		parseFallback(b.Config.SecondaryRootResolution), "ext4",
		b.Config.RootWait)
	root, o := resolver.Resolve(b.Ops, request, b.reporter)
	b.total.Merge(o)
	return root
}

// recoveryLabel returns the label a reinitialised medium should carry so
// that the next boot finds it by specifier.
func recoveryLabel(entry *fstab.Entry, fallback fstab.Specifier) string {
	if entry != nil && entry.Source.Kind == fstab.KindLabel {
		return entry.Source.Value
	}
	if fallback.Kind == fstab.KindLabel {
		return fallback.Value
	}
	return ""
}

// rootDisk returns the canonical whole disk holding the root device, or ""
// if it cannot be determined.
func (b *booter) rootDisk(rec *outcome.Recorder) string {
	device, err := b.Ops.InspectDevice(b.report.Root.Path)
	if err != nil {
		rec.Infof("cannot inspect root device %s: %s", b.report.Root.Path, err)
		return ""
	}
	return device.Disk
}

// resolveWritable resolves the writable device by specifier. The hinted raw
// devices pace the wait and are only considered for reinitialisation when
// neither specifier names a file-system. A disk holding the root is never
// validated.
func (b *booter) resolveWritable(
	table *fstab.Table) *resolver.ResolvedDevice {
	rec := b.reporter.Begin()
	defer func() { b.total.Merge(rec.Outcome()) }()
	mountPoint := "/" + b.Config.RwName
	entry := table.Lookup(mountPoint)
	if entry == nil {
		rec.Infof("no %s entry in %s", mountPoint, b.FstabFile)
		return nil
	}
	fallback := parseFallback(b.Config.SecondaryRwResolution)
	request := resolver.EntryRequest(b.Config.RwName, entry, fallback,
		b.Config.RwFsType, b.Config.RwWait)
	request.Optional = true
	policy := storage.Policy{
		FsType:        b.Config.RwFsType,
		TypeID:        mbr.LinuxPartitionType,
		Label:         recoveryLabel(entry, fallback),
		AllowReformat: b.Config.RwMediaRecovery == config.RecoveryReformat,
	}
	rootDisk := b.rootDisk(rec)
	if rootDisk == "" && policy.AllowReformat {
		rec.Info("root disk unknown, writable medium will not be reinitialised")
		policy.AllowReformat = false
	}
	var candidate string
	if hints := b.Config.RwDeviceHints; len(hints) > 0 {
		candidate, _ = storage.FindCandidate(b.Ops, hints, rootDisk,
			b.Config.RwWait, hintWait)
		request.Timeout = hintWait
	}
	rw, err := resolver.Find(b.Ops, request)
	if rw != nil {
		rec.Infof("%s: resolved to %s", request.Name, rw.Path)
		return b.validateWritable(rw, request, rootDisk, policy, rec)
	}
	if candidate == "" || rootDisk == "" {
		rec.Warn(err)
		return nil
	}
	status, o := storage.EnsureSinglePartition(b.Ops, candidate, policy,
		b.reporter)
	rec.Merge(o)
	if status != storage.StatusRecovered {
		rec.Warn(err)
		return nil
	}
	rw, o = resolver.Resolve(b.Ops, request, b.reporter)
	rec.Merge(o)
	return rw
}

// validateWritable checks the disk holding a resolved writable partition.
// If that disk had to be reinitialised the device is resolved again.
func (b *booter) validateWritable(rw *resolver.ResolvedDevice,
	request resolver.Request, rootDisk string, policy storage.Policy,
	rec *outcome.Recorder) *resolver.ResolvedDevice {
	device, err := b.Ops.InspectDevice(rw.Path)
	if err != nil {
		rec.Infof("cannot inspect %s: %s", rw.Path, err)
		return rw
	}
	if device.Disk == device.Path {
		rec.Infof("%s is not a partition, layout not checked", device.Path)
		return rw
	}
	if rootDisk == "" || device.Disk == rootDisk {
		rec.Infof("%s may hold the root, layout not checked", device.Disk)
		return rw
	}
	status, o := storage.EnsureSinglePartition(b.Ops, device.Disk, policy,
		b.reporter)
	rec.Merge(o)
	if status != storage.StatusRecovered {
		return rw
	}
	rw, o = resolver.Resolve(b.Ops, request, b.reporter)
	rec.Merge(o)
	return rw
}

// appendLog appends the event log, starting at line from, to filename and
// returns the number of lines logged so far.
func (b *booter) appendLog(filename string, from int) int {
	buffer := &bytes.Buffer{}
	count, err := b.LogBuffer.Dump(buffer, from)
	if err != nil || buffer.Len() < 1 {
		return from
	}
	if err := b.Ops.AppendFile(filename, buffer.Bytes()); err != nil {
		b.Logger.Printf("error writing log to %s: %s\n", filename, err)
		return from
	}
	return count
}

func (b *booter) finish(result outcome.Result) *Report {
	b.report.Result = result
	b.report.Outcome = b.total
	b.report.Exec = failure.Action(result, b.Config)
	b.Logger.Debugf(0, "boot result: %s, exec: %s\n",
		result, b.report.Exec.Path)
	if b.report.Switched {
		b.appendLog(b.Config.LogFile, b.newRootLines)
	} else if b.stagingMounted {
		b.appendLog(path.Join(b.Layout.Staging, b.Config.LogFile), 0)
	}
	return b.report
}
