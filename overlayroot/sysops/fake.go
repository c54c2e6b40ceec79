package sysops

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/wsyscall"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
)

// Fake implements SystemOps in memory. Devices appear according to a virtual
// clock which only AwaitDevice advances. Every operation is recorded in a call
// log, and any call may be made to fail.
type Fake struct {
	devices  map[string]*fakeDevice
	links    map[string]string
	tags     map[string]string
	failures map[string]error
	mounts   []*fakeMount
	pseudo   map[string]*fakeFS
	calls    []string
	now      time.Duration
}

// FakePartition describes a partition to create with AddDisk.
type FakePartition struct {
	TypeID uint8
	FsType string            // Empty if there is no file-system.
	Files  map[string]string // Pathnames ending in "/" are directories.
}

// FakeMount is a snapshot of one entry in the mount table of a Fake.
type FakeMount struct {
	Source   string
	Target   string
	Type     string
	Options  string
	ReadOnly bool
}

type fakeDevice struct {
	path       string
	appearsAt  time.Duration
	never      bool
	parent     *fakeDevice
	partitions []*fakeDevice
	typeID     uint8
	fsType     string
	fs         *fakeFS
}

type fakeFS struct {
	dirs    map[string]struct{}
	files   map[string][]byte
	overlay *fakeOverlay
}

type fakeOverlay struct {
	lower fakeView
	upper fakeView
}

type fakeView struct {
	fs     *fakeFS
	prefix string
}

type fakeMount struct {
	FakeMount
	view fakeView
}

// NewFake creates a Fake whose root file-system contains the /dev, /mnt,
// /proc and /sys directories.
func NewFake() *Fake {
	root := newFakeFS(map[string]string{
		"/dev/": "", "/mnt/": "", "/proc/": "", "/sys/": "",
	})
	return &Fake{
		devices:  make(map[string]*fakeDevice),
		links:    make(map[string]string),
		tags:     make(map[string]string),
		failures: make(map[string]error),
		pseudo:   make(map[string]*fakeFS),
		mounts: []*fakeMount{{
			FakeMount: FakeMount{Source: "rootfs", Target: "/", Type: "rootfs"},
			view:      fakeView{fs: root, prefix: "/"},
		}},
	}
}

// AddFilesystemDevice adds a device holding a file-system directly, such as
// a partition of a disk which is not otherwise inspected.
func (f *Fake) AddFilesystemDevice(pathname, fsType string,
	files map[string]string) {
	f.devices[pathname] = &fakeDevice{
		path:   pathname,
		fsType: fsType,
		fs:     newFakeFS(files),
	}
}

// AddDisk adds a raw device with an MBR holding the specified partitions.
func (f *Fake) AddDisk(pathname string, partitions ...FakePartition) {
	disk := &fakeDevice{path: pathname}
	f.devices[pathname] = disk
	for index, partition := range partitions {
		node := &fakeDevice{
			path:   fakePartitionName(pathname, index+1),
			parent: disk,
			typeID: partition.TypeID,
			fsType: partition.FsType,
		}
		if partition.FsType != "" {
			node.fs = newFakeFS(partition.Files)
		}
		disk.partitions = append(disk.partitions, node)
		f.devices[node.path] = node
	}
}

// AddFile adds a file (or a directory if pathname ends in "/") to the
// currently mounted file-systems.
func (f *Fake) AddFile(pathname, data string) {
	mount, rel := f.resolve(pathname)
	if strings.HasSuffix(pathname, "/") {
		mount.view.mkdirAll(rel)
		return
	}
	mount.view.mkdirAll(path.Dir(rel))
	mount.view.writeFile(rel, []byte(data))
}

// AddLink adds a symbolic link to a device node, like the ones udev creates
// under /dev/disk.
func (f *Fake) AddLink(link, target string) {
	f.links[path.Clean(link)] = path.Clean(target)
}

// AddPseudoFile adds a file to the shared instance of a pseudo file-system
// such as "sysfs", visible wherever that type is mounted.
func (f *Fake) AddPseudoFile(fsType, pathname, data string) {
	view := fakeView{fs: f.pseudoFS(fsType), prefix: "/"}
	pathname = path.Clean("/" + pathname)
	view.mkdirAll(path.Dir(pathname))
	view.writeFile(pathname, []byte(data))
}

// Called returns true if call appears in the call log.
func (f *Fake) Called(call string) bool {
	return f.callIndex(call) >= 0
}

// CallIndex returns the position of the first occurrence of call in the call
// log, or -1.
func (f *Fake) CallIndex(call string) int {
	return f.callIndex(call)
}

// Calls returns a copy of the call log. Entries have the form
// "<operation> <arguments...>", for example "mount /mnt/rw".
func (f *Fake) Calls() []string {
	return append([]string(nil), f.calls...)
}

// DeviceFile returns the content of a file on the file-system of a device,
// bypassing the mount table.
func (f *Fake) DeviceFile(device, pathname string) ([]byte, bool) {
	dev, ok := f.device(device)
	if !ok || dev.fs == nil {
		return nil, false
	}
	return fakeView{fs: dev.fs, prefix: "/"}.readFile(path.Clean(pathname))
}

// DeviceFsType returns the type of the file-system on a device.
func (f *Fake) DeviceFsType(device string) string {
	if dev, ok := f.device(device); ok {
		return dev.fsType
	}
	return ""
}

// Elapsed returns the virtual time consumed by AwaitDevice.
func (f *Fake) Elapsed() time.Duration {
	return f.now
}

// FailOn makes the call (as it appears in the call log) return err.
func (f *Fake) FailOn(call string, err error) {
	f.failures[call] = err
}

// Mounts returns the mount table, in mount order.
func (f *Fake) Mounts() []FakeMount {
	mounts := make([]FakeMount, 0, len(f.mounts))
	for _, mount := range f.mounts {
		mounts = append(mounts, mount.FakeMount)
	}
	return mounts
}

// SetAppearsAfter makes a device (and its partitions) appear after the
// virtual clock reaches delay. A negative delay means it never appears.
func (f *Fake) SetAppearsAfter(pathname string, delay time.Duration) {
	dev, ok := f.device(pathname)
	if !ok {
		return
	}
	for _, d := range append([]*fakeDevice{dev}, dev.partitions...) {
		d.appearsAt = delay
		d.never = delay < 0
	}
}

// Tag makes FindFilesystem map the specifier (for example "LABEL=rootfs") to
// the device.
func (f *Fake) Tag(specifier, device string) {
	f.tags[specifier] = device
}

func (f *Fake) AppendFile(pathname string, data []byte) error {
	if err := f.record("append " + pathname); err != nil {
		return err
	}
	mount, rel := f.resolve(pathname)
	if mount.ReadOnly {
		return errReadOnly(pathname)
	}
	mount.view.mkdirAll(path.Dir(rel))
	old, _ := mount.view.readFile(rel)
	mount.view.writeFile(rel, append(append([]byte(nil), old...), data...))
	return nil
}

func (f *Fake) AwaitDevice(pathname string, timeout time.Duration) bool {
	if err := f.record("await " + pathname); err != nil {
		return false
	}
	dev, ok := f.device(pathname)
	if !ok {
		if f.pathExists(pathname) {
			return true
		}
		f.now += timeout
		return false
	}
	if f.present(dev) {
		return true
	}
	if !dev.never && dev.appearsAt <= f.now+timeout {
		f.now = dev.appearsAt
		return true
	}
	f.now += timeout
	return false
}

func (f *Fake) Exists(pathname string) bool {
	if dev, ok := f.device(pathname); ok {
		return f.present(dev)
	}
	return f.pathExists(pathname)
}

func (f *Fake) FindFilesystem(spec fstab.Specifier) (string, error) {
	if err := f.record("find " + spec.String()); err != nil {
		return "", err
	}
	switch spec.Kind {
	case fstab.KindPath:
		return spec.Value, nil
	case fstab.KindPseudo:
		return "", fmt.Errorf("%s is not a block device", spec.Value)
	}
	if device, ok := f.tags[spec.String()]; ok {
		return device, nil
	}
	return spec.DevicePath(), nil
}

func (f *Fake) Format(device, fsType, label string) error {
	if err := f.record("format " + device); err != nil {
		return err
	}
	dev, ok := f.device(device)
	if !ok || !f.present(dev) {
		return errNoDevice(device)
	}
	dev.fsType = fsType
	dev.fs = newFakeFS(nil)
	if label != "" {
		f.tags["LABEL="+label] = device
	}
	return nil
}

func (f *Fake) InspectDevice(pathname string) (*BlockDevice, error) {
	if err := f.record("inspect " + pathname); err != nil {
		return nil, err
	}
	dev, ok := f.device(pathname)
	if !ok || !f.present(dev) {
		return nil, errNoDevice(pathname)
	}
	device := &BlockDevice{Path: dev.path, Disk: dev.path}
	if dev.parent != nil {
		device.Disk = dev.parent.path
	}
	return device, nil
}

func (f *Fake) MakeDir(pathname string) error {
	if err := f.record("mkdir " + pathname); err != nil {
		return err
	}
	mount, rel := f.resolve(pathname)
	if mount.view.exists(rel) {
		return nil
	}
	if mount.ReadOnly {
		return errReadOnly(pathname)
	}
	mount.view.mkdirAll(rel)
	return nil
}

func (f *Fake) Mount(plan MountPlan) error {
	if err := f.record("mount " + plan.Target); err != nil {
		return err
	}
	target := path.Clean(plan.Target)
	if !f.isDir(target) {
		return &os.PathError{Op: "mount", Path: target, Err: syscall.ENOENT}
	}
	mount := &fakeMount{FakeMount: FakeMount{
		Source:   plan.Source,
		Target:   target,
		Type:     plan.Type,
		Options:  plan.Options,
		ReadOnly: plan.ReadOnly,
	}}
	flags, data := splitOptions(plan.Options)
	if flags&wsyscall.MS_RDONLY != 0 {
		mount.ReadOnly = true
	}
	switch plan.Type {
	case "proc", "sysfs", "devtmpfs":
		mount.view = fakeView{fs: f.pseudoFS(plan.Type), prefix: "/"}
	case "tmpfs":
		mount.view = fakeView{fs: newFakeFS(nil), prefix: "/"}
	case "overlay":
		view, err := f.overlayView(data)
		if err != nil {
			return err
		}
		mount.view = view
	default:
		dev, ok := f.device(plan.Source)
		if !ok || !f.present(dev) {
			return errNoDevice(plan.Source)
		}
		if dev.fs == nil || dev.fsType != plan.Type {
			return &os.PathError{Op: "mount", Path: plan.Source,
				Err: syscall.EINVAL}
		}
		mount.view = fakeView{fs: dev.fs, prefix: "/"}
	}
	f.mounts = append(f.mounts, mount)
	return nil
}

func (f *Fake) MoveMount(source, target string) error {
	if err := f.record("move " + source + " " + target); err != nil {
		return err
	}
	source = path.Clean(source)
	target = path.Clean(target)
	mount := f.lookup(source)
	if mount == nil {
		return &os.PathError{Op: "move", Path: source, Err: syscall.EINVAL}
	}
	if !f.isDir(target) {
		return &os.PathError{Op: "move", Path: target, Err: syscall.ENOENT}
	}
	for _, m := range f.submounts(source) {
		m.Target = path.Join(target, strings.TrimPrefix(m.Target, source))
	}
	mount.Target = target
	return nil
}

func (f *Fake) Partition(device string, typeID uint8) (string, error) {
	if err := f.record("partition " + device); err != nil {
		return "", err
	}
	disk, ok := f.device(device)
	if !ok || !f.present(disk) {
		return "", errNoDevice(device)
	}
	for _, partition := range disk.partitions {
		delete(f.devices, partition.path)
		for spec, dev := range f.tags {
			if dev == partition.path {
				delete(f.tags, spec)
			}
		}
	}
	node := &fakeDevice{
		path:      fakePartitionName(disk.path, 1),
		parent:    disk,
		typeID:    typeID,
		appearsAt: disk.appearsAt,
	}
	disk.partitions = []*fakeDevice{node}
	f.devices[node.path] = node
	return node.path, nil
}

// PivotRoot remaps the mount table: newRoot becomes "/", mounts below it
// lose the prefix and everything else moves below putOld.
func (f *Fake) PivotRoot(newRoot, putOld string) error {
	if err := f.record("pivot " + newRoot + " " + putOld); err != nil {
		return err
	}
	newRoot = path.Clean(newRoot)
	putOld = path.Clean(putOld)
	if f.lookup(newRoot) == nil {
		return &os.PathError{Op: "pivot_root", Path: newRoot,
			Err: syscall.EINVAL}
	}
	if !within(putOld, newRoot) || !f.isDir(putOld) {
		return &os.PathError{Op: "pivot_root", Path: putOld,
			Err: syscall.EINVAL}
	}
	oldRelative := "/" + strings.TrimPrefix(putOld, newRoot)
	for _, mount := range f.mounts {
		switch {
		case mount.Target == newRoot:
			mount.Target = "/"
		case within(mount.Target, newRoot):
			mount.Target = strings.TrimPrefix(mount.Target, newRoot)
		default:
			mount.Target = path.Join(oldRelative, mount.Target)
		}
	}
	return nil
}

func (f *Fake) ReadFile(pathname string) ([]byte, error) {
	mount, rel := f.resolve(pathname)
	if data, ok := mount.view.readFile(rel); ok {
		return data, nil
	}
	return nil, &os.PathError{Op: "open", Path: pathname, Err: syscall.ENOENT}
}

func (f *Fake) ReadPartitionLayout(device string) (*PartitionLayout, error) {
	if err := f.record("layout " + device); err != nil {
		return nil, err
	}
	disk, ok := f.device(device)
	if !ok || !f.present(disk) {
		return nil, errNoDevice(device)
	}
	layout := &PartitionLayout{}
	for _, partition := range disk.partitions {
		if partition.typeID == 0 {
			continue
		}
		layout.Count++
		layout.LastTypeID = partition.typeID
		layout.LastPath = partition.path
		layout.LastFsType = partition.fsType
	}
	return layout, nil
}

func (f *Fake) Unmount(target string, detach bool) error {
	if err := f.record("unmount " + target); err != nil {
		return err
	}
	target = path.Clean(target)
	mount := f.lookup(target)
	if mount == nil {
		return &os.PathError{Op: "umount", Path: target, Err: syscall.EINVAL}
	}
	submounts := f.submounts(target)
	if len(submounts) > 0 && !detach {
		return &os.PathError{Op: "umount", Path: target, Err: syscall.EBUSY}
	}
	remove := map[*fakeMount]struct{}{mount: {}}
	for _, m := range submounts {
		remove[m] = struct{}{}
	}
	mounts := make([]*fakeMount, 0, len(f.mounts))
	for _, m := range f.mounts {
		if _, ok := remove[m]; !ok {
			mounts = append(mounts, m)
		}
	}
	f.mounts = mounts
	return nil
}

func (f *Fake) WriteFile(pathname string, data []byte) error {
	if err := f.record("write " + pathname); err != nil {
		return err
	}
	mount, rel := f.resolve(pathname)
	if mount.ReadOnly {
		return errReadOnly(pathname)
	}
	if !mount.view.isDir(path.Dir(rel)) {
		return &os.PathError{Op: "open", Path: pathname, Err: syscall.ENOENT}
	}
	mount.view.writeFile(rel, append([]byte(nil), data...))
	return nil
}

func errNoDevice(device string) error {
	return &os.PathError{Op: "open", Path: device, Err: syscall.ENODEV}
}

func errReadOnly(pathname string) error {
	return &os.PathError{Op: "write", Path: pathname, Err: syscall.EROFS}
}

func fakePartitionName(device string, number int) string {
	if last := device[len(device)-1]; last >= '0' && last <= '9' {
		return fmt.Sprintf("%sp%d", device, number)
	}
	return fmt.Sprintf("%s%d", device, number)
}

func within(pathname, dir string) bool {
	return dir == "/" || pathname == dir || strings.HasPrefix(pathname, dir+"/")
}

func (f *Fake) callIndex(call string) int {
	for index, c := range f.calls {
		if c == call {
			return index
		}
	}
	return -1
}

// device looks up a device node, following links.
func (f *Fake) device(pathname string) (*fakeDevice, bool) {
	pathname = path.Clean(pathname)
	for count := 0; count < 8; count++ {
		target, ok := f.links[pathname]
		if !ok {
			break
		}
		pathname = target
	}
	dev, ok := f.devices[pathname]
	return dev, ok
}

func (f *Fake) isDir(pathname string) bool {
	mount, rel := f.resolve(pathname)
	return mount.view.isDir(rel)
}

// lookup returns the top-most mount exactly at target.
func (f *Fake) lookup(target string) *fakeMount {
	var found *fakeMount
	for _, mount := range f.mounts {
		if mount.Target == target {
			found = mount
		}
	}
	return found
}

func (f *Fake) overlayView(data string) (fakeView, error) {
	options := make(map[string]string)
	for _, option := range strings.Split(data, ",") {
		if key, value, ok := strings.Cut(option, "="); ok {
			options[key] = value
		}
	}
	for _, key := range []string{"lowerdir", "upperdir", "workdir"} {
		if options[key] == "" {
			return fakeView{}, fmt.Errorf("overlay: missing %s", key)
		}
		if !f.isDir(options[key]) {
			return fakeView{}, &os.PathError{Op: "overlay",
				Path: options[key], Err: syscall.ENOENT}
		}
	}
	upperMount, upper := f.resolve(options["upperdir"])
	workMount, _ := f.resolve(options["workdir"])
	if upperMount != workMount {
		return fakeView{}, errors.New("overlay: upperdir and workdir are on different file-systems")
	}
	if upperMount.ReadOnly {
		return fakeView{}, errReadOnly(options["upperdir"])
	}
	lowerMount, lower := f.resolve(options["lowerdir"])
	return fakeView{fs: &fakeFS{overlay: &fakeOverlay{
		lower: lowerMount.view.sub(lower),
		upper: upperMount.view.sub(upper),
	}}, prefix: "/"}, nil
}

func (f *Fake) pathExists(pathname string) bool {
	mount, rel := f.resolve(pathname)
	return mount.view.exists(rel)
}

func (f *Fake) present(dev *fakeDevice) bool {
	return !dev.never && dev.appearsAt <= f.now
}

func (f *Fake) pseudoFS(fsType string) *fakeFS {
	fs, ok := f.pseudo[fsType]
	if !ok {
		fs = newFakeFS(nil)
		f.pseudo[fsType] = fs
	}
	return fs
}

func (f *Fake) record(call string) error {
	f.calls = append(f.calls, call)
	return f.failures[call]
}

// resolve returns the mount holding pathname and the path within it.
func (f *Fake) resolve(pathname string) (*fakeMount, string) {
	pathname = path.Clean("/" + pathname)
	var best *fakeMount
	for _, mount := range f.mounts {
		if within(pathname, mount.Target) &&
			(best == nil || len(mount.Target) >= len(best.Target)) {
			best = mount
		}
	}
	return best, path.Clean("/" + strings.TrimPrefix(pathname, best.Target))
}

// submounts returns the mounts strictly below target, deepest first.
func (f *Fake) submounts(target string) []*fakeMount {
	var mounts []*fakeMount
	for _, mount := range f.mounts {
		if mount.Target != target && within(mount.Target, target) {
			mounts = append(mounts, mount)
		}
	}
	sort.SliceStable(mounts, func(i, j int) bool {
		return len(mounts[i].Target) > len(mounts[j].Target)
	})
	return mounts
}

func newFakeFS(files map[string]string) *fakeFS {
	fs := &fakeFS{
		dirs:  make(map[string]struct{}),
		files: make(map[string][]byte),
	}
	view := fakeView{fs: fs, prefix: "/"}
	for pathname, data := range files {
		if strings.HasSuffix(pathname, "/") {
			view.mkdirAll(path.Clean(pathname))
			continue
		}
		pathname = path.Clean("/" + pathname)
		view.mkdirAll(path.Dir(pathname))
		fs.files[pathname] = []byte(data)
	}
	return fs
}

func (v fakeView) sub(rel string) fakeView {
	return fakeView{fs: v.fs, prefix: path.Join(v.prefix, rel)}
}

func (v fakeView) exists(rel string) bool {
	return v.isDir(rel) || v.isFile(rel)
}

func (v fakeView) isDir(rel string) bool {
	p := path.Join(v.prefix, rel)
	if v.fs.overlay != nil {
		return v.fs.overlay.upper.isDir(p) || v.fs.overlay.lower.isDir(p)
	}
	if p == "/" {
		return true
	}
	_, ok := v.fs.dirs[p]
	return ok
}

func (v fakeView) isFile(rel string) bool {
	_, ok := v.readFile(rel)
	return ok
}

func (v fakeView) mkdirAll(rel string) {
	p := path.Join(v.prefix, rel)
	if v.fs.overlay != nil {
		v.fs.overlay.upper.mkdirAll(p)
		return
	}
	for ; p != "/" && p != "."; p = path.Dir(p) {
		v.fs.dirs[p] = struct{}{}
	}
}

func (v fakeView) readFile(rel string) ([]byte, bool) {
	p := path.Join(v.prefix, rel)
	if v.fs.overlay != nil {
		if data, ok := v.fs.overlay.upper.readFile(p); ok {
			return data, true
		}
		return v.fs.overlay.lower.readFile(p)
	}
	data, ok := v.fs.files[p]
	return data, ok
}

func (v fakeView) writeFile(rel string, data []byte) {
	p := path.Join(v.prefix, rel)
	if v.fs.overlay != nil {
		v.fs.overlay.upper.mkdirAll(path.Dir(p))
		v.fs.overlay.upper.writeFile(p, data)
		return
	}
	v.fs.files[p] = data
}
