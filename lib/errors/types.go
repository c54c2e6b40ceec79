package errors

import "strconv"

// DeviceUnresolvedError is returned when neither a specifier nor its fallback
// names a known file-system.
type DeviceUnresolvedError struct {
	Specifier string
	Fallback  string
}

func (e *DeviceUnresolvedError) Error() string {
	if e.Fallback != "" {
		return "cannot resolve " + e.Specifier + " or fallback " + e.Fallback
	}
	return "cannot resolve " + e.Specifier
}

func NewDeviceUnresolvedError(specifier, fallback string) *DeviceUnresolvedError {
	return &DeviceUnresolvedError{Specifier: specifier, Fallback: fallback}
}

// DeviceAbsentError is returned when a specifier resolved to a device path
// which did not appear in time.
type DeviceAbsentError struct {
	Path    string
	Timeout string
}

func (e *DeviceAbsentError) Error() string {
	if e.Timeout != "" {
		return "device " + e.Path + " not present after " + e.Timeout
	}
	return "device " + e.Path + " not present"
}

func NewDeviceAbsentError(path, timeout string) *DeviceAbsentError {
	return &DeviceAbsentError{Path: path, Timeout: timeout}
}

type MountError struct {
	Source string
	Target string
	Type   string
	Err    error
}

func (e *MountError) Error() string {
	return "error mounting " + e.Source + " on " + e.Target + " type=" +
		e.Type + ": " + e.Err.Error()
}

func (e *MountError) Unwrap() error { return e.Err }

func NewMountError(source, target, fstype string, err error) *MountError {
	return &MountError{Source: source, Target: target, Type: fstype, Err: err}
}

// PartitionMismatchError describes a writable medium which does not have the
// expected layout. It triggers recovery and is not fatal by itself.
type PartitionMismatchError struct {
	Device     string
	Partitions int
	Found      string
	Expected   string
}

func (e *PartitionMismatchError) Error() string {
	return e.Device + " has " + strconv.Itoa(e.Partitions) +
		" partition(s), last is " + e.Found + ", expected 1 partition of " +
		e.Expected
}

func NewPartitionMismatchError(device string, partitions int,
	found, expected string) *PartitionMismatchError {
	return &PartitionMismatchError{
		Device:     device,
		Partitions: partitions,
		Found:      found,
		Expected:   expected,
	}
}

// FormatError is returned when repartitioning or formatting a medium fails.
type FormatError struct {
	Device string
	Action string
	Err    error
}

func (e *FormatError) Error() string {
	return "error " + e.Action + " " + e.Device + ": " + e.Err.Error()
}

func (e *FormatError) Unwrap() error { return e.Err }

func NewFormatError(device, action string, err error) *FormatError {
	return &FormatError{Device: device, Action: action, Err: err}
}

// RelocationError is returned when a mount could not be moved after the root
// has been switched.
type RelocationError struct {
	Source string
	Target string
	Err    error
}

func (e *RelocationError) Error() string {
	return "error moving mount " + e.Source + " to " + e.Target + ": " +
		e.Err.Error()
}

func (e *RelocationError) Unwrap() error { return e.Err }

func NewRelocationError(source, target string, err error) *RelocationError {
	return &RelocationError{Source: source, Target: target, Err: err}
}
