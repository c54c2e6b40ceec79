// Package resolver maps file-system specifiers to device paths.
package resolver

import (
	"time"

	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

// ResolvedDevice is a device path plus the file-system type and mount
// options declared for it.
type ResolvedDevice struct {
	Path    string `yaml:"path"`
	Type    string `yaml:"type"`
	Options string `yaml:"options"`
}

type Request struct {
	Name     string          // Used in messages, e.g. "root".
	Primary  fstab.Specifier // From the boot table. May be zero.
	Fallback fstab.Specifier // From the configuration. May be zero.
	Type     string
	Options  string
	Timeout  time.Duration // Applies to each specifier.
	Optional bool          // If true, failure is recorded as a warning.
}

// Resolve tries the primary specifier and, only if that yields no present
// device, the fallback. If neither does, nil is returned and exactly one
// failure (or warning, if the request is optional) is recorded.
func Resolve(ops sysops.SystemOps, request Request,
	reporter *outcome.Reporter) (*ResolvedDevice, outcome.Outcome) {
	return resolve(ops, request, reporter)
}

// Find is like Resolve but records nothing. The returned error is a
// DeviceUnresolvedError or a DeviceAbsentError.
func Find(ops sysops.SystemOps, request Request) (*ResolvedDevice, error) {
	return find(ops, request, func(string, ...interface{}) {})
}

// EntryRequest fills a Request from a boot table entry, which may be nil.
func EntryRequest(name string, entry *fstab.Entry, fallback fstab.Specifier,
	defaultType string, timeout time.Duration) Request {
	return entryRequest(name, entry, fallback, defaultType, timeout)
}
