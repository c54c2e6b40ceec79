package sysops

import (
	"strings"

	"github.com/Cloud-Foundations/overlayroot/lib/wsyscall"
)

var optionFlags = map[string]uintptr{
	"nodiratime": wsyscall.MS_NODIRATIME,
	"nodev":      wsyscall.MS_NODEV,
	"noexec":     wsyscall.MS_NOEXEC,
	"noatime":    wsyscall.MS_NOATIME,
	"nosuid":     wsyscall.MS_NOSUID,
	"relatime":   wsyscall.MS_RELATIME,
	"ro":         wsyscall.MS_RDONLY,
	"sync":       wsyscall.MS_SYNCHRONOUS,
}

var userspaceOptions = map[string]struct{}{
	"_netdev":  {},
	"auto":     {},
	"defaults": {},
	"noauto":   {},
	"nofail":   {},
	"nouser":   {},
	"rw":       {},
	"user":     {},
	"users":    {},
}

func splitOptions(options string) (uintptr, string) {
	var flags uintptr
	var data []string
	for _, option := range strings.Split(options, ",") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		if flag, ok := optionFlags[option]; ok {
			flags |= flag
			continue
		}
		if _, ok := userspaceOptions[option]; ok {
			continue
		}
		if strings.HasPrefix(option, "x-") || strings.HasPrefix(option, "comment=") {
			continue
		}
		data = append(data, option)
	}
	return flags, strings.Join(data, ",")
}

func (p MountPlan) string() string {
	s := p.Source + " on " + p.Target + " type=" + p.Type
	if p.ReadOnly {
		s += " (ro)"
	}
	if p.Options != "" {
		s += " options=" + p.Options
	}
	return s
}
