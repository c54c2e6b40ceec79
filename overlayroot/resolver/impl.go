package resolver

import (
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/errors"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

func entryRequest(name string, entry *fstab.Entry, fallback fstab.Specifier,
	defaultType string, timeout time.Duration) Request {
	request := Request{
		Name:     name,
		Fallback: fallback,
		Type:     defaultType,
		Options:  "defaults",
		Timeout:  timeout,
	}
	if entry != nil {
		request.Primary = entry.Source
		request.Type = entry.Type
		request.Options = entry.Options
	}
	return request
}

func find(ops sysops.SystemOps, request Request,
	infof func(format string, v ...interface{})) (*ResolvedDevice, error) {
	var lastPath string
	for _, spec := range []fstab.Specifier{request.Primary, request.Fallback} {
		if spec.IsZero() {
			continue
		}
		path, err := ops.FindFilesystem(spec)
		if err != nil {
			infof("%s: cannot resolve %s: %s", request.Name, spec, err)
			continue
		}
		lastPath = path
		if !ops.AwaitDevice(path, request.Timeout) {
			infof("%s: %s (%s) not present after %s",
				request.Name, spec, path, request.Timeout)
			continue
		}
		infof("%s: %s resolved to %s", request.Name, spec, path)
		return &ResolvedDevice{
			Path:    path,
			Type:    request.Type,
			Options: request.Options,
		}, nil
	}
	if request.Fallback.IsZero() && lastPath != "" {
		return nil, errors.NewDeviceAbsentError(lastPath,
			request.Timeout.String())
	}
	return nil, errors.NewDeviceUnresolvedError(request.Primary.String(),
		request.Fallback.String())
}

func resolve(ops sysops.SystemOps, request Request,
	reporter *outcome.Reporter) (*ResolvedDevice, outcome.Outcome) {
	rec := reporter.Begin()
	device, err := find(ops, request, rec.Infof)
	if device != nil {
		return device, rec.Outcome()
	}
	if request.Optional {
		rec.Warn(err)
	} else {
		rec.Fail(err)
	}
	return nil, rec.Outcome()
}
