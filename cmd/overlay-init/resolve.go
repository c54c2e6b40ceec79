//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/resolver"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

func resolveSubcommand(args []string, logger log.DebugLogger) error {
	if err := resolveSpecifier(args[0], logger); err != nil {
		return fmt.Errorf("error resolving: %s", err)
	}
	return nil
}

func resolveSpecifier(specifier string, logger log.DebugLogger) error {
	spec, err := fstab.ParseSpecifier(specifier)
	if err != nil {
		return err
	}
	cfg := loadConfig(*configFile, logger)
	device, o := resolver.Resolve(sysops.New(logger), resolver.Request{
		Name:    specifier,
		Primary: spec,
		Timeout: cfg.RootWait,
	}, outcome.NewReporter(logger, true))
	if device == nil {
		if len(o.Errors) > 0 {
			return o.Errors[len(o.Errors)-1]
		}
		return fmt.Errorf("%s not found", specifier)
	}
	fmt.Println(device.Path)
	return nil
}
