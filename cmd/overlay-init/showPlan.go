//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/assembler"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/resolver"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

type planInfo struct {
	Layout assembler.Layout `yaml:"layout"`
	Plan   assembler.Plan   `yaml:"plan"`
}

func showPlanSubcommand(args []string, logger log.DebugLogger) error {
	if err := showPlan(logger); err != nil {
		return fmt.Errorf("error showing plan: %s", err)
	}
	return nil
}

// showPlan resolves the devices without waiting for them and prints the
// mounts a boot would perform. Nothing is mounted or modified.
func showPlan(logger log.DebugLogger) error {
	cfg := loadConfig(*configFile, logger)
	ops := sysops.New(logger)
	data, err := ops.ReadFile(*fstabFile)
	if err != nil {
		return err
	}
	table, err := fstab.Parse(data)
	if err != nil {
		return err
	}
	reporter := outcome.NewReporter(logger, true)
	rootFallback, _ := fstab.ParseSpecifier(cfg.SecondaryRootResolution)
	root, _ := resolver.Resolve(ops, resolver.EntryRequest("root",
		table.Lookup("/"), rootFallback, "ext4", 0), reporter)
	if root == nil {
		return fmt.Errorf("no root device")
	}
	var rw *resolver.ResolvedDevice
	if entry := table.Lookup("/" + cfg.RwName); entry != nil {
		rwFallback, _ := fstab.ParseSpecifier(cfg.SecondaryRwResolution)
		request := resolver.EntryRequest(cfg.RwName, entry, rwFallback,
			cfg.RwFsType, 0)
		request.Optional = true
		rw, _ = resolver.Resolve(ops, request, reporter)
	}
	layout := assembler.DefaultLayout()
	return writeYaml(planInfo{
		Layout: layout,
		Plan:   assembler.NewPlan(layout, root, rw, cfg.OnRwMediaNotFound),
	})
}
