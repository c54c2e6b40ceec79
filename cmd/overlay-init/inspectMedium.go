//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"github.com/Cloud-Foundations/overlayroot/lib/mbr"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/storage"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

type mediumInfo struct {
	Device        string `yaml:"device"`
	Partitions    uint   `yaml:"partitions"`
	LastPartition string `yaml:"last_partition,omitempty"`
	LastType      string `yaml:"last_partition_type,omitempty"`
	FsType        string `yaml:"filesystem,omitempty"`
	Matches       bool   `yaml:"matches"`
}

func inspectMediumSubcommand(args []string, logger log.DebugLogger) error {
	if err := inspectMedium(args[0], logger); err != nil {
		return fmt.Errorf("error inspecting medium: %s", err)
	}
	return nil
}

func inspectMedium(device string, logger log.DebugLogger) error {
	cfg := loadConfig(*configFile, logger)
	layout, err := sysops.New(logger).ReadPartitionLayout(device)
	if err != nil {
		return err
	}
	info := mediumInfo{
		Device:        device,
		Partitions:    layout.Count,
		LastPartition: layout.LastPath,
		FsType:        layout.LastFsType,
		Matches:       mediumPolicy(cfg, "").Matches(layout),
	}
	if layout.Count > 0 {
		info.LastType = fmt.Sprintf("0x%02x", layout.LastTypeID)
	}
	return writeYaml(info)
}

func mediumPolicy(cfg *config.Config, label string) storage.Policy {
	return storage.Policy{
		FsType:        cfg.RwFsType,
		TypeID:        mbr.LinuxPartitionType,
		Label:         label,
		AllowReformat: true,
	}
}

func recoverMediumSubcommand(args []string, logger log.DebugLogger) error {
	var label string
	if len(args) > 1 {
		label = args[1]
	}
	if err := recoverMedium(args[0], label, logger); err != nil {
		return fmt.Errorf("error recovering medium: %s", err)
	}
	return nil
}

func recoverMedium(device, label string, logger log.DebugLogger) error {
	cfg := loadConfig(*configFile, logger)
	partition, o := storage.RecoverWritableMedium(sysops.New(logger), device,
		mediumPolicy(cfg, label), outcome.NewReporter(logger, true))
	if o.Failed() {
		return o.Errors[len(o.Errors)-1]
	}
	fmt.Println(partition)
	return nil
}
