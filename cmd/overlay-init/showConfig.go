//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"

	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"gopkg.in/yaml.v3"
)

func showConfigSubcommand(args []string, logger log.DebugLogger) error {
	if err := showConfig(logger); err != nil {
		return fmt.Errorf("error showing configuration: %s", err)
	}
	return nil
}

func showConfig(logger log.DebugLogger) error {
	cfg := loadConfig(*configFile, logger)
	return writeYaml(cfg)
}

func writeYaml(value interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	return encoder.Close()
}
