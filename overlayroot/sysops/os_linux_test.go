//go:build linux
// +build linux

package sysops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Cloud-Foundations/overlayroot/lib/log/testlogger"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name),
		[]byte("#!/bin/sh\n"+body+"\n"), 0755)
	if err != nil {
		t.Fatal(err)
	}
}

func TestPartitionLogsPartprobeError(t *testing.T) {
	binDir := t.TempDir()
	writeScript(t, binDir, "sfdisk", "cat > /dev/null")
	writeScript(t, binDir, "partprobe", "echo device busy; exit 1")
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	device := filepath.Join(t.TempDir(), "disk")
	for _, pathname := range []string{device, device + "1"} {
		if err := os.WriteFile(pathname, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	logger := testlogger.New(t)
	partition, err := New(logger).Partition(device, 0x83)
	if err != nil {
		t.Fatal(err)
	}
	if partition != device+"1" {
		t.Errorf("partition: %s", partition)
	}
	var logged bool
	for _, message := range logger.Messages() {
		if strings.Contains(message, "partprobe") &&
			strings.Contains(message, "device busy") {
			logged = true
		}
	}
	if !logged {
		t.Errorf("partprobe error not logged: %v", logger.Messages())
	}
}
