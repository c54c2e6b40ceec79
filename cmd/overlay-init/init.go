//go:build linux
// +build linux

package main

import (
	stdlog "log"
	"os"

	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"github.com/Cloud-Foundations/overlayroot/lib/log/debuglogger"
	"github.com/Cloud-Foundations/overlayroot/lib/logbuf"
	"github.com/Cloud-Foundations/overlayroot/lib/wsyscall"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/boot"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/failure"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

// runInit assembles the overlay root and replaces this process. It never
// returns.
func runInit() {
	logger := debuglogger.New(stdlog.New(&logWriter{os.Stderr}, "", 0))
	cfg := loadConfig(config.DefaultFilename, logger)
	if cfg.Logging == config.LogLevelInfo {
		logger.SetLevel(0)
	}
	report := boot.Run(boot.Params{
		Config:    cfg,
		Ops:       sysops.New(logger),
		LogBuffer: logbuf.NewWithOptions(logbuf.GetStandardOptions()),
		Logger:    logger,
	})
	execute(report.Exec, cfg.Shell, logger)
}

// execute flushes the event log to stable storage and replaces the process
// image with exec. If that fails the shell is
// tried, and if that fails too this blocks forever.
func execute(exec failure.Exec, shell string, logger log.Logger) {
	if err := wsyscall.Sync(); err != nil {
		logger.Printf("error syncing: %s\n", err)
	}
	err := wsyscall.Exec(exec.Path, exec.Argv, os.Environ())
	logger.Printf("error executing %s: %s\n", exec.Path, err)
	if exec.Path != shell {
		err := wsyscall.Exec(shell, []string{shell}, os.Environ())
		logger.Printf("error executing %s: %s\n", shell, err)
	}
	logger.Println("nothing left to execute, sleeping forever")
	select {}
}
