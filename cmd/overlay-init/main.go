//go:build linux
// +build linux

package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/flags/commands"
	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"github.com/Cloud-Foundations/overlayroot/lib/log/debuglogger"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
)

type logWriter struct {
	writer io.Writer
}

var (
	configFile = flag.String("configFile", config.DefaultFilename,
		"Name of file containing configuration overrides")
	fstabFile = flag.String("fstabFile", "/etc/fstab",
		"Name of boot table")
	logDebugLevel = flag.Int("logDebugLevel", -1, "Debug log level")

	processStartTime = time.Now()
)

func printUsage() {
	w := flag.CommandLine.Output()
	fmt.Fprintln(w,
		"Usage: overlay-init [flags...] command [args...]")
	fmt.Fprintln(w,
		"When run as process 1, the overlay root is assembled and flags are ignored.")
	fmt.Fprintln(w, "Common flags:")
	flag.PrintDefaults()
	fmt.Fprintln(w, "Commands:")
	commands.PrintCommands(w, subcommands)
}

var subcommands = []commands.Command{
	{Command: "inspect-medium", Args: "device", MinArgs: 1, MaxArgs: 1, CmdFunc: inspectMediumSubcommand},
	{Command: "recover-medium", Args: "device [label]", MinArgs: 1, MaxArgs: 2, CmdFunc: recoverMediumSubcommand},
	{Command: "resolve", Args: "specifier", MinArgs: 1, MaxArgs: 1, CmdFunc: resolveSubcommand},
	{Command: "show-config", Args: "", MinArgs: 0, MaxArgs: 0, CmdFunc: showConfigSubcommand},
	{Command: "show-plan", Args: "", MinArgs: 0, MaxArgs: 0, CmdFunc: showPlanSubcommand},
}

// loadConfig returns the configuration. Errors are logged and the returned
// configuration (defaults plus every valid override) is used regardless.
func loadConfig(filename string, logger log.Logger) *config.Config {
	cfg, err := config.Load(filename)
	if err != nil {
		logger.Printf("error loading %s: %s, continuing\n", filename, err)
	}
	return cfg
}

func main() {
	if os.Getpid() == 1 {
		runInit()
	}
	flag.Usage = printUsage
	flag.Parse()
	logger := debuglogger.New(stdlog.New(os.Stderr, "", 0))
	logger.SetLevel(int16(*logDebugLevel))
	os.Exit(commands.RunCommands(subcommands, flag.Args(), printUsage,
		os.Stderr, logger))
}

func (w *logWriter) Write(p []byte) (int, error) {
	buffer := &bytes.Buffer{}
	fmt.Fprintf(buffer, "[%7.3f] ", time.Since(processStartTime).Seconds())
	buffer.Write(p)
	if _, err := w.writer.Write(buffer.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
