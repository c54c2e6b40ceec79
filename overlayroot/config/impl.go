package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/flags/loadflags"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
)

var (
	onFailNames         = []string{"original", "console"}
	rwMediaPolicyNames  = []string{"tmpfs", "fail"}
	logLevelNames       = []string{"warning", "info"}
	recoveryPolicyNames = []string{"reformat", "never"}
)

func newDefault() *Config {
	return &Config{
		OnFail:                  OnFailOriginal,
		SecondaryRootResolution: "LABEL=rootfs",
		RwName:                  "rw",
		SecondaryRwResolution:   "LABEL=root-rw",
		OnRwMediaNotFound:       RwMediaTmpfs,
		Logging:                 LogLevelWarning,
		LogFile:                 "/var/log/overlayroot.log",
		RootWait:                5 * time.Second,
		RwWait:                  10 * time.Second,
		RwDeviceHints:           []string{"/dev/sda", "/dev/sdb"},
		RwFsType:                "ext4",
		RwMediaRecovery:         RecoveryReformat,
		Init:                    "/sbin/init",
		Shell:                   "/bin/sh",
	}
}

func load(filename string) (*Config, error) {
	c := newDefault()
	err := loadflags.LoadFile(filename, c.flagSet())
	if e := c.validate(); err == nil {
		err = e
	}
	return c, err
}

func parse(data string) (*Config, error) {
	c := newDefault()
	err := loadflags.LoadString(data, c.flagSet())
	if e := c.validate(); err == nil {
		err = e
	}
	return c, err
}

func (c *Config) flagSet() *flag.FlagSet {
	flagSet := flag.NewFlagSet("overlayroot", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.Var(&c.OnFail, "ON_FAIL",
		"Action on failure: original or console")
	flagSet.StringVar(&c.SecondaryRootResolution, "SECONDARY_ROOT_RESOLUTION",
		c.SecondaryRootResolution, "Fallback specifier for the root device")
	flagSet.StringVar(&c.RwName, "RW_NAME", c.RwName,
		"Name of the writable mount point in the boot table")
	flagSet.StringVar(&c.SecondaryRwResolution, "SECONDARY_RW_RESOLUTION",
		c.SecondaryRwResolution, "Fallback specifier for the writable device")
	flagSet.Var(&c.OnRwMediaNotFound, "ON_RW_MEDIA_NOT_FOUND",
		"Action when writable medium is missing: tmpfs or fail")
	flagSet.Var(&c.Logging, "LOGGING", "Log verbosity: warning or info")
	flagSet.StringVar(&c.LogFile, "LOG_FILE", c.LogFile,
		"Log file inside the new root")
	flagSet.StringVar(&c.DisableTrigger, "DISABLE_TRIGGER", c.DisableTrigger,
		"GPIO line which disables the overlay when asserted")
	flagSet.StringVar(&c.ConsoleTrigger, "CONSOLE_TRIGGER", c.ConsoleTrigger,
		"GPIO line which starts the rescue shell when asserted")
	flagSet.DurationVar(&c.RootWait, "ROOT_WAIT", c.RootWait,
		"Maximum time to wait for the root device")
	flagSet.DurationVar(&c.RwWait, "RW_WAIT", c.RwWait,
		"Maximum time to wait for the writable device")
	flagSet.Var(&c.RwDeviceHints, "RW_DEVICE_HINTS",
		"Comma separated raw devices which may hold the writable medium")
	flagSet.StringVar(&c.RwFsType, "RW_FSTYPE", c.RwFsType,
		"File-system type expected on the writable medium")
	flagSet.Var(&c.RwMediaRecovery, "RW_MEDIA_RECOVERY",
		"Recovery of a mismatched writable medium: reformat or never")
	flagSet.StringVar(&c.Init, "INIT", c.Init, "Normal startup process")
	flagSet.StringVar(&c.Shell, "SHELL", c.Shell, "Rescue shell")
	return flagSet
}

// validate restores every invalid value to its default and returns the first
// error found.
func (c *Config) validate() error {
	defaults := newDefault()
	var firstErr error
	check := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	if c.RwName == "" || strings.Contains(c.RwName, "/") {
		check(fmt.Errorf("bad RW_NAME: \"%s\"", c.RwName))
		c.RwName = defaults.RwName
	}
	if _, err := fstab.ParseSpecifier(c.SecondaryRootResolution); err != nil {
		check(fmt.Errorf("bad SECONDARY_ROOT_RESOLUTION: %s", err))
		c.SecondaryRootResolution = defaults.SecondaryRootResolution
	}
	if _, err := fstab.ParseSpecifier(c.SecondaryRwResolution); err != nil {
		check(fmt.Errorf("bad SECONDARY_RW_RESOLUTION: %s", err))
		c.SecondaryRwResolution = defaults.SecondaryRwResolution
	}
	if c.RwFsType == "" {
		check(errors.New("empty RW_FSTYPE"))
		c.RwFsType = defaults.RwFsType
	}
	for _, field := range []struct {
		name     string
		value    *string
		fallback string
	}{
		{"LOG_FILE", &c.LogFile, defaults.LogFile},
		{"INIT", &c.Init, defaults.Init},
		{"SHELL", &c.Shell, defaults.Shell},
	} {
		if !path.IsAbs(*field.value) {
			check(fmt.Errorf("%s not an absolute path: \"%s\"",
				field.name, *field.value))
			*field.value = field.fallback
		}
	}
	return firstErr
}

func nameOf(names []string, value uint) string {
	if value < uint(len(names)) {
		return names[value]
	}
	return fmt.Sprintf("UNKNOWN(%d)", value)
}

func valueOf(names []string, name string) (uint, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for index, candidate := range names {
		if candidate == name {
			return uint(index), nil
		}
	}
	return 0, fmt.Errorf("must be one of: %s", strings.Join(names, ", "))
}

func (f OnFail) string() string {
	return nameOf(onFailNames, uint(f))
}

func (f *OnFail) set(value string) error {
	val, err := valueOf(onFailNames, value)
	if err != nil {
		return err
	}
	*f = OnFail(val)
	return nil
}

func (p RwMediaPolicy) string() string {
	return nameOf(rwMediaPolicyNames, uint(p))
}

func (p *RwMediaPolicy) set(value string) error {
	val, err := valueOf(rwMediaPolicyNames, value)
	if err != nil {
		return err
	}
	*p = RwMediaPolicy(val)
	return nil
}

func (l LogLevel) string() string {
	return nameOf(logLevelNames, uint(l))
}

func (l *LogLevel) set(value string) error {
	val, err := valueOf(logLevelNames, value)
	if err != nil {
		return err
	}
	*l = LogLevel(val)
	return nil
}

func (p RecoveryPolicy) string() string {
	return nameOf(recoveryPolicyNames, uint(p))
}

func (p *RecoveryPolicy) set(value string) error {
	val, err := valueOf(recoveryPolicyNames, value)
	if err != nil {
		return err
	}
	*p = RecoveryPolicy(val)
	return nil
}
