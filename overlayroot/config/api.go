package config

import (
	"flag"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/flagutil"
)

const DefaultFilename = "/etc/overlayroot.conf"

// OnFail selects the rescue behaviour when the gate refuses to switch root.
type OnFail uint

const (
	OnFailOriginal OnFail = iota // Run the normal startup process.
	OnFailConsole                // Run the rescue shell.
)

// RwMediaPolicy selects what happens when the writable medium is missing.
type RwMediaPolicy uint

const (
	RwMediaTmpfs RwMediaPolicy = iota
	RwMediaFail
)

type LogLevel uint

const (
	LogLevelWarning LogLevel = iota
	LogLevelInfo
)

// RecoveryPolicy controls whether a writable medium with an unexpected
// layout may be repartitioned and reformatted.
type RecoveryPolicy uint

const (
	RecoveryReformat RecoveryPolicy = iota
	RecoveryNever
)

// Config holds the boot options. It is read once and never mutated after
// Load returns.
type Config struct {
	OnFail                  OnFail              `yaml:"ON_FAIL"`
	SecondaryRootResolution string              `yaml:"SECONDARY_ROOT_RESOLUTION"`
	RwName                  string              `yaml:"RW_NAME"`
	SecondaryRwResolution   string              `yaml:"SECONDARY_RW_RESOLUTION"`
	OnRwMediaNotFound       RwMediaPolicy       `yaml:"ON_RW_MEDIA_NOT_FOUND"`
	Logging                 LogLevel            `yaml:"LOGGING"`
	LogFile                 string              `yaml:"LOG_FILE"`
	DisableTrigger          string              `yaml:"DISABLE_TRIGGER,omitempty"`
	ConsoleTrigger          string              `yaml:"CONSOLE_TRIGGER,omitempty"`
	RootWait                time.Duration       `yaml:"ROOT_WAIT"`
	RwWait                  time.Duration       `yaml:"RW_WAIT"`
	RwDeviceHints           flagutil.StringList `yaml:"RW_DEVICE_HINTS,flow"`
	RwFsType                string              `yaml:"RW_FSTYPE"`
	RwMediaRecovery         RecoveryPolicy      `yaml:"RW_MEDIA_RECOVERY"`
	Init                    string              `yaml:"INIT"`
	Shell                   string              `yaml:"SHELL"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return newDefault()
}

// Load returns the default configuration overridden by the assignments in
// filename. A missing file is not an error. On error the returned Config is
// still usable: rejected values keep their defaults.
func Load(filename string) (*Config, error) {
	return load(filename)
}

// Parse is like Load but reads the assignments from a string.
func Parse(data string) (*Config, error) {
	return parse(data)
}

// FlagSet returns a flag.FlagSet whose flags are bound to the fields of c,
// named after the configuration keys.
func (c *Config) FlagSet() *flag.FlagSet {
	return c.flagSet()
}

// Validate checks values which cannot be checked one key at a time.
func (c *Config) Validate() error {
	return c.validate()
}

func (f OnFail) String() string {
	return f.string()
}

func (f *OnFail) Set(value string) error {
	return f.set(value)
}

func (f OnFail) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (p RwMediaPolicy) String() string {
	return p.string()
}

func (p *RwMediaPolicy) Set(value string) error {
	return p.set(value)
}

func (p RwMediaPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (l LogLevel) String() string {
	return l.string()
}

func (l *LogLevel) Set(value string) error {
	return l.set(value)
}

func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (p RecoveryPolicy) String() string {
	return p.string()
}

func (p *RecoveryPolicy) Set(value string) error {
	return p.set(value)
}

func (p RecoveryPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
