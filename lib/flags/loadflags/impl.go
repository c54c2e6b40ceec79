package loadflags

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mvo5/goconfigparser"
)

func loadFile(filename string, flagSet *flag.FlagSet) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := loadString(string(data), flagSet); err != nil {
		return fmt.Errorf("%s: %s", filename, err)
	}
	return nil
}

func loadString(data string, flagSet *flag.FlagSet) error {
	cfg := goconfigparser.New()
	cfg.AllowNoSectionHeader = true
	if err := cfg.ReadString(data); err != nil {
		return err
	}
	var setError error
	flagSet.VisitAll(func(f *flag.Flag) {
		value, err := cfg.Get("", f.Name)
		if err != nil {
			return
		}
		err = flagSet.Set(f.Name, unquote(value))
		if err != nil && setError == nil {
			setError = fmt.Errorf("bad value for %s: %s", f.Name, err)
		}
	})
	return setError
}

func unquote(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
