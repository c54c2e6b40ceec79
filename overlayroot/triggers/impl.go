package triggers

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
)

func parseLine(identifier string) (Line, error) {
	var line Line
	identifier = strings.TrimSpace(identifier)
	if strings.HasPrefix(identifier, "!") {
		line.ActiveLow = true
		identifier = identifier[1:]
	}
	number, err := strconv.ParseUint(identifier, 10, 16)
	if err != nil {
		return Line{}, fmt.Errorf("bad trigger line: \"%s\"", identifier)
	}
	line.Number = uint(number)
	return line, nil
}

func (l Line) string() string {
	if l.ActiveLow {
		return "!" + strconv.FormatUint(uint64(l.Number), 10)
	}
	return strconv.FormatUint(uint64(l.Number), 10)
}

func (r *SysfsReader) asserted(line Line) (bool, error) {
	number := strconv.FormatUint(uint64(line.Number), 10)
	gpioDir := path.Join(r.sysfsDir, "class", "gpio", "gpio"+number)
	if !r.ops.Exists(gpioDir) {
		err := r.ops.WriteFile(path.Join(r.sysfsDir, "class", "gpio", "export"),
			[]byte(number))
		if err != nil {
			return false, err
		}
	}
	data, err := r.ops.ReadFile(path.Join(gpioDir, "value"))
	if err != nil {
		return false, err
	}
	var high bool
	switch strings.TrimSpace(string(data)) {
	case "0":
	case "1":
		high = true
	default:
		return false, errors.New("bad value for gpio" + number)
	}
	return high != line.ActiveLow, nil
}

func check(reader Reader, disable, console string,
	reporter *outcome.Reporter) (outcome.Result, outcome.Outcome) {
	rec := reporter.Begin()
	triggers := []struct {
		name       string
		identifier string
		handoff    outcome.Handoff
	}{
		{"DISABLE_TRIGGER", disable, outcome.HandoffNormal},
		{"CONSOLE_TRIGGER", console, outcome.HandoffConsole},
	}
	for _, trigger := range triggers {
		if trigger.identifier == "" {
			continue
		}
		line, err := parseLine(trigger.identifier)
		if err == nil {
			var asserted bool
			asserted, err = reader.Asserted(line)
			if err == nil && asserted {
				reason := trigger.name + " asserted on line " + line.String()
				rec.Info(reason)
				return outcome.Terminate(trigger.handoff, reason), rec.Outcome()
			}
		}
		if err != nil {
			err = fmt.Errorf("%s misconfigured: %s", trigger.name, err)
			rec.Fail(err)
			return outcome.Terminate(outcome.HandoffFatalAbort, err.Error()),
				rec.Outcome()
		}
	}
	return outcome.Continue(), rec.Outcome()
}
