package failure

import (
	"fmt"

	"github.com/Cloud-Foundations/overlayroot/overlayroot/config"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
)

func gate(o outcome.Outcome) outcome.Result {
	if o.Failures < 1 {
		return outcome.Continue()
	}
	reason := fmt.Sprintf("%d failure(s)", o.Failures)
	if len(o.Errors) > 0 {
		reason += ", last: " + o.Errors[len(o.Errors)-1].Error()
	}
	return outcome.Terminate(outcome.HandoffRescue, reason)
}

func action(result outcome.Result, c *config.Config) Exec {
	initExec := Exec{Path: c.Init, Argv: []string{c.Init}}
	shellExec := Exec{Path: c.Shell, Argv: []string{c.Shell}}
	switch result.Handoff {
	case outcome.HandoffConsole, outcome.HandoffFatalAbort:
		return shellExec
	case outcome.HandoffRescue:
		if c.OnFail == config.OnFailConsole {
			return shellExec
		}
	}
	return initExec
}
