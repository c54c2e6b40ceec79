package switcher

import (
	"fmt"
	"path"

	"github.com/Cloud-Foundations/overlayroot/lib/errors"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

var phaseNames = []string{"pre-commit", "commit", "post-commit"}

func (p Phase) string() string {
	if p < Phase(len(phaseNames)) {
		return phaseNames[p]
	}
	return fmt.Sprintf("UNKNOWN(%d)", p)
}

func checkExists(pathname string) func(sysops.SystemOps) error {
	return func(ops sysops.SystemOps) error {
		if !ops.Exists(pathname) {
			return fmt.Errorf("%s does not exist", pathname)
		}
		return nil
	}
}

func moveMount(source, target string) func(sysops.SystemOps) error {
	return func(ops sysops.SystemOps) error {
		if err := ops.MoveMount(source, target); err != nil {
			return errors.NewRelocationError(source, target, err)
		}
		return nil
	}
}

func detach(target string) func(sysops.SystemOps) error {
	return func(ops sysops.SystemOps) error {
		return ops.Unmount(target, true)
	}
}

func newSteps(options Options) []Step {
	newRoot := options.Layout.NewRoot
	putOld := path.Join("/", options.PutOld)
	oldRoot := func(pathname string) string {
		return path.Join(putOld, pathname)
	}
	return []Step{
		{
			Name:   "check " + options.Init,
			Phase:  PreCommit,
			Action: checkExists(path.Join(newRoot, options.Init)),
		},
		{
			Name:   "check /ro",
			Phase:  PreCommit,
			Action: checkExists(path.Join(newRoot, "ro")),
		},
		{
			Name:   "check /rw",
			Phase:  PreCommit,
			Action: checkExists(path.Join(newRoot, "rw")),
		},
		{
			Name:  "create " + putOld,
			Phase: PreCommit,
			Action: func(ops sysops.SystemOps) error {
				return ops.MakeDir(path.Join(newRoot, putOld))
			},
		},
		{
			Name:  "pivot_root",
			Phase: Commit,
			Action: func(ops sysops.SystemOps) error {
				return ops.PivotRoot(newRoot, path.Join(newRoot, putOld))
			},
		},
		{
			Name:     "move lower to /ro",
			Phase:    PostCommit,
			Required: true,
			Action:   moveMount(oldRoot(options.Layout.Lower), "/ro"),
		},
		{
			Name:     "move writable to /rw",
			Phase:    PostCommit,
			Required: true,
			Action:   moveMount(oldRoot(options.Layout.Rw), "/rw"),
		},
		{
			Name:   "detach staging",
			Phase:  PostCommit,
			Action: detach(oldRoot(options.Layout.Staging)),
		},
		{
			Name:   "detach " + options.ProcDir,
			Phase:  PostCommit,
			Action: detach(oldRoot(options.ProcDir)),
		},
		{
			Name:   "detach old root",
			Phase:  PostCommit,
			Action: detach(putOld),
		},
	}
}

func run(ops sysops.SystemOps, steps []Step,
	reporter *outcome.Reporter) (outcome.Result, outcome.Outcome) {
	rec := reporter.Begin()
	for _, step := range steps {
		err := step.Action(ops)
		if err == nil {
			rec.Infof("%s: %s", step.Phase, step.Name)
			continue
		}
		err = fmt.Errorf("%s: %w", step.Name, err)
		switch {
		case step.Phase != PostCommit:
			rec.Fail(err)
			return outcome.Terminate(outcome.HandoffRescue, err.Error()),
				rec.Outcome()
		case step.Required:
			rec.Fail(err)
			return outcome.Terminate(outcome.HandoffFatalAbort, err.Error()),
				rec.Outcome()
		default:
			rec.Warn(err)
		}
	}
	return outcome.Terminate(outcome.HandoffNormal, ""), rec.Outcome()
}
