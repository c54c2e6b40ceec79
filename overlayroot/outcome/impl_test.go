package outcome

import (
	"errors"
	"testing"

	"github.com/Cloud-Foundations/overlayroot/lib/log/testlogger"
)

func TestRecorder(t *testing.T) {
	logger := testlogger.New(t)
	reporter := NewReporter(logger, false)
	rec := reporter.Begin()
	rec.Info("mounted tmpfs")
	rec.Warn(errors.New("rw device missing"))
	rec.Fail(errors.New("root device missing"))
	o := rec.Outcome()
	if o.Failures != 1 || o.Warnings != 1 || len(o.Errors) != 2 {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	messages := logger.Messages()
	expected := []string{
		"[FAIL:overlay] rw device missing",
		"[FAIL:overlay] root device missing",
	}
	if len(messages) != len(expected) {
		t.Fatalf("got messages: %v", messages)
	}
	for index, message := range messages {
		if message != expected[index] {
			t.Errorf("message %d: \"%s\", expected \"%s\"",
				index, message, expected[index])
		}
	}
}

func TestVerboseInfo(t *testing.T) {
	logger := testlogger.New(t)
	rec := NewReporter(logger, true).Begin()
	rec.Infof("using %s", "tmpfs")
	messages := logger.Messages()
	if len(messages) != 1 || messages[0] != "[INFO:overlay] using tmpfs" {
		t.Errorf("unexpected messages: %v", messages)
	}
	if o := rec.Outcome(); o.Failed() || o.Warnings != 0 {
		t.Errorf("info counted: %+v", o)
	}
}

func TestMerge(t *testing.T) {
	var total Outcome
	total.Merge(Outcome{Warnings: 1, Errors: []error{errors.New("a")}})
	total.Merge(Outcome{})
	total.Merge(Outcome{Failures: 2, Errors: []error{errors.New("b"),
		errors.New("c")}})
	if total.Failures != 2 || total.Warnings != 1 || len(total.Errors) != 3 {
		t.Errorf("unexpected total: %+v", total)
	}
	if !total.Failed() {
		t.Error("Failed() is false")
	}
}

func TestResultString(t *testing.T) {
	if s := Continue().String(); s != "continue" {
		t.Errorf("Continue: %s", s)
	}
	s := Terminate(HandoffFatalAbort, "move failed").String()
	if s != "terminate: fatal-abort: move failed" {
		t.Errorf("Terminate: %s", s)
	}
}
