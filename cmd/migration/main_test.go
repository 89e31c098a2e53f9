package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/riskibarqy/prode/internal/platform/logging"
)

func TestVersionArg(t *testing.T) {
	t.Parallel()

	if got, err := versionArg([]string{" 1775000000 "}); err != nil || got != 1775000000 {
		t.Fatalf("parse version: got=%d err=%v", got, err)
	}
	for _, args := range [][]string{nil, {"-1"}, {"abc"}} {
		if _, err := versionArg(args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestDown_RejectsBadSteps(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"0", "-2", "many"} {
		if err := down(nil, []string{raw}, logging.NewNop()); err == nil {
			t.Fatalf("expected error for steps %q", raw)
		}
	}
}

func TestApplied_IgnoresNoChange(t *testing.T) {
	t.Parallel()

	for _, err := range []error{nil, migrate.ErrNoChange} {
		if got := applied(err, logging.NewNop(), "ok"); got != nil {
			t.Fatalf("applied(%v)=%v want nil", err, got)
		}
	}
	errBoom := errors.New("boom")
	if err := applied(errBoom, logging.NewNop(), "ok"); !errors.Is(err, errBoom) {
		t.Fatalf("unexpected error: got=%v want=%v", err, errBoom)
	}
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{nil, {"sideways"}} {
		if err := run(args, logging.NewNop()); !errors.Is(err, errUsage) {
			t.Fatalf("run(%v): got=%v want=%v", args, err, errUsage)
		}
	}

	t.Setenv("APP_ENV", "invalid")
	if err := run([]string{"up"}, logging.NewNop()); err == nil || errors.Is(err, errUsage) {
		t.Fatalf("expected config error, got %v", err)
	}
}
