package main

import (
	"strings"
	"testing"
)

func TestShiftCmd_Help(t *testing.T) {
	out, err := runCommand(t, "shift", "--help")
	if err != nil {
		t.Fatalf("shift --help failed: %v", err)
	}
	if !strings.Contains(out, "add") || !strings.Contains(out, "list") {
		t.Errorf("expected help to list 'add' and 'list', got: %s", out)
	}
}

func TestShiftAddCmd_RequiresFlags(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCommand(t, "shift", "add", "--config", cfgPath); err == nil {
		t.Fatal("expected error for missing required flags")
	}
}

func TestShiftAddCmd_BadStartTime(t *testing.T) {
	cfgPath := writeTestConfig(t)
	_, err := runCommand(t, "shift", "add",
		"--config", cfgPath,
		"--start", "tomorrow",
		"--end", "2026-09-01 23:00",
		"--location", "downtown")
	if err == nil {
		t.Fatal("expected error for unparseable start time")
	}
	if !strings.Contains(err.Error(), "parse --start") {
		t.Errorf("error = %q", err)
	}
}

func TestShiftAddCmd_EndBeforeStart(t *testing.T) {
	cfgPath := writeTestConfig(t)
	_, err := runCommand(t, "shift", "add",
		"--config", cfgPath,
		"--start", "2026-09-01 23:00",
		"--end", "2026-09-01 17:00",
		"--location", "downtown")
	if err == nil {
		t.Fatal("expected error for end before start")
	}
	if !strings.Contains(err.Error(), "end must be after start") {
		t.Errorf("error = %q", err)
	}
}

func TestShiftAddAndList(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCommand(t, "db", "migrate", "--config", cfgPath); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	out, err := runCommand(t, "shift", "add",
		"--config", cfgPath,
		"--start", "2099-09-01 17:00",
		"--end", "2099-09-01 23:00",
		"--location", "downtown",
		"--note", "bring keys")
	if err != nil {
		t.Fatalf("shift add failed: %v", err)
	}
	if !strings.Contains(out, "Added shift") {
		t.Errorf("output = %s", out)
	}

	out, err = runCommand(t, "shift", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("shift list failed: %v", err)
	}
	if !strings.Contains(out, "downtown") || !strings.Contains(out, "bring keys") {
		t.Errorf("output = %s", out)
	}
	if !strings.Contains(out, "scheduled") {
		t.Errorf("output = %s", out)
	}
}

func TestShiftListCmd_Empty(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCommand(t, "db", "migrate", "--config", cfgPath); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	out, err := runCommand(t, "shift", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("shift list failed: %v", err)
	}
	if !strings.Contains(out, "No shifts found.") {
		t.Errorf("output = %s", out)
	}
}
