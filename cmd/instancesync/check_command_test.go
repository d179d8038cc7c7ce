package main

import (
	"os"
	"testing"

	"instancesync/internal/testsupport"
)

func TestCheckCommandPasses(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Input directory:")
	requireContains(t, out, "[OK] API reachable")
}

func TestCheckCommandReportsMissingInput(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	if err := os.RemoveAll(env.cfg.Paths.InputDir); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected failure when input directory is missing")
	}
	requireContains(t, out, "does not exist")
}

func TestCheckCommandMissingAPIKey(t *testing.T) {
	env := setupCLITestEnv(t, nil, testsupport.WithAPIKey(""))

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected failure without api key")
	}
	requireContains(t, out, "API key missing")
}
