package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"focus/internal/bootstrap"
	"focus/internal/platform/config"
)

func TestNewWiresLedgerEngine(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte("engine: ledger\nlog_level: error\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()
	ctx := context.Background()

	if _, err := app.SitesCLI.Add(ctx, "https://www.Example.com/path"); err != nil {
		t.Fatalf("add site: %v", err)
	}
	sites, err := app.SitesCLI.List(ctx)
	if err != nil || len(sites) != 1 || sites[0].Domain != "example.com" {
		t.Fatalf("unexpected sites: %+v err=%v", sites, err)
	}

	recovered, err := app.SessionCLI.Install(ctx)
	if err != nil {
		t.Fatalf("install sweep: %v", err)
	}
	if recovered.TimerActive || recovered.RulesRemoved != 0 {
		t.Fatalf("unexpected sweep result on a fresh install: %+v", recovered)
	}
	rules, err := app.RulesCLI.List(ctx)
	if err != nil || len(rules) != 0 {
		t.Fatalf("expected no rules, got %+v err=%v", rules, err)
	}

	status, err := app.SessionCLI.DaemonStatus(ctx)
	if err != nil {
		t.Fatalf("daemon status: %v", err)
	}
	if status.Running {
		t.Fatalf("daemon should not be running")
	}
}

func TestNewHostsEngineClearsStaleBlockOnInstall(t *testing.T) {
	dir := t.TempDir()
	hosts := filepath.Join(dir, "hosts")
	base := "127.0.0.1 localhost\n"
	stale := base + "\n# >>> focus block rules >>>\n0.0.0.0 example.com\n# <<< focus block rules <<<\n"
	if err := os.WriteFile(hosts, []byte(stale), 0o644); err != nil {
		t.Fatalf("write hosts: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte("hosts_path: "+hosts+"\nlog_level: error\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	if _, err := app.SessionCLI.Install(context.Background()); err != nil {
		t.Fatalf("install sweep: %v", err)
	}
	raw, err := os.ReadFile(hosts)
	if err != nil {
		t.Fatalf("read hosts: %v", err)
	}
	if string(raw) != base {
		t.Fatalf("expected stale block removed, got %q", raw)
	}
}
