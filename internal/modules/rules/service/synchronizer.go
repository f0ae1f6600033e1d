package service

import (
	"context"
	"errors"
	"fmt"

	"focus/internal/modules/rules/domain"
	rulesout "focus/internal/modules/rules/port/out"

	hclog "github.com/hashicorp/go-hclog"
)

// Synchronizer translates the site list into installed block rules.
// Failures are logged and returned; callers decide whether they matter.
type Synchronizer struct {
	engine rulesout.Engine
	log    hclog.Logger
}

func NewSynchronizer(engine rulesout.Engine, log hclog.Logger) *Synchronizer {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Synchronizer{engine: engine, log: log.Named("rules")}
}

// Apply installs a block rule for name under id, replacing any rule
// already installed under that id.
func (s *Synchronizer) Apply(ctx context.Context, name string, id int) error {
	rule, err := domain.NewBlockRule(id, name)
	if err != nil {
		s.log.Error("rejected blocking rule", "rule_id", id, "domain", name, "error", err)
		return err
	}
	if err := s.engine.InstallOrReplace(ctx, rule); err != nil {
		s.log.Error("failed to add blocking rule", "rule_id", id, "domain", rule.Domain, "error", err)
		return fmt.Errorf("apply rule %d for %s: %w", id, rule.Domain, err)
	}
	s.log.Debug("blocking rule installed", "rule_id", id, "domain", rule.Domain)
	return nil
}

// ApplyAll installs one rule per domain with ids 1..n in list order. Every
// domain is attempted; the returned error joins the individual failures.
func (s *Synchronizer) ApplyAll(ctx context.Context, domains []string) (int, error) {
	var errs []error
	applied := 0
	for i, name := range domains {
		if err := s.Apply(ctx, name, i+1); err != nil {
			errs = append(errs, err)
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}

// RetractAll removes every installed rule, including rules this process
// never installed. Remove is issued even for an empty set so an engine can
// re-project its state.
func (s *Synchronizer) RetractAll(ctx context.Context) (int, error) {
	installed, err := s.engine.ListInstalled(ctx)
	if err != nil {
		s.log.Error("failed to fetch installed rules", "error", err)
		return 0, fmt.Errorf("list installed rules: %w", err)
	}
	ids := domain.RuleIDs(installed)
	if err := s.engine.Remove(ctx, ids); err != nil {
		s.log.Error("failed to remove blocking rules", "count", len(ids), "error", err)
		return 0, fmt.Errorf("remove %d rules: %w", len(ids), err)
	}
	if len(ids) > 0 {
		s.log.Info("blocking rules removed", "count", len(ids))
	}
	return len(ids), nil
}

func (s *Synchronizer) Installed(ctx context.Context) ([]domain.BlockRule, error) {
	return s.engine.ListInstalled(ctx)
}
