package out

import (
	"context"

	"focus/internal/modules/rules/domain"
)

// Engine is the network-rule engine. Installed rules take effect
// immediately; there is no commit step.
type Engine interface {
	InstallOrReplace(ctx context.Context, rule domain.BlockRule) error
	ListInstalled(ctx context.Context) ([]domain.BlockRule, error)
	Remove(ctx context.Context, ids []int) error
}

// Projector materializes the full installed rule set somewhere it is
// enforced, such as a hosts file.
type Projector interface {
	Project(ctx context.Context, rules []domain.BlockRule) error
}
