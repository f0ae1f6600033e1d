package in

import (
	"context"

	"focus/internal/modules/session/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error)
	Stop(ctx context.Context) (dto.SessionOutput, error)
	State(ctx context.Context) (dto.SessionOutput, error)
	Recover(ctx context.Context) (dto.RecoverOutput, error)
	ClearRules(ctx context.Context) (dto.ClearOutput, error)
	RunDaemon(ctx context.Context) error
	StartDaemon(ctx context.Context) error
	StopDaemon(ctx context.Context) error
	DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error)
	DaemonLogs(ctx context.Context, tail int) (string, error)
}
