package in

import (
	"context"

	sessiondto "focus/internal/modules/session/dto"
	sessionin "focus/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, minutes int) (sessiondto.SessionOutput, error) {
	return h.usecase.Start(ctx, sessiondto.StartInput{DurationMinutes: minutes})
}

func (h CLIHandler) Stop(ctx context.Context) (sessiondto.SessionOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (sessiondto.SessionOutput, error) {
	return h.usecase.State(ctx)
}

func (h CLIHandler) Install(ctx context.Context) (sessiondto.RecoverOutput, error) {
	return h.usecase.Recover(ctx)
}

func (h CLIHandler) ClearRules(ctx context.Context) (sessiondto.ClearOutput, error) {
	return h.usecase.ClearRules(ctx)
}

func (h CLIHandler) RunDaemon(ctx context.Context) error {
	return h.usecase.RunDaemon(ctx)
}

func (h CLIHandler) StartDaemon(ctx context.Context) error {
	return h.usecase.StartDaemon(ctx)
}

func (h CLIHandler) StopDaemon(ctx context.Context) error {
	return h.usecase.StopDaemon(ctx)
}

func (h CLIHandler) DaemonStatus(ctx context.Context) (sessiondto.DaemonStatusOutput, error) {
	return h.usecase.DaemonStatus(ctx)
}

func (h CLIHandler) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return h.usecase.DaemonLogs(ctx, tail)
}
