package usecase

import (
	"context"
	"errors"

	"focus/internal/modules/session/domain"
	"focus/internal/modules/session/dto"
	sessionin "focus/internal/modules/session/port/in"
	sessionout "focus/internal/modules/session/port/out"
	apperrors "focus/internal/platform/errors"
)

type controllerPort interface {
	Recover(ctx context.Context) (bool, int, error)
	ClearRules(ctx context.Context) (int, error)
}

type daemonPort interface {
	Run(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status(ctx context.Context) (sessionout.DaemonRuntimeStatus, error)
	Logs(ctx context.Context, tail int) (string, error)
	Send(ctx context.Context, req domain.Request) (domain.Response, error)
}

// Interactor routes session commands to the daemon, which owns the live
// timer. Rule maintenance also goes to the daemon when one answers and
// falls back to the in-process controller otherwise.
type Interactor struct {
	controller controllerPort
	daemon     daemonPort
}

func NewInteractor(controller controllerPort, daemon daemonPort) sessionin.Usecase {
	return &Interactor{controller: controller, daemon: daemon}
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error) {
	resp, err := i.daemon.Send(ctx, domain.Request{Action: domain.ActionStart, Duration: input.DurationMinutes})
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return mapResponse(resp), nil
}

func (i *Interactor) Stop(ctx context.Context) (dto.SessionOutput, error) {
	resp, err := i.daemon.Send(ctx, domain.Request{Action: domain.ActionStop})
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return mapResponse(resp), nil
}

func (i *Interactor) State(ctx context.Context) (dto.SessionOutput, error) {
	resp, err := i.daemon.Send(ctx, domain.Request{Action: domain.ActionQuery})
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return mapResponse(resp), nil
}

func (i *Interactor) Recover(ctx context.Context) (dto.RecoverOutput, error) {
	resp, err := i.daemon.Send(ctx, domain.Request{Action: domain.ActionRecover})
	if err == nil {
		return dto.RecoverOutput{TimerActive: resp.Active, RulesRemoved: resp.RulesRemoved}, nil
	}
	if !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		return dto.RecoverOutput{}, err
	}
	active, removed, err := i.controller.Recover(ctx)
	if err != nil {
		return dto.RecoverOutput{}, err
	}
	return dto.RecoverOutput{TimerActive: active, RulesRemoved: removed, Local: true}, nil
}

func (i *Interactor) ClearRules(ctx context.Context) (dto.ClearOutput, error) {
	resp, err := i.daemon.Send(ctx, domain.Request{Action: domain.ActionClearRules})
	if err == nil {
		return dto.ClearOutput{RulesRemoved: resp.RulesRemoved}, nil
	}
	if !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		return dto.ClearOutput{}, err
	}
	removed, err := i.controller.ClearRules(ctx)
	if err != nil {
		return dto.ClearOutput{}, err
	}
	return dto.ClearOutput{RulesRemoved: removed, Local: true}, nil
}

func (i *Interactor) RunDaemon(ctx context.Context) error {
	return i.daemon.Run(ctx)
}

func (i *Interactor) StartDaemon(ctx context.Context) error {
	return i.daemon.Start(ctx)
}

func (i *Interactor) StopDaemon(ctx context.Context) error {
	return i.daemon.Stop(ctx)
}

func (i *Interactor) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	status, err := i.daemon.Status(ctx)
	if err != nil {
		return dto.DaemonStatusOutput{}, err
	}
	out := dto.DaemonStatusOutput{
		Running:    status.Running,
		PID:        status.PID,
		SocketPath: status.SocketPath,
	}
	if status.Session != nil {
		session := mapResponse(*status.Session)
		out.Session = &session
	}
	return out, nil
}

func (i *Interactor) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return i.daemon.Logs(ctx, tail)
}

func mapResponse(resp domain.Response) dto.SessionOutput {
	return dto.SessionOutput{
		Status:           string(resp.Status),
		Active:           resp.Active,
		ScheduledAt:      resp.ScheduledAt,
		RemainingSeconds: resp.RemainingSeconds,
	}
}
