package out

import (
	"context"
	"time"

	"focus/internal/modules/session/domain"
)

type SiteSource interface {
	Domains(ctx context.Context) ([]string, error)
}

type RuleSynchronizer interface {
	ApplyAll(ctx context.Context, domains []string) (int, error)
	RetractAll(ctx context.Context) (int, error)
}

type Timer interface {
	Create(ctx context.Context, name string, minutes int) (time.Time, error)
	Cancel(ctx context.Context, name string) error
	// Get reports the scheduled time and false when no timer exists.
	Get(ctx context.Context, name string) (time.Time, bool, error)
}

type AlarmSource interface {
	OnAlarm(listener func(ctx context.Context, name string))
	Restore(ctx context.Context) error
	Close()
}

type DaemonStore interface {
	WritePID(ctx context.Context, pid int) error
	ReadPID(ctx context.Context) (int, error)
	ClearPID(ctx context.Context) error
	SocketPath() string
	LogPath() string
}

// IPCHandler is what the daemon exposes over its socket.
type IPCHandler interface {
	Handle(ctx context.Context, req domain.Request) (domain.Response, error)
	Shutdown(ctx context.Context) error
}

type IPCServer interface {
	Serve(ctx context.Context, socketPath string, handler IPCHandler) error
}

type IPCClient interface {
	Handle(ctx context.Context, socketPath string, req domain.Request) (domain.Response, error)
	Shutdown(ctx context.Context, socketPath string) error
}

type DaemonRuntimeStatus struct {
	Running    bool
	PID        int
	SocketPath string
	Session    *domain.Response
}
