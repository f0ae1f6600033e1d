package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"focus/internal/modules/session/domain"
	sessionout "focus/internal/modules/session/port/out"
	apperrors "focus/internal/platform/errors"

	hclog "github.com/hashicorp/go-hclog"
)

const (
	daemonStartTimeout  = 5 * time.Second
	daemonStopTimeout   = 2 * time.Second
	defaultLogTailLines = 50
)

// Daemon hosts the controller in a long-lived process: it owns the live
// timers and answers protocol requests on a unix socket.
type Daemon struct {
	controller *Controller
	alarms     sessionout.AlarmSource
	store      sessionout.DaemonStore
	server     sessionout.IPCServer
	client     sessionout.IPCClient
	dataDir    string
	log        hclog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewDaemon(
	controller *Controller,
	alarms sessionout.AlarmSource,
	store sessionout.DaemonStore,
	server sessionout.IPCServer,
	client sessionout.IPCClient,
	dataDir string,
	log hclog.Logger,
) *Daemon {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Daemon{
		controller: controller,
		alarms:     alarms,
		store:      store,
		server:     server,
		client:     client,
		dataDir:    dataDir,
		log:        log.Named("daemon"),
	}
}

// Run serves until ctx is cancelled or a Shutdown request arrives. Startup
// runs the recovery sweep before re-arming persisted alarms.
func (d *Daemon) Run(ctx context.Context) error {
	if pid, err := d.store.ReadPID(ctx); err == nil && pid != os.Getpid() && processAlive(pid) && socketReachable(d.store.SocketPath()) {
		return fmt.Errorf("%w: already running as pid %d", apperrors.ErrDaemonStartFailed, pid)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()
	defer d.cleanup(context.Background(), cancel)

	if err := d.store.WritePID(ctx, os.Getpid()); err != nil {
		return err
	}

	d.alarms.OnAlarm(d.controller.HandleAlarm)
	if active, removed, err := d.controller.Recover(runCtx); err != nil {
		d.log.Error("recovery sweep failed", "error", err)
	} else {
		d.log.Info("recovery sweep done", "session_active", active, "rules_removed", removed)
	}
	if err := d.alarms.Restore(runCtx); err != nil {
		d.log.Error("failed to restore alarms", "error", err)
	}

	d.log.Info("focus daemon listening", "pid", os.Getpid(), "socket", d.store.SocketPath())
	err := d.server.Serve(runCtx, d.store.SocketPath(), d)
	if err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, context.Canceled) {
		return err
	}
	d.log.Info("focus daemon stopped")
	return nil
}

func (d *Daemon) Handle(ctx context.Context, req domain.Request) (domain.Response, error) {
	d.log.Debug("request", "action", req.Action, "duration", req.Duration)
	return d.controller.Handle(ctx, req)
}

func (d *Daemon) Shutdown(_ context.Context) error {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel == nil {
		return fmt.Errorf("%w: not serving", apperrors.ErrDaemonNotRunning)
	}
	cancel()
	return nil
}

// Send forwards a protocol request to the running daemon.
func (d *Daemon) Send(ctx context.Context, req domain.Request) (domain.Response, error) {
	return d.client.Handle(ctx, d.store.SocketPath(), req)
}

// Start launches "focus daemon run" detached and waits for its socket. An
// already reachable daemon is left alone.
func (d *Daemon) Start(ctx context.Context) error {
	if socketReachable(d.store.SocketPath()) {
		return nil
	}
	if pid, err := d.store.ReadPID(ctx); err == nil && processAlive(pid) {
		return fmt.Errorf("%w: pid %d is alive but its socket is unavailable", apperrors.ErrDaemonStartFailed, pid)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.store.LogPath()), 0o755); err != nil {
		return fmt.Errorf("create daemon log dir: %w", err)
	}

	logFile, err := os.OpenFile(d.store.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(execPath, "daemon", "run", "--data-dir", d.dataDir)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if err := d.store.WritePID(ctx, cmd.Process.Pid); err != nil {
		return err
	}
	_ = cmd.Process.Release()

	if !poll(daemonStartTimeout, func() bool { return socketReachable(d.store.SocketPath()) }) {
		_ = d.store.ClearPID(ctx)
		return fmt.Errorf("%w: socket %s not ready", apperrors.ErrDaemonStartFailed, d.store.SocketPath())
	}
	return nil
}

// Stop asks the daemon to shut down and falls back to signals. Stopping the
// daemon does not end a session; the timer survives in the store.
func (d *Daemon) Stop(ctx context.Context) error {
	_ = d.client.Shutdown(ctx, d.store.SocketPath())

	pid, err := d.store.ReadPID(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_ = os.Remove(d.store.SocketPath())
			return nil
		}
		return err
	}
	d.waitForExit(ctx, pid)
	if d.serving(ctx, pid) && pid != os.Getpid() {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("stop daemon pid=%d: %w", pid, err)
		}
		d.waitForExit(ctx, pid)
		if processAlive(pid) {
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
	}
	if err := d.store.ClearPID(ctx); err != nil {
		return err
	}
	_ = os.Remove(d.store.SocketPath())
	return nil
}

// serving reports whether pid is alive and still owns the pid file. A
// daemon removes its pid file on graceful shutdown.
func (d *Daemon) serving(ctx context.Context, pid int) bool {
	if pid <= 0 || !processAlive(pid) {
		return false
	}
	current, err := d.store.ReadPID(ctx)
	return err == nil && current == pid
}

func (d *Daemon) waitForExit(ctx context.Context, pid int) {
	poll(daemonStopTimeout, func() bool { return !d.serving(ctx, pid) })
}

func (d *Daemon) Status(ctx context.Context) (sessionout.DaemonRuntimeStatus, error) {
	out := sessionout.DaemonRuntimeStatus{SocketPath: d.store.SocketPath()}

	pid, err := d.store.ReadPID(ctx)
	if err == nil {
		out.PID = pid
		out.Running = processAlive(pid)
	}
	if out.Running {
		resp, err := d.client.Handle(ctx, d.store.SocketPath(), domain.Request{Action: domain.ActionQuery})
		if err == nil {
			out.Session = &resp
		}
	}
	return out, nil
}

func (d *Daemon) Logs(_ context.Context, tail int) (string, error) {
	if tail <= 0 {
		tail = defaultLogTailLines
	}
	file, err := os.Open(d.store.LogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open daemon log: %w", err)
	}
	defer file.Close()

	ring := make([]string, tail)
	n := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		ring[n%tail] = scanner.Text()
		n++
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan daemon log: %w", err)
	}
	if n <= tail {
		return strings.Join(ring[:n], "\n"), nil
	}
	start := n % tail
	return strings.Join(append(ring[start:], ring[:start]...), "\n"), nil
}

func (d *Daemon) cleanup(ctx context.Context, cancel context.CancelFunc) {
	cancel()
	d.mu.Lock()
	d.cancel = nil
	d.mu.Unlock()
	d.alarms.Close()
	_ = d.store.ClearPID(ctx)
	_ = os.Remove(d.store.SocketPath())
}

// poll checks cond until it holds or timeout passes.
func poll(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
	return true
}

func socketReachable(path string) bool {
	conn, err := net.DialTimeout("unix", path, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
