package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"strings"
	"time"

	"focus/internal/modules/session/domain"
	sessionout "focus/internal/modules/session/port/out"
	apperrors "focus/internal/platform/errors"
)

const (
	rpcServiceName = "Focus"
	callTimeout    = 10 * time.Second
)

type JSONRPCServer struct{}

type JSONRPCClient struct{}

func NewJSONRPCServer() sessionout.IPCServer {
	return &JSONRPCServer{}
}

func NewJSONRPCClient() sessionout.IPCClient {
	return &JSONRPCClient{}
}

// Empty stands in for absent arguments; net/rpc requires exported types.
type Empty struct{}

type rpcHandler struct {
	h sessionout.IPCHandler
}

func (s *rpcHandler) Handle(req domain.Request, resp *domain.Response) error {
	out, err := s.h.Handle(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (s *rpcHandler) Shutdown(_ Empty, _ *Empty) error {
	return s.h.Shutdown(context.Background())
}

func (s *JSONRPCServer) Serve(ctx context.Context, socketPath string, handler sessionout.IPCHandler) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod ipc socket: %w", err)
	}
	defer ln.Close()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName(rpcServiceName, &rpcHandler{h: handler}); err != nil {
		return fmt.Errorf("register ipc handler: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

func (c *JSONRPCClient) Handle(ctx context.Context, socketPath string, req domain.Request) (domain.Response, error) {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return domain.Response{}, err
	}
	defer client.Close()
	resp := domain.Response{}
	if err := client.Call(rpcServiceName+".Handle", req, &resp); err != nil {
		return domain.Response{}, remoteError(err)
	}
	return resp, nil
}

func (c *JSONRPCClient) Shutdown(ctx context.Context, socketPath string) error {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Call(rpcServiceName+".Shutdown", Empty{}, &Empty{}); err != nil {
		return remoteError(err)
	}
	return nil
}

func dialClient(ctx context.Context, socketPath string) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDaemonNotRunning, err)
	}
	_ = conn.SetDeadline(time.Now().Add(callTimeout))
	return rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)), nil
}

// wireSentinels lose their identity on the wire; remoteError restores them
// by message prefix.
var wireSentinels = []error{apperrors.ErrUnknownAction, apperrors.ErrSessionActive}

func remoteError(err error) error {
	var serverErr rpc.ServerError
	if !errors.As(err, &serverErr) {
		return err
	}
	msg := string(serverErr)
	for _, sentinel := range wireSentinels {
		if detail, ok := strings.CutPrefix(msg, sentinel.Error()); ok {
			return fmt.Errorf("%w%s", sentinel, detail)
		}
	}
	return err
}
