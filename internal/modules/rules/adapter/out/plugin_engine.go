package out

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	rulesrpc "focus/internal/modules/rules/adapter/out/rpc"
	"focus/internal/modules/rules/domain"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// PluginRuleEngine delegates rule enforcement to an external enforcer
// binary speaking the go-plugin gRPC protocol. The plugin process is
// started lazily and restarted if it exits.
type PluginRuleEngine struct {
	binary string
	log    hclog.Logger

	mu       sync.Mutex
	client   *plugin.Client
	enforcer rulesrpc.EnforcerClient
}

func NewPluginRuleEngine(binary string, log hclog.Logger) *PluginRuleEngine {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &PluginRuleEngine{binary: binary, log: log.Named("enforcer")}
}

func (e *PluginRuleEngine) InstallOrReplace(ctx context.Context, rule domain.BlockRule) error {
	client, err := e.connect()
	if err != nil {
		return err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()

	types := make([]string, 0, len(rule.ResourceTypes))
	for _, rt := range rule.ResourceTypes {
		types = append(types, string(rt))
	}
	err = client.InstallOrReplace(callCtx, &rulesrpc.InstallRequest{Rule: rulesrpc.Rule{
		ID:            int32(rule.ID),
		Domain:        rule.Domain,
		Action:        string(rule.Action),
		ResourceTypes: types,
		Priority:      int32(rule.Priority),
	}})
	if err != nil {
		return fmt.Errorf("install rule %d: %w", rule.ID, err)
	}
	return nil
}

func (e *PluginRuleEngine) ListInstalled(ctx context.Context) ([]domain.BlockRule, error) {
	client, err := e.connect()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()

	response, err := client.ListInstalled(callCtx)
	if err != nil {
		return nil, fmt.Errorf("list installed rules: %w", err)
	}
	out := make([]domain.BlockRule, 0, len(response.Rules))
	for _, r := range response.Rules {
		rule := domain.BlockRule{
			ID:       int(r.ID),
			Domain:   r.Domain,
			Action:   domain.Action(r.Action),
			Priority: int(r.Priority),
		}
		for _, rt := range r.ResourceTypes {
			rule.ResourceTypes = append(rule.ResourceTypes, domain.ResourceType(rt))
		}
		out = append(out, rule)
	}
	return out, nil
}

func (e *PluginRuleEngine) Remove(ctx context.Context, ids []int) error {
	client, err := e.connect()
	if err != nil {
		return err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()

	wire := make([]int32, 0, len(ids))
	for _, id := range ids {
		wire = append(wire, int32(id))
	}
	if err := client.Remove(callCtx, &rulesrpc.RemoveRequest{IDs: wire}); err != nil {
		return fmt.Errorf("remove rules: %w", err)
	}
	return nil
}

func (e *PluginRuleEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		e.client.Kill()
		e.client = nil
		e.enforcer = nil
	}
	return nil
}

func (e *PluginRuleEngine) connect() (rulesrpc.EnforcerClient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil && !e.client.Exited() {
		return e.enforcer, nil
	}
	if e.client != nil {
		e.log.Warn("enforcer plugin exited, restarting", "binary", e.binary)
		e.client.Kill()
		e.client = nil
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  rulesrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          rulesrpc.PluginMap(nil),
		Cmd:              exec.Command(e.binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           e.log,
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start enforcer plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(rulesrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense enforcer plugin: %w", err)
	}
	typed, ok := raw.(rulesrpc.EnforcerClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("enforcer rpc client type mismatch")
	}
	e.client = client
	e.enforcer = typed
	return typed, nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
