package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	rulesrpc "focus/internal/modules/rules/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

// stateEnv optionally names a JSON file that keeps installed rules across
// plugin restarts.
const stateEnv = "FOCUS_ENFORCER_STATE"

type server struct {
	mu    sync.Mutex
	path  string
	rules map[int32]rulesrpc.Rule
}

func newServer(path string) (*server, error) {
	s := &server{path: path, rules: map[int32]rulesrpc.Rule{}}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	var saved []rulesrpc.Rule
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for _, rule := range saved {
		s.rules[rule.ID] = rule
	}
	return s, nil
}

func (s *server) InstallOrReplace(_ context.Context, in *rulesrpc.InstallRequest) (*rulesrpc.Empty, error) {
	if in.Rule.ID <= 0 {
		return nil, fmt.Errorf("rule id must be positive, got %d", in.Rule.ID)
	}
	if strings.TrimSpace(in.Rule.Domain) == "" {
		return nil, fmt.Errorf("rule %d has no domain", in.Rule.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[in.Rule.ID] = in.Rule
	return &rulesrpc.Empty{}, s.save()
}

func (s *server) ListInstalled(_ context.Context, _ *rulesrpc.Empty) (*rulesrpc.ListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &rulesrpc.ListResponse{Rules: s.sorted()}, nil
}

func (s *server) Remove(_ context.Context, in *rulesrpc.RemoveRequest) (*rulesrpc.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range in.IDs {
		delete(s.rules, id)
	}
	return &rulesrpc.Empty{}, s.save()
}

func (s *server) sorted() []rulesrpc.Rule {
	out := make([]rulesrpc.Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *server) save() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.Marshal(s.sorted())
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}

func main() {
	impl, err := newServer(os.Getenv(stateEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "memory-enforcer: %v\n", err)
		os.Exit(1)
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: rulesrpc.HandshakeConfig,
		Plugins:         rulesrpc.PluginMap(impl),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
