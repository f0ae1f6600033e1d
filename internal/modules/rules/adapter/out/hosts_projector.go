package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"focus/internal/modules/rules/domain"
	"focus/internal/platform/managedblock"
)

var HostsMarkers = managedblock.Markers{
	Begin: "# >>> focus block rules >>>",
	End:   "# <<< focus block rules <<<",
}

// HostsProjector enforces rules by pointing blocked domains at a sink
// address inside a marked block of a hosts file. Lines outside the block
// are never touched.
type HostsProjector struct {
	mu   sync.Mutex
	path string
	sink string
}

func NewHostsProjector(path, sink string) *HostsProjector {
	if strings.TrimSpace(sink) == "" {
		sink = "0.0.0.0"
	}
	return &HostsProjector{path: path, sink: sink}
}

func (p *HostsProjector) Project(_ context.Context, rules []domain.BlockRule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	mode := os.FileMode(0o644)
	raw, err := os.ReadFile(p.path)
	switch {
	case err == nil:
		if info, statErr := os.Stat(p.path); statErr == nil {
			mode = info.Mode().Perm()
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("read hosts file: %w", err)
	}
	content := string(raw)

	lines := p.lines(rules)
	updated := managedblock.Remove(content, HostsMarkers)
	if len(lines) > 0 {
		updated = managedblock.Replace(content, HostsMarkers, lines)
	}
	if updated == content {
		return nil
	}
	return writeAtomic(p.path, []byte(updated), mode)
}

func (p *HostsProjector) lines(rules []domain.BlockRule) []string {
	seen := map[string]struct{}{}
	out := []string{}
	add := func(host string) {
		if _, ok := seen[host]; ok {
			return
		}
		seen[host] = struct{}{}
		out = append(out, p.sink+" "+host)
	}
	for _, rule := range rules {
		if !rule.BlocksNavigation() {
			continue
		}
		add(rule.Domain)
		if !strings.HasPrefix(rule.Domain, "www.") {
			add("www." + rule.Domain)
		}
	}
	return out
}

func writeAtomic(path string, payload []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create hosts dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".focus-hosts-*")
	if err != nil {
		// Directory refuses temp files; write in place.
		if werr := os.WriteFile(path, payload, mode); werr != nil {
			return fmt.Errorf("write hosts file: %w", werr)
		}
		return nil
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write hosts temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close hosts temp: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod hosts temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace hosts file: %w", err)
	}
	return nil
}
