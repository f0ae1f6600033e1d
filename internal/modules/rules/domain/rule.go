package domain

import (
	"errors"
	"fmt"
	"strings"
)

type Action string

type ResourceType string

const (
	ActionBlock       Action       = "block"
	ResourceMainFrame ResourceType = "main_frame"
	DefaultPriority                = 1
)

var (
	ErrInvalidRuleID = errors.New("rule id must be positive")
	ErrEmptyDomain   = errors.New("rule domain is empty")
)

// BlockRule blocks top-level navigation to Domain. ID 0 is reserved.
type BlockRule struct {
	ID            int
	Domain        string
	Priority      int
	Action        Action
	ResourceTypes []ResourceType
}

func NewBlockRule(id int, domain string) (BlockRule, error) {
	if id <= 0 {
		return BlockRule{}, fmt.Errorf("%w: %d", ErrInvalidRuleID, id)
	}
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return BlockRule{}, ErrEmptyDomain
	}
	return BlockRule{
		ID:            id,
		Domain:        domain,
		Priority:      DefaultPriority,
		Action:        ActionBlock,
		ResourceTypes: []ResourceType{ResourceMainFrame},
	}, nil
}

// BlocksNavigation reports whether the rule blocks main-frame requests.
func (r BlockRule) BlocksNavigation() bool {
	if r.Action != ActionBlock {
		return false
	}
	for _, rt := range r.ResourceTypes {
		if rt == ResourceMainFrame {
			return true
		}
	}
	return false
}

func RuleIDs(rules []BlockRule) []int {
	ids := make([]int, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}
