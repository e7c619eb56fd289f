package workflow

import (
	"context"
	"sync"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/config"
)

// AssignmentPool picks an assignee for a step's required role.
type AssignmentPool interface {
	NextCandidate(ctx context.Context, role string) (string, error)
}

// RoleMemberFinder is the slice of the user repository the pool needs.
type RoleMemberFinder interface {
	FindActiveByRole(ctx context.Context, role string) ([]common_models.User, error)
}

// RoleBasedPool assigns the least-recently-assigned active user holding
// the role, so work spreads across the pool instead of always landing on
// the first user in the list. Recency is tracked with a monotonic
// sequence, which keeps the ordering deterministic. An empty pool falls
// back to the configured default assignee.
type RoleBasedPool struct {
	finder       RoleMemberFinder
	defaultUser  string
	mu           sync.Mutex
	seq          uint64
	lastAssigned map[string]uint64 // user id -> assignment sequence
}

func NewRoleBasedPool(finder RoleMemberFinder, cfg *config.Config) *RoleBasedPool {
	return &RoleBasedPool{
		finder:       finder,
		defaultUser:  cfg.DefaultAssignee,
		lastAssigned: make(map[string]uint64),
	}
}

func (p *RoleBasedPool) NextCandidate(ctx context.Context, role string) (string, error) {
	users, err := p.finder.FindActiveByRole(ctx, role)
	if err != nil {
		return "", err
	}

	if len(users) == 0 {
		if p.defaultUser != "" {
			return p.defaultUser, nil
		}
		return "", ErrNoCandidate
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	best := ""
	var bestAt uint64
	for _, u := range users {
		id := u.ID.Hex()
		at, seen := p.lastAssigned[id]
		if !seen {
			best = id
			break
		}
		if best == "" || at < bestAt {
			best = id
			bestAt = at
		}
	}

	p.seq++
	p.lastAssigned[best] = p.seq
	return best, nil
}

// StaticPool maps roles to fixed candidate lists. Used for tests and for
// deployments without a user directory.
type StaticPool struct {
	mu           sync.Mutex
	members      map[string][]string
	defaultUser  string
	seq          uint64
	lastAssigned map[string]uint64
}

func NewStaticPool(members map[string][]string, defaultUser string) *StaticPool {
	return &StaticPool{
		members:      members,
		defaultUser:  defaultUser,
		lastAssigned: make(map[string]uint64),
	}
}

func (p *StaticPool) NextCandidate(_ context.Context, role string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := p.members[role]
	if len(candidates) == 0 {
		if p.defaultUser != "" {
			return p.defaultUser, nil
		}
		return "", ErrNoCandidate
	}

	best := ""
	var bestAt uint64
	for _, id := range candidates {
		at, seen := p.lastAssigned[id]
		if !seen {
			best = id
			break
		}
		if best == "" || at < bestAt {
			best = id
			bestAt = at
		}
	}

	p.seq++
	p.lastAssigned[best] = p.seq
	return best, nil
}
