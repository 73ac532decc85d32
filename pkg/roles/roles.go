// Package roles is the permission registry: an explicit capability-set
// check queried at the start of every permissioned operation, with no
// inheritance hierarchy.
package roles

import "sync"

type Permission string

const (
	AdministrateConfig Permission = "administrate-config"
	AuthorizeRequests  Permission = "authorize-requests"
	MintDerivatives    Permission = "mint-derivatives"
	WriteEntropy       Permission = "write-entropy"
)

type Registry struct {
	mu     sync.RWMutex
	grants map[string]map[Permission]struct{}
}

func NewRegistry() *Registry {
	return &Registry{grants: map[string]map[Permission]struct{}{}}
}

func (r *Registry) Grant(account string, perm Permission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.grants[account]
	if !ok {
		set = map[Permission]struct{}{}
		r.grants[account] = set
	}
	set[perm] = struct{}{}
}

func (r *Registry) Revoke(account string, perm Permission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.grants[account]; ok {
		delete(set, perm)
		if len(set) == 0 {
			delete(r.grants, account)
		}
	}
}

func (r *Registry) Has(account string, perm Permission) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.grants[account]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// Permissions returns the capabilities granted to account, in no
// particular order.
func (r *Registry) Permissions(account string) []Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.grants[account]
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}
