package engine

import (
	"sort"
	"time"
)

// IsAdmin reports membership in the admin set.
func (e *Engine) IsAdmin(p Principal) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isAdmin(p)
}

// AddAdmin grants admin capability. Only existing admins may grant it;
// the set is seeded with the deployer at construction.
func (e *Engine) AddAdmin(caller, p Principal) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("add_admin", start, err) }(e.now())

	if !e.isAdmin(caller) {
		return errUnauthorized("admin management requires admin")
	}
	if p == "" {
		return errValidation("principal required")
	}
	e.st.Admins[p] = struct{}{}
	return nil
}

// Admins lists the admin set, sorted. Admin only.
func (e *Engine) Admins(caller Principal) ([]Principal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isAdmin(caller) {
		return nil, errUnauthorized("admin list requires admin")
	}
	admins := make([]Principal, 0, len(e.st.Admins))
	for p := range e.st.Admins {
		admins = append(admins, p)
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i] < admins[j] })
	return admins, nil
}
