package browse

import "fmt"

// GroupTop is the outer tab group: one tab per sheet plus the overview.
const GroupTop = "top"

// TabOverview is the top-level tab summarising every sheet.
const TabOverview = "overview"

// Gate reports whether a tab may currently be activated.
type Gate func(group, tab string) bool

type tabGroup struct {
	tabs   []string
	active string
}

// Router tracks the active tab of each group. Exactly one tab per group is active.
type Router struct {
	order  []string
	groups map[string]*tabGroup
	gate   Gate
}

func NewRouter(gate Gate) *Router {
	return &Router{groups: map[string]*tabGroup{}, gate: gate}
}

// AddGroup registers a group; the first tab starts active.
func (r *Router) AddGroup(name string, tabs []string) {
	if len(tabs) == 0 {
		return
	}
	if _, ok := r.groups[name]; !ok {
		r.order = append(r.order, name)
	}
	r.groups[name] = &tabGroup{tabs: append([]string(nil), tabs...), active: tabs[0]}
}

func (r *Router) Groups() []string { return append([]string(nil), r.order...) }

func (r *Router) Tabs(group string) []string {
	g, ok := r.groups[group]
	if !ok {
		return nil
	}
	return append([]string(nil), g.tabs...)
}

func (r *Router) Active(group string) string {
	if g, ok := r.groups[group]; ok {
		return g.active
	}
	return ""
}

func (r *Router) Enabled(group, tab string) bool {
	g, ok := r.groups[group]
	if !ok || !contains(g.tabs, tab) {
		return false
	}
	return r.gate == nil || r.gate(group, tab)
}

// Activation is the outcome of a successful Activate call.
type Activation struct {
	Group    string
	Tab      string
	Previous string
}

func (a Activation) Changed() bool { return a.Tab != a.Previous }

// Activate makes tab the active tab of group. Unknown or disabled tabs leave the
// selection untouched.
func (r *Router) Activate(group, tab string) (Activation, error) {
	g, ok := r.groups[group]
	if !ok || !contains(g.tabs, tab) {
		return Activation{}, fmt.Errorf("%w: %s/%s", ErrUnknownTab, group, tab)
	}
	if r.gate != nil && !r.gate(group, tab) {
		return Activation{}, fmt.Errorf("%w: %s/%s", ErrTabDisabled, group, tab)
	}
	prev := g.active
	g.active = tab
	return Activation{Group: group, Tab: tab, Previous: prev}, nil
}

// Cycle activates the next enabled tab of group, wrapping around. delta is +1 or -1.
func (r *Router) Cycle(group string, delta int) (Activation, error) {
	g, ok := r.groups[group]
	if !ok {
		return Activation{}, fmt.Errorf("%w: %s", ErrUnknownTab, group)
	}
	if delta == 0 {
		delta = 1
	}
	idx := indexOf(g.tabs, g.active)
	n := len(g.tabs)
	for step := 1; step < n; step++ {
		cand := g.tabs[((idx+delta*step)%n+n)%n]
		if r.Enabled(group, cand) {
			return r.Activate(group, cand)
		}
	}
	return Activation{Group: group, Tab: g.active, Previous: g.active}, nil
}

func contains(list []string, s string) bool {
	return indexOf(list, s) >= 0
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
