package domain

// RoutePolicy binds one route pattern to the role set it requires.
// An empty role set marks the route public. The full table is loaded
// once at startup and is read-only afterwards.
type RoutePolicy struct {
	Method        string   `json:"method"`
	Pattern       string   `json:"pattern"`
	RequiredRoles []string `json:"roles"`
}

func (p RoutePolicy) Public() bool {
	return len(p.RequiredRoles) == 0
}
