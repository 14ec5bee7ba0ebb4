// Package screens holds headless models of the four app screens. Hosts
// (the HTTP server, tests) render them and follow the routes they return.
package screens

import (
	"net/url"
	"sync"
)

// Route names.
const (
	RouteIndex     = "index"
	RouteDashboard = "dashboard"
	RouteDetail    = "transaction-detail"
	RouteAdd       = "add-transaction"
)

var titles = map[string]string{
	RouteIndex:     "Welcome",
	RouteDashboard: "Expense Dashboard",
	RouteDetail:    "Transaction Details",
	RouteAdd:       "Add Transaction",
}

// Title returns the header title of a route, or "" for unknown routes.
func Title(name string) string {
	return titles[name]
}

// Route is a screen name plus its string parameters.
type Route struct {
	Name   string
	Params url.Values
}

func NewRoute(name string, kv ...string) Route {
	r := Route{Name: name, Params: url.Values{}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Params.Set(kv[i], kv[i+1])
	}
	return r
}

// Path returns the URL path and query the HTTP host serves the route on.
func (r Route) Path() string {
	p := "/" + r.Name
	if r.Name == RouteIndex || r.Name == "" {
		p = "/"
	}
	if q := r.Params.Encode(); q != "" {
		p += "?" + q
	}
	return p
}

// Navigator is a stack of routes. The zero value is not usable; call NewNavigator.
type Navigator struct {
	mu    sync.Mutex
	stack []Route
}

// NewNavigator starts at the index route.
func NewNavigator() *Navigator {
	return &Navigator{stack: []Route{NewRoute(RouteIndex)}}
}

func (n *Navigator) Push(r Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stack = append(n.stack, r)
}

// Back pops the current route. The root route is never popped.
func (n *Navigator) Back() (Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.stack) < 2 {
		return n.stack[0], false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return n.stack[len(n.stack)-1], true
}

// Replace swaps the current route for r.
func (n *Navigator) Replace(r Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stack[len(n.stack)-1] = r
}

func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack[len(n.stack)-1]
}

func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stack)
}

// Logout asks for confirmation and, when given, resets navigation to the
// index route. It reports whether navigation happened.
func (n *Navigator) Logout(confirm Confirmer) bool {
	if confirm != nil && !confirm.Confirm("Logout", "Are you sure you want to logout?") {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stack = []Route{NewRoute(RouteIndex)}
	return true
}
