// Package guard decides, per request, whether a dashboard page renders or redirects.
package guard

import (
	"context"
	"slices"

	"github.com/rs/zerolog/log"
	"go.pilab.hu/hospital/domain"
	"go.pilab.hu/hospital/internal/metrics"
)

// LoginPath is where unauthenticated visitors are sent unless a policy says otherwise.
const LoginPath = "/login"

// Outcome is the result kind of an evaluation.
type Outcome string

const (
	OutcomeRender        Outcome = "render"
	OutcomeRedirectLogin Outcome = "redirect_login"
	OutcomeRedirectRole  Outcome = "redirect_role"
	OutcomeRedirect      Outcome = "redirect"
	OutcomeLoading       Outcome = "loading"
)

// Decision is what to do with a request.
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Location string  `json:"location,omitempty"`
	// From is the attempted path, remembered across a login redirect.
	From string `json:"from,omitempty"`
}

// Redirects reports whether the decision sends the visitor elsewhere.
func (d Decision) Redirects() bool {
	return d.Location != ""
}

// Policy restricts a route to roles. An empty AllowedRoles admits any authenticated role.
// FallbackPath is where unauthenticated visitors go, LoginPath when empty.
type Policy struct {
	AllowedRoles []domain.Role
	FallbackPath string
}

// Allows reports whether role may render the route.
func (p Policy) Allows(role domain.Role) bool {
	return len(p.AllowedRoles) == 0 || slices.Contains(p.AllowedRoles, role)
}

func (p Policy) loginPath() string {
	if p.FallbackPath != "" {
		return p.FallbackPath
	}

	return LoginPath
}

// Session is the read side of the session store the guard consults.
type Session interface {
	Loading() bool
	IsAuthenticated(ctx context.Context) bool
	Role() domain.Role
}

// Guard evaluates route policies against the live session. It holds no state of its own.
type Guard struct {
	sess Session
}

// New creates a guard over sess.
func New(sess Session) *Guard {
	return &Guard{sess: sess}
}

// Evaluate decides a protected page at path. A role mismatch is a silent redirect to the
// role's landing page, never an error.
func (g *Guard) Evaluate(ctx context.Context, path string, p Policy) Decision {
	d := g.evaluate(ctx, path, p)
	record(ctx, path, d)

	return d
}

func (g *Guard) evaluate(ctx context.Context, path string, p Policy) Decision {
	if g.sess.Loading() {
		return Decision{Outcome: OutcomeLoading}
	}

	if !g.sess.IsAuthenticated(ctx) {
		return Decision{Outcome: OutcomeRedirectLogin, Location: p.loginPath(), From: path}
	}

	role := g.sess.Role()
	if !p.Allows(role) {
		landing := role.LandingPath()
		if landing == path {
			// The role is refused by its own landing page.
			return Decision{Outcome: OutcomeRedirectLogin, Location: p.loginPath(), From: path}
		}

		return Decision{Outcome: OutcomeRedirectRole, Location: landing}
	}

	return Decision{Outcome: OutcomeRender}
}

// Resolve decides any route of the table: protected pages go through Evaluate, public
// pages bounce signed-in visitors, and aliases forward.
func (g *Guard) Resolve(ctx context.Context, r Route, path string) Decision {
	if r.Kind == KindProtected {
		return g.Evaluate(ctx, path, r.Policy)
	}

	var d Decision
	switch {
	case g.sess.Loading():
		d = Decision{Outcome: OutcomeLoading}
	case r.Kind == KindPublic:
		d = Decision{Outcome: OutcomeRender}
		if g.sess.IsAuthenticated(ctx) {
			target := r.SignedInTarget
			if target == "" {
				target = g.sess.Role().LandingPath()
			}
			d = Decision{Outcome: OutcomeRedirect, Location: target}
		}
	case r.Kind == KindAlias:
		d = Decision{Outcome: OutcomeRedirect, Location: r.Target}
		if !g.sess.IsAuthenticated(ctx) {
			d = Decision{Outcome: OutcomeRedirectLogin, Location: LoginPath, From: path}
		}
	default:
		d = Decision{Outcome: OutcomeRender}
	}

	record(ctx, path, d)

	return d
}

func record(ctx context.Context, path string, d Decision) {
	metrics.GuardDecisionsTotal.WithLabelValues(string(d.Outcome)).Inc()

	log.Ctx(ctx).Debug().
		Str("path", path).
		Str("outcome", string(d.Outcome)).
		Str("location", d.Location).
		Msg("route guard decision")
}
