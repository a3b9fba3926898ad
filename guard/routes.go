package guard

import (
	"strings"

	"go.pilab.hu/hospital/domain"
)

// Kind classifies a route.
type Kind int

const (
	// KindProtected requires a session and a permitted role.
	KindProtected Kind = iota
	// KindPublic renders without a session and bounces signed-in visitors.
	KindPublic
	// KindAlias forwards to Target once signed in.
	KindAlias
)

// Route is one entry of the dashboard route table. Pattern segments starting with ':' match
// any single segment.
type Route struct {
	Name    string
	Pattern string
	Kind    Kind
	Policy  Policy
	// Target is the destination of an alias.
	Target string
	// SignedInTarget overrides the role landing page for a public route.
	SignedInTarget string
}

var (
	clinicalRoles   = []domain.Role{domain.RoleDoctor, domain.RolePatient}
	doctorOnly      = []domain.Role{domain.RoleDoctor}
	managementRoles = []domain.Role{domain.RoleManagement}
)

// Routes is the dashboard route table.
var Routes = []Route{
	{Name: "login", Pattern: "/login", Kind: KindPublic},
	{Name: "signup", Pattern: "/signup", Kind: KindPublic},
	{Name: "forgot-password", Pattern: "/forgot-password", Kind: KindPublic, SignedInTarget: LoginPath},

	{Name: "home", Pattern: "/", Kind: KindAlias, Target: "/dashboard"},
	{Name: "dashboard", Pattern: "/dashboard", Policy: Policy{AllowedRoles: clinicalRoles}},
	{Name: "profile", Pattern: "/profile", Policy: Policy{AllowedRoles: clinicalRoles}},
	{Name: "patients", Pattern: "/patients", Policy: Policy{AllowedRoles: doctorOnly}},
	{Name: "patient-add", Pattern: "/patients/add", Policy: Policy{AllowedRoles: doctorOnly}},
	{Name: "patient-details", Pattern: "/patients/:id", Policy: Policy{AllowedRoles: doctorOnly}},
	{Name: "patient-edit", Pattern: "/patients/:id/edit", Policy: Policy{AllowedRoles: doctorOnly}},

	{Name: "management", Pattern: "/management", Kind: KindAlias, Target: "/management/dashboard"},
	{Name: "management-dashboard", Pattern: "/management/dashboard", Policy: Policy{AllowedRoles: managementRoles}},
	{Name: "management-analytics", Pattern: "/management/analytics", Policy: Policy{AllowedRoles: managementRoles}},
	{Name: "management-doctors", Pattern: "/management/doctors", Policy: Policy{AllowedRoles: managementRoles}},
}

// Lookup finds the route for path and its ':' parameters. Literal segments win over
// parameters, so "/patients/add" never matches "/patients/:id".
func Lookup(path string) (Route, map[string]string, bool) {
	segs := split(path)

	var (
		best       Route
		bestParams map[string]string
		bestScore  = -1
	)

	for _, r := range Routes {
		params, score, ok := match(split(r.Pattern), segs)
		if ok && score > bestScore {
			best, bestParams, bestScore = r, params, score
		}
	}

	return best, bestParams, bestScore >= 0
}

func match(pattern, segs []string) (map[string]string, int, bool) {
	if len(pattern) != len(segs) {
		return nil, 0, false
	}

	var params map[string]string
	score := 0
	for i, p := range pattern {
		if name, ok := strings.CutPrefix(p, ":"); ok {
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = segs[i]

			continue
		}
		if p != segs[i] {
			return nil, 0, false
		}
		score++
	}

	return params, score, true
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	return strings.Split(path, "/")
}
