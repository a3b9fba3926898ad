// Package nav is the navigation shell around the guarded pages: the sidebar menu and the
// recently visited paths.
package nav

import (
	"slices"
	"strings"

	"go.pilab.hu/hospital/domain"
)

// ManagementPrefix selects the management menu.
const ManagementPrefix = "/management"

// Item is one sidebar entry.
type Item struct {
	Name   string `json:"name"`
	Href   string `json:"href"`
	Active bool   `json:"active"`
}

var (
	doctorMenu = []Item{
		{Name: "Dashboard", Href: "/dashboard"},
		{Name: "Patients", Href: "/patients"},
		{Name: "Add Patient", Href: "/patients/add"},
	}
	managementMenu = []Item{
		{Name: "Management Dashboard", Href: "/management/dashboard"},
		{Name: "Analytics", Href: "/management/analytics"},
		{Name: "Doctors", Href: "/management/doctors"},
	}
)

// IsManagementPath reports whether path belongs to the management area.
func IsManagementPath(path string) bool {
	return strings.HasPrefix(path, ManagementPrefix)
}

// Menu returns the menu for path with the exact-match entry marked active. The menu follows
// the path, not the session role.
func Menu(path string) []Item {
	src := doctorMenu
	if IsManagementPath(path) {
		src = managementMenu
	}

	items := slices.Clone(src)
	for i := range items {
		items[i].Active = items[i].Href == path
	}

	return items
}

// AreaLabel is the role caption shown in the shell header.
func AreaLabel(path string) string {
	if IsManagementPath(path) {
		return "Management"
	}

	return "Doctor"
}

// Shell is the chrome rendered around a page.
type Shell struct {
	Path        string   `json:"path"`
	Area        string   `json:"area"`
	DisplayName string   `json:"display_name"`
	Menu        []Item   `json:"menu"`
	Recent      []string `json:"recent,omitempty"`
}

// BuildShell assembles the chrome for path.
func BuildShell(path string, user *domain.Profile, recent []string) Shell {
	return Shell{
		Path:        path,
		Area:        AreaLabel(path),
		DisplayName: user.DisplayName(),
		Menu:        Menu(path),
		Recent:      recent,
	}
}
