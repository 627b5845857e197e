package access

import (
	"strings"
	"time"
)

// View is one screen of the dashboard.
type View struct {
	Path        string       `json:"path"`
	Title       string       `json:"title"`
	Public      bool         `json:"-"`
	Permissions []Permission `json:"permissions"`
	Menu        bool         `json:"-"`
}

// Routes lists every view with the permissions needed to open it. A view
// with no permissions only needs a session.
var Routes = []View{
	{Path: "/login", Title: "Connexion", Public: true},
	{Path: "/", Title: "Accueil", Menu: true},
	{Path: "/picker_form", Title: "Formulaire commis", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/coords", Title: "Coordonnées clients", Permissions: []Permission{CreateUsers}, Menu: true},
	{Path: "/delivery_stats", Title: "Efficacité de livraison", Permissions: []Permission{CreateUsers}, Menu: true},
	{Path: "/signup", Title: "Créer un utilisateur", Permissions: []Permission{CreateUsers}, Menu: true},
	{Path: "/update", Title: "Modifier un utilisateur", Permissions: []Permission{CreateUsers}, Menu: true},
	{Path: "/picker_stats", Title: "Statistiques commis", Permissions: []Permission{CreateUsers}, Menu: true},
	{Path: "/psl", Title: "PSL", Permissions: []Permission{Comptability}, Menu: true},
	{Path: "/drivers", Title: "Chauffeurs", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/driverStats", Title: "Statistiques chauffeurs", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/driverCounts", Title: "Livraisons par jour", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/rechercher", Title: "Rechercher", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/loc", Title: "Localisations", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/stats", Title: "Statistiques clients", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/commis", Title: "Commis", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/rapport", Title: "Rapport", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/missing", Title: "Articles manquants", Permissions: []Permission{Dispatch}, Menu: true},
	{Path: "/driver-page/{id}", Title: "Chauffeur"},
}

type Decision int

const (
	// Unmatched paths are not views: assets or unknown pages.
	Unmatched Decision = iota
	Public
	RedirectLogin
	Denied
	Granted
)

func (d Decision) String() string {
	switch d {
	case Public:
		return "public"
	case RedirectLogin:
		return "redirect_login"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "unmatched"
	}
}

// Lookup finds the view serving path.
func Lookup(path string) (View, bool) {
	for _, v := range Routes {
		if matchPath(v.Path, path) {
			return v, true
		}
	}
	return View{}, false
}

// Resolve decides what happens when session navigates to path. An expired
// session counts as no session.
func Resolve(path string, s *Session) Decision {
	return resolveAt(path, s, time.Now())
}

func resolveAt(path string, s *Session, now time.Time) Decision {
	v, ok := Lookup(path)
	switch {
	case !ok:
		return Unmatched
	case v.Public:
		return Public
	case s.Expired(now):
		return RedirectLogin
	case !s.Grants(v.Permissions):
		return Denied
	default:
		return Granted
	}
}

// Navigation lists the menu entries the session may open.
func Navigation(s *Session) []View {
	var views []View
	for _, v := range Routes {
		if v.Menu && s.Grants(v.Permissions) {
			views = append(views, v)
		}
	}
	return views
}

func matchPath(pattern, path string) bool {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if pattern == path {
		return true
	}
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], "{") && strings.HasSuffix(ps[i], "}") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
