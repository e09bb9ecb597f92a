package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/{$}"

	// Provider authorization
	RouteAuthorize = "/oauth/{provider}/authorize"
	RouteCallback  = "/oauth/{provider}/callback"
	RouteLogout    = "/oauth/{provider}/logout"

	// Portal session
	RouteEndSession = "/session/end"

	// Widgets
	RouteFacebookUserInfo   = "/widgets/facebook/userinfo"
	RouteFacebookStatus     = "/widgets/facebook/status"
	RouteFacebookStatusBack = "/widgets/facebook/status/back"
	RouteGoogleProfile      = "/widgets/google/profile"
	RouteTwitterProfile     = "/widgets/twitter/profile"
)
