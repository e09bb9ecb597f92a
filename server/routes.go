package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.PortalMiddleware()...))

	// Provider authorization
	s.RegisterRouteHandler("GET "+RouteAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.PortalMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.PortalMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.PortalMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteEndSession, ChainMiddleware(s.EndSessionHandler(), s.PortalMiddleware()...))

	// Widgets
	s.RegisterRouteHandler("GET "+RouteFacebookUserInfo, ChainMiddleware(s.FacebookUserInfoHandler(), s.WidgetMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteFacebookStatus, ChainMiddleware(s.FacebookStatusFormHandler(), s.WidgetMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteFacebookStatus, ChainMiddleware(s.FacebookStatusUpdateHandler(), s.WidgetMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteFacebookStatusBack, ChainMiddleware(s.FacebookStatusBackHandler(), s.WidgetMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteGoogleProfile, ChainMiddleware(s.GoogleProfileHandler(), s.WidgetMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteTwitterProfile, ChainMiddleware(s.TwitterProfileHandler(), s.WidgetMiddleware()...))

	// Cross origin preflight for the widgets
	for _, route := range []string{RouteFacebookUserInfo, RouteFacebookStatus, RouteFacebookStatusBack, RouteGoogleProfile, RouteTwitterProfile} {
		s.RegisterRouteHandler("OPTIONS "+route, ChainMiddleware(s.PreflightHandler(), s.PreflightMiddleware()...))
	}
}
