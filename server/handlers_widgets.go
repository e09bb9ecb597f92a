package server

import (
	"net/http"

	"github.com/jrsteele09/go-social-portal/guard"
	apperrors "github.com/jrsteele09/go-social-portal/internal/errors"
	"github.com/jrsteele09/go-social-portal/internal/utils"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/widgets"
	"github.com/rs/zerolog/log"
)

const (
	viewFacebookUserInfo = "facebook-userinfo"
	viewFacebookStatus   = "facebook-status"
	viewGoogleProfile    = "google-profile"
	viewTwitterProfile   = "twitter-profile"
)

// widgetHandler renders a guarded widget call, or the authorize signal when there is no token.
func widgetHandler[T any](key socialmodel.ProviderKey, view string, render func(r *http.Request) (guard.Outcome[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := render(r)
		if widgetFailed(w, r, key, err) {
			return
		}
		writeOutcome(w, key, r.URL.Path, view, outcome)
	}
}

// widgetFailed writes the response for a widget that could not run its provider call.
func widgetFailed(w http.ResponseWriter, r *http.Request, key socialmodel.ProviderKey, err error) bool {
	switch {
	case err == nil:
		return false
	case apperrors.Is(err, widgets.ErrAuthorizationRequired):
		writeAuthorize(w, key, r.URL.Path)
	default:
		logError(r.Method, r.URL.Path, err.Error())
		writeJSONError(w, "server_error", "widget failed", http.StatusInternalServerError)
	}
	return true
}

func (s *Server) FacebookUserInfoHandler() http.HandlerFunc {
	return widgetHandler(socialmodel.FacebookKey, viewFacebookUserInfo, func(r *http.Request) (guard.Outcome[widgets.FacebookUser], error) {
		return s.widgets.FacebookUserInfo(r.Context(), sessionID(r))
	})
}

func (s *Server) GoogleProfileHandler() http.HandlerFunc {
	return widgetHandler(socialmodel.GoogleKey, viewGoogleProfile, func(r *http.Request) (guard.Outcome[widgets.GoogleProfile], error) {
		return s.widgets.GoogleProfile(r.Context(), sessionID(r))
	})
}

func (s *Server) TwitterProfileHandler() http.HandlerFunc {
	return widgetHandler(socialmodel.TwitterKey, viewTwitterProfile, func(r *http.Request) (guard.Outcome[widgets.TwitterProfile], error) {
		return s.widgets.TwitterProfile(r.Context(), sessionID(r))
	})
}

// FacebookStatusFormHandler replays the session's drafts as the status form defaults.
func (s *Server) FacebookStatusFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(r)
		_, ok, err := s.portal.AccessToken(r.Context(), sid, socialmodel.FacebookKey)
		if err != nil {
			widgetFailed(w, r, socialmodel.FacebookKey, err)
			return
		}
		if !ok {
			writeAuthorize(w, socialmodel.FacebookKey, RouteFacebookStatus)
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{
			View:     viewFacebookStatus,
			Provider: socialmodel.FacebookKey.String(),
			Data:     widgets.StatusResult{Draft: s.widgets.FacebookStatusDraft(sid)},
		})
	}
}

// FacebookStatusUpdateHandler posts the submitted status. Fields left out of the form are
// taken from the session's drafts.
func (s *Server) FacebookStatusUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "malformed form", http.StatusBadRequest)
			return
		}
		form := widgets.StatusForm{}
		for name, values := range r.PostForm {
			if len(values) > 0 {
				form[name] = utils.Ptr(values[0])
			}
		}

		result, err := s.widgets.UpdateFacebookStatus(r.Context(), sessionID(r), form)
		if widgetFailed(w, r, socialmodel.FacebookKey, err) {
			return
		}

		resp := viewResponse{View: viewFacebookStatus, Provider: socialmodel.FacebookKey.String(), Data: result}
		switch result.Status {
		case widgets.StatusReauthorizeRequired:
			writeJSON(w, http.StatusUnauthorized, viewResponse{
				View:                 ViewTokenInvalid,
				Provider:             socialmodel.FacebookKey.String(),
				FriendlyProviderName: result.ProviderName,
				AuthorizeURL:         authorizeURL(socialmodel.FacebookKey, "", RouteFacebookStatus),
			})
			return
		case widgets.StatusInsufficientScope:
			resp.RequiredScope = widgets.FacebookPublishScope
			resp.AuthorizeURL = authorizeURL(socialmodel.FacebookKey, widgets.FacebookPublishScope, RouteFacebookStatus)
		case widgets.StatusOtherError:
			log.Warn().Str("session", sessionID(r)).Str("error", result.ErrorMessage).Msg("facebook status update failed")
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// FacebookStatusBackHandler leaves the status result and returns to the form.
func (s *Server) FacebookStatusBackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteFacebookStatus, http.StatusSeeOther)
	}
}
