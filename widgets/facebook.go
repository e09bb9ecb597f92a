package widgets

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jrsteele09/go-social-portal/drafts"
	"github.com/jrsteele09/go-social-portal/guard"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FacebookPublishScope is the permission needed to post to the user's feed.
const FacebookPublishScope = "publish_actions"

const facebookUserFields = "id,name,first_name,last_name,email,link,locale,picture"

type FacebookUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Link      string `json:"link,omitempty"`
	Locale    string `json:"locale,omitempty"`
	Picture   string `json:"picture,omitempty"`
}

// FacebookUserInfo loads the profile of the session's Facebook user.
func (s *Service) FacebookUserInfo(ctx context.Context, sessionID string) (guard.Outcome[FacebookUser], error) {
	return call(ctx, s, socialmodel.FacebookKey, sessionID, func(ctx context.Context, client *providers.APIClient) (FacebookUser, error) {
		var me struct {
			FacebookUser
			Picture struct {
				Data struct {
					URL string `json:"url"`
				} `json:"data"`
			} `json:"picture"`
		}
		if err := client.GetJSON(ctx, "/me", url.Values{"fields": {facebookUserFields}}, &me); err != nil {
			return FacebookUser{}, err
		}
		user := me.FacebookUser
		user.Picture = me.Picture.Data.URL
		return user, nil
	})
}

// Status is the result of a Facebook status update.
type Status string

const (
	StatusSuccess                 Status = "SUCCESS"
	StatusNotSpecifiedMessageLink Status = "NOT_SPECIFIED_MESSAGE_OR_LINK"
	StatusInsufficientScope       Status = "FACEBOOK_ERROR_INSUFFICIENT_SCOPE"
	StatusOtherError              Status = "FACEBOOK_ERROR_OTHER"
	StatusReauthorizeRequired     Status = "REAUTHORIZE_REQUIRED"
)

// Status form field names, also used as draft names.
const (
	FieldMessage     = "message"
	FieldLink        = "link"
	FieldPicture     = "picture"
	FieldName        = "name"
	FieldCaption     = "caption"
	FieldDescription = "description"
)

var statusFields = []string{FieldMessage, FieldLink, FieldPicture, FieldName, FieldCaption, FieldDescription}

// StatusForm is a submitted status update. A nil field was not submitted and is taken from
// the session's drafts.
type StatusForm map[string]*string

// StatusDraft holds the effective value of every status field.
type StatusDraft struct {
	Message     string `json:"message"`
	Link        string `json:"link"`
	Picture     string `json:"picture"`
	Name        string `json:"name"`
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

func (d StatusDraft) params() url.Values {
	params := url.Values{}
	for name, value := range map[string]string{
		FieldMessage:     d.Message,
		FieldLink:        d.Link,
		FieldPicture:     d.Picture,
		FieldName:        d.Name,
		FieldCaption:     d.Caption,
		FieldDescription: d.Description,
	} {
		if value != "" {
			params.Set(name, value)
		}
	}
	return params
}

type StatusResult struct {
	Status       Status      `json:"status"`
	PostID       string      `json:"postId,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	ProviderName string      `json:"providerName,omitempty"`
	Draft        StatusDraft `json:"draft"`
}

// FacebookStatusDraft replays the session's drafts as form defaults.
func (s *Service) FacebookStatusDraft(sessionID string) StatusDraft {
	values := s.drafts.Values(sessionID)
	return StatusDraft{
		Message:     values[FieldMessage],
		Link:        values[FieldLink],
		Picture:     values[FieldPicture],
		Name:        values[FieldName],
		Caption:     values[FieldCaption],
		Description: values[FieldDescription],
	}
}

// UpdateFacebookStatus posts to the user's feed. Submitted fields are saved as drafts first
// so they survive a failed attempt. Nothing is sent when both message and link are empty.
func (s *Service) UpdateFacebookStatus(ctx context.Context, sessionID string, form StatusForm) (StatusResult, error) {
	for _, field := range statusFields {
		drafts.Capture(s.drafts, sessionID, field, form[field])
	}
	draft := s.FacebookStatusDraft(sessionID)
	result := StatusResult{Draft: draft}

	if draft.Message == "" && draft.Link == "" {
		result.Status = StatusNotSpecifiedMessageLink
		return result, nil
	}

	var apiErr *providers.APIError
	outcome, err := call(ctx, s, socialmodel.FacebookKey, sessionID, func(ctx context.Context, client *providers.APIClient) (string, error) {
		var published struct {
			ID string `json:"id"`
		}
		err := client.PostForm(ctx, "/me/feed", draft.params(), &published)
		if err != nil {
			errors.As(err, &apiErr)
			return "", err
		}
		if published.ID == "" {
			return "", errors.New("status published without a post id")
		}
		return published.ID, nil
	}, guard.WithRequiredScope(FacebookPublishScope))
	if err != nil {
		return result, err
	}

	switch outcome.Kind {
	case guard.Success:
		log.Debug().Str("session", sessionID).Str("post", outcome.Value).Msg("status published")
		result.Status = StatusSuccess
		result.PostID = outcome.Value
	case guard.InsufficientScope:
		result.Status = StatusInsufficientScope
		result.ErrorMessage = outcome.Message
	case guard.ReauthorizeRequired:
		result.Status = StatusReauthorizeRequired
		result.ProviderName = outcome.ProviderName
	default:
		result.Status = StatusOtherError
		result.ErrorMessage = outcome.Message
		if apiErr != nil {
			result.ErrorMessage = fmt.Sprintf("%d - %s - %s", apiErr.Code, apiErr.Type, apiErr.Message)
		}
	}
	return result, nil
}
