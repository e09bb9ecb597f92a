package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type ProvidersConfig interface {
	GetFacebook() ProviderSettings
	GetGoogle() ProviderSettings
	GetTwitter() ProviderSettings
	GetProviderHTTPTimeout() time.Duration
}

// ProviderSettings is the client registration of one social provider. Endpoint overrides
// are only needed for test doubles; zero values use the provider's public endpoints.
type ProviderSettings struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
	AuthURL      string   `env:"AUTH_URL"`
	TokenURL     string   `env:"TOKEN_URL"`
	APIBaseURL   string   `env:"API_URL"`
	RevokeURL    string   `env:"REVOKE_URL"`
}

// Enabled reports whether the provider has been registered with a client id.
func (p ProviderSettings) Enabled() bool {
	return p.ClientID != ""
}

type Providers struct {
	Facebook    ProviderSettings `envPrefix:"SOCIAL_FACEBOOK_"`
	Google      ProviderSettings `envPrefix:"SOCIAL_GOOGLE_"`
	Twitter     ProviderSettings `envPrefix:"SOCIAL_TWITTER_"`
	HTTPTimeout time.Duration    `env:"SOCIAL_HTTP_TIMEOUT" envDefault:"10s"`
}

var _ ProvidersConfig = Providers{}

// LoadProviders parses the SOCIAL_* environment variables.
func LoadProviders() (Providers, error) {
	var p Providers
	if err := env.Parse(&p); err != nil {
		return Providers{}, fmt.Errorf("[config LoadProviders] parse env: %w", err)
	}
	return p, nil
}

func (p Providers) GetFacebook() ProviderSettings {
	return p.Facebook
}

func (p Providers) GetGoogle() ProviderSettings {
	return p.Google
}

func (p Providers) GetTwitter() ProviderSettings {
	return p.Twitter
}

func (p Providers) GetProviderHTTPTimeout() time.Duration {
	return p.HTTPTimeout
}
