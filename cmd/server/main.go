package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-social-portal/drafts"
	"github.com/jrsteele09/go-social-portal/flows"
	"github.com/jrsteele09/go-social-portal/guard"
	"github.com/jrsteele09/go-social-portal/internal/config"
	"github.com/jrsteele09/go-social-portal/portal"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/server"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	"github.com/jrsteele09/go-social-portal/tokens/sqlitestore"
	"github.com/jrsteele09/go-social-portal/widgets"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	store, err := newTokenStore(c)
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	flowRepo := flows.NewInMemoryRepo()
	draftRepo := drafts.NewInMemoryRepo()

	registry, err := newRegistry(c, store, flowRepo)
	if err != nil {
		return err
	}
	portalService, err := portal.NewService(registry,
		portal.Repos{Tokens: store, Flows: flowRepo, Drafts: draftRepo},
		portal.WithFlowTimeout(c.GetAuthFlowTimeout()))
	if err != nil {
		return err
	}
	widgetService, err := widgets.NewService(portalService, guard.NewInvoker(registry), draftRepo)
	if err != nil {
		return err
	}
	handler, err := server.New(c, portalService, widgetService)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go func() {
		if err := listenAndServe(httpServer); err != nil {
			log.Err(err).Msg("listener stopped")
		}
	}()
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// newTokenStore keeps tokens in sqlite when TOKEN_DB is set, otherwise in memory.
func newTokenStore(c config.Config) (tokens.Store, error) {
	path := c.GetTokenDBPath()
	if path == "" {
		log.Warn().Msg("TOKEN_DB not set, access tokens are held in memory")
		return tokens.NewInMemoryRepo(), nil
	}
	sealer, err := sqlitestore.NewSealerFromHex(c.GetTokenEncryptionKey())
	if err != nil {
		return nil, fmt.Errorf("token encryption key: %w", err)
	}
	if err := os.MkdirAll(c.GetDataFolder(), 0o750); err != nil {
		return nil, fmt.Errorf("creating data folder: %w", err)
	}
	store, err := sqlitestore.Open(path, sealer)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("access tokens are held in sqlite")
	return store, nil
}

type providerConstructor func(providers.Config, tokens.Store, flows.Repo, ...providers.Option) (providers.OAuthProvider, error)

func newRegistry(c config.Config, store tokens.Store, flowRepo flows.Repo) (*providers.Registry, error) {
	constructors := []struct {
		key      socialmodel.ProviderKey
		settings config.ProviderSettings
		build    providerConstructor
	}{
		{socialmodel.FacebookKey, c.GetFacebook(), func(cfg providers.Config, s tokens.Store, f flows.Repo, opts ...providers.Option) (providers.OAuthProvider, error) {
			return providers.NewFacebook(cfg, s, f, opts...)
		}},
		{socialmodel.GoogleKey, c.GetGoogle(), func(cfg providers.Config, s tokens.Store, f flows.Repo, opts ...providers.Option) (providers.OAuthProvider, error) {
			return providers.NewGoogle(cfg, s, f, opts...)
		}},
		{socialmodel.TwitterKey, c.GetTwitter(), func(cfg providers.Config, s tokens.Store, f flows.Repo, opts ...providers.Option) (providers.OAuthProvider, error) {
			return providers.NewTwitter(cfg, s, f, opts...)
		}},
	}

	registry := providers.NewRegistry()
	client := &http.Client{Timeout: c.GetProviderHTTPTimeout()}
	for _, ctor := range constructors {
		if !ctor.settings.Enabled() {
			log.Info().Str("provider", ctor.key.String()).Msg("provider not configured, skipping")
			continue
		}
		p, err := ctor.build(providerConfig(c.GetBaseURL(), ctor.key, ctor.settings), store, flowRepo, providers.WithHTTPClient(client))
		if err != nil {
			return nil, err
		}
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	if len(registry.Keys()) == 0 {
		log.Warn().Msg("no social providers configured, set SOCIAL_<PROVIDER>_CLIENT_ID")
	}
	return registry, nil
}

func providerConfig(baseURL string, key socialmodel.ProviderKey, settings config.ProviderSettings) providers.Config {
	cfg := providers.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		RedirectURL:  baseURL + "/oauth/" + strings.ToLower(key.String()) + "/callback",
		Scopes:       settings.Scopes,
		APIBaseURL:   settings.APIBaseURL,
		RevokeURL:    settings.RevokeURL,
	}
	if settings.AuthURL != "" {
		cfg.Endpoint = oauth2.Endpoint{AuthURL: settings.AuthURL, TokenURL: settings.TokenURL}
	}
	return cfg
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
