package providers_test

import (
	"testing"

	"github.com/jrsteele09/go-social-portal/flows"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	store := tokens.NewInMemoryRepo()
	flowRepo := flows.NewInMemoryRepo()

	fb, err := providers.NewFacebook(providers.Config{ClientID: "fb"}, store, flowRepo)
	require.NoError(t, err)
	tw, err := providers.NewTwitter(providers.Config{ClientID: "tw"}, store, flowRepo)
	require.NoError(t, err)

	registry := providers.NewRegistry()
	require.NoError(t, registry.Register(fb))
	require.NoError(t, registry.Register(tw))

	t.Run("resolves registered keys", func(t *testing.T) {
		p, err := registry.Resolve(socialmodel.FacebookKey)
		require.NoError(t, err)
		require.Same(t, fb, p)
		require.Equal(t, "Facebook", p.FriendlyName())
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := registry.Resolve(socialmodel.GoogleKey)
		require.ErrorIs(t, err, providers.ErrUnknownProviderKind)
	})

	t.Run("one provider per key", func(t *testing.T) {
		another, err := providers.NewFacebook(providers.Config{ClientID: "fb-2"}, store, flowRepo)
		require.NoError(t, err)
		require.ErrorIs(t, registry.Register(another), providers.ErrDuplicateProvider)

		p, err := registry.Resolve(socialmodel.FacebookKey)
		require.NoError(t, err)
		require.Same(t, fb, p)
	})

	t.Run("keys in registration order", func(t *testing.T) {
		require.Equal(t, []socialmodel.ProviderKey{socialmodel.FacebookKey, socialmodel.TwitterKey}, registry.Keys())
	})

	require.Error(t, registry.Register(nil))
}

func TestNewProvider_RequiresDependencies(t *testing.T) {
	_, err := providers.NewGoogle(providers.Config{ClientID: "g"}, nil, flows.NewInMemoryRepo())
	require.Error(t, err)
	_, err = providers.NewGoogle(providers.Config{ClientID: "g"}, tokens.NewInMemoryRepo(), nil)
	require.Error(t, err)
	_, err = providers.NewGoogle(providers.Config{}, tokens.NewInMemoryRepo(), flows.NewInMemoryRepo())
	require.Error(t, err)
}
