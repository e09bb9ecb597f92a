package socialmodel_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/stretchr/testify/require"
)

func TestParseProviderKey(t *testing.T) {
	tests := []struct {
		input string
		want  socialmodel.ProviderKey
		err   bool
	}{
		{input: "facebook", want: socialmodel.FacebookKey},
		{input: " GOOGLE ", want: socialmodel.GoogleKey},
		{input: "Twitter", want: socialmodel.TwitterKey},
		{input: "myspace", err: true},
		{input: "", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := socialmodel.ParseProviderKey(tt.input)
			if tt.err {
				require.True(t, errors.Is(err, socialmodel.ErrUnknownProviderKey))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewAccessTokenRecord(t *testing.T) {
	obtained := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	record, err := socialmodel.NewAccessTokenRecord(socialmodel.GoogleKey, "tok", []string{"profile email", "email", " openid"}, obtained)
	require.NoError(t, err)
	require.Equal(t, []string{"email", "openid", "profile"}, record.Scopes)
	require.Equal(t, "Bearer", record.TokenType)
	require.True(t, record.HasScope("openid"))
	require.False(t, record.HasScope("publish_actions"))

	clone := record.Clone()
	clone.Scopes[0] = "changed"
	require.Equal(t, "email", record.Scopes[0])

	_, err = socialmodel.NewAccessTokenRecord(socialmodel.GoogleKey, "", nil, obtained)
	require.ErrorIs(t, err, socialmodel.ErrEmptyAccessToken)
}

func TestNormaliseScopes(t *testing.T) {
	require.Equal(t, []string{"public_profile", "publish_actions"}, socialmodel.NormaliseScopes([]string{"publish_actions,public_profile", "public_profile"}))
	require.Empty(t, socialmodel.NormaliseScopes(nil))
}

func TestCanonical(t *testing.T) {
	local := time.Now().In(time.FixedZone("CET", 60*60))
	rec := &socialmodel.AccessTokenRecord{
		ProviderKey: socialmodel.GoogleKey,
		AccessToken: "tok",
		Scopes:      []string{"profile", "email"},
		ObtainedAt:  local,
	}

	c := rec.Canonical()
	require.Equal(t, []string{"email", "profile"}, c.Scopes)
	require.True(t, c.ObtainedAt.Equal(local))
	require.Equal(t, time.UTC, c.ObtainedAt.Location())
	require.Equal(t, time.Time{}, c.Expiry)
	require.Equal(t, c, c.Canonical())
	require.Equal(t, []string{"profile", "email"}, rec.Scopes)
}
