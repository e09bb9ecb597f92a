package tokens_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	"github.com/stretchr/testify/require"
)

var obtainedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newRecord(t *testing.T, key socialmodel.ProviderKey, token string, scopes ...string) *socialmodel.AccessTokenRecord {
	t.Helper()
	rec, err := socialmodel.NewAccessTokenRecord(key, token, scopes, obtainedAt)
	require.NoError(t, err)
	return rec
}

func TestInMemoryRepo_ReturnsCanonicalRecords(t *testing.T) {
	ctx := context.Background()
	repo := tokens.NewInMemoryRepo()
	raw := &socialmodel.AccessTokenRecord{
		ProviderKey: socialmodel.TwitterKey,
		AccessToken: "tw-token",
		ObtainedAt:  time.Now().In(time.FixedZone("CET", 60*60)),
	}

	require.NoError(t, repo.Put(ctx, "s1", socialmodel.TwitterKey, raw))

	got, err := repo.Get(ctx, "s1", socialmodel.TwitterKey)
	require.NoError(t, err)
	require.Equal(t, raw.Canonical(), got)
	require.Equal(t, []string{}, got.Scopes)
	require.Equal(t, time.UTC, got.ObtainedAt.Location())
}

func TestInMemoryRepo_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := tokens.NewInMemoryRepo()
	rec := newRecord(t, socialmodel.FacebookKey, "fb-token", "public_profile", "email")

	require.NoError(t, repo.Put(ctx, "s1", socialmodel.FacebookKey, rec))

	got, err := repo.Get(ctx, "s1", socialmodel.FacebookKey)
	require.NoError(t, err)
	require.Equal(t, rec, got)

	// Reading again without a write returns the same record
	again, err := repo.Get(ctx, "s1", socialmodel.FacebookKey)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestInMemoryRepo_AbsentRecord(t *testing.T) {
	repo := tokens.NewInMemoryRepo()

	_, err := repo.Get(context.Background(), "s1", socialmodel.GoogleKey)
	require.ErrorIs(t, err, tokens.ErrNotFound)
}

func TestInMemoryRepo_RecordsAreCopied(t *testing.T) {
	ctx := context.Background()
	repo := tokens.NewInMemoryRepo()
	rec := newRecord(t, socialmodel.GoogleKey, "g-token", "openid")
	require.NoError(t, repo.Put(ctx, "s1", socialmodel.GoogleKey, rec))

	rec.Scopes[0] = "mutated"
	got, err := repo.Get(ctx, "s1", socialmodel.GoogleKey)
	require.NoError(t, err)
	require.Equal(t, []string{"openid"}, got.Scopes)

	got.AccessToken = "mutated"
	again, err := repo.Get(ctx, "s1", socialmodel.GoogleKey)
	require.NoError(t, err)
	require.Equal(t, "g-token", again.AccessToken)
}

func TestInMemoryRepo_SessionIsolation(t *testing.T) {
	ctx := context.Background()
	repo := tokens.NewInMemoryRepo()
	require.NoError(t, repo.Put(ctx, "s1", socialmodel.TwitterKey, newRecord(t, socialmodel.TwitterKey, "tw-1")))

	_, err := repo.Get(ctx, "s2", socialmodel.TwitterKey)
	require.ErrorIs(t, err, tokens.ErrNotFound)

	require.NoError(t, repo.ClearSession(ctx, "s2"))
	_, err = repo.Get(ctx, "s1", socialmodel.TwitterKey)
	require.NoError(t, err)
}

func TestInMemoryRepo_Clear(t *testing.T) {
	ctx := context.Background()
	repo := tokens.NewInMemoryRepo()
	require.NoError(t, repo.Put(ctx, "s1", socialmodel.FacebookKey, newRecord(t, socialmodel.FacebookKey, "fb")))
	require.NoError(t, repo.Put(ctx, "s1", socialmodel.GoogleKey, newRecord(t, socialmodel.GoogleKey, "g")))

	require.NoError(t, repo.Clear(ctx, "s1", socialmodel.FacebookKey))
	_, err := repo.Get(ctx, "s1", socialmodel.FacebookKey)
	require.ErrorIs(t, err, tokens.ErrNotFound)

	_, err = repo.Get(ctx, "s1", socialmodel.GoogleKey)
	require.NoError(t, err)

	// Clearing twice is fine
	require.NoError(t, repo.Clear(ctx, "s1", socialmodel.FacebookKey))

	require.NoError(t, repo.ClearSession(ctx, "s1"))
	_, err = repo.Get(ctx, "s1", socialmodel.GoogleKey)
	require.ErrorIs(t, err, tokens.ErrNotFound)
}

func TestInMemoryRepo_Validation(t *testing.T) {
	ctx := context.Background()
	repo := tokens.NewInMemoryRepo()

	require.Error(t, repo.Put(ctx, "", socialmodel.FacebookKey, newRecord(t, socialmodel.FacebookKey, "fb")))
	require.Error(t, repo.Put(ctx, "s1", "", newRecord(t, socialmodel.FacebookKey, "fb")))
	require.Error(t, repo.Put(ctx, "s1", socialmodel.FacebookKey, nil))
	_, err := repo.Get(ctx, "", socialmodel.FacebookKey)
	require.Error(t, err)
	require.Error(t, repo.ClearSession(ctx, ""))
}

func TestInMemoryRepo_ConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	repo := tokens.NewInMemoryRepo()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("session-%d", i)
			token := fmt.Sprintf("token-%d", i)
			rec, err := socialmodel.NewAccessTokenRecord(socialmodel.FacebookKey, token, nil, obtainedAt)
			if err != nil {
				t.Error(err)
				return
			}
			if err := repo.Put(ctx, sessionID, socialmodel.FacebookKey, rec); err != nil {
				t.Error(err)
				return
			}
			got, err := repo.Get(ctx, sessionID, socialmodel.FacebookKey)
			if err != nil {
				t.Error(err)
				return
			}
			if got.AccessToken != token {
				t.Errorf("session %s saw token %s", sessionID, got.AccessToken)
			}
			if err := repo.Clear(ctx, sessionID, socialmodel.FacebookKey); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
}
