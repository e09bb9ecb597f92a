// Package sqlitestore is the durable token store. Records survive process restarts and
// token material is sealed at rest.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	_ "modernc.org/sqlite"
)

//go:embed schema/schema.sql
var sqliteSchema string

const timeFormat = time.RFC3339Nano

var _ tokens.Store = (*Store)(nil)

// Store is a SQLite backed tokens.Store.
type Store struct {
	db     *sql.DB
	sealer *Sealer
}

// Open opens (or creates) the database at dbPath and applies the schema.
func Open(dbPath string, sealer *Sealer) (*Store, error) {
	if sealer == nil {
		return nil, errors.New("[sqlitestore Open] sealer is required")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("[sqlitestore Open] failed to open database: %w", err)
	}

	// SQLite serialises writers; a single connection avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("[sqlitestore Open] failed to initialize schema: %w", err)
	}

	return &Store{db: db, sealer: sealer}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, sessionID string, key socialmodel.ProviderKey) (*socialmodel.AccessTokenRecord, error) {
	if err := validateKeys(sessionID, key); err != nil {
		return nil, err
	}

	var (
		sealedAccess  []byte
		sealedRefresh []byte
		tokenType     string
		scopes        string
		subject       string
		expiry        string
		obtainedAt    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, token_type, scopes, subject, expiry, obtained_at
		FROM access_tokens
		WHERE session_id = ? AND provider_key = ?`,
		sessionID, string(key),
	).Scan(&sealedAccess, &sealedRefresh, &tokenType, &scopes, &subject, &expiry, &obtainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tokens.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[sqlitestore Get] query: %w", err)
	}

	record := &socialmodel.AccessTokenRecord{
		ProviderKey: key,
		TokenType:   tokenType,
		Scopes:      socialmodel.NormaliseScopes(strings.Fields(scopes)),
		Subject:     subject,
	}
	if record.AccessToken, err = s.sealer.Open(sealedAccess); err != nil {
		return nil, fmt.Errorf("[sqlitestore Get] access token: %w", err)
	}
	if len(sealedRefresh) > 0 {
		if record.RefreshToken, err = s.sealer.Open(sealedRefresh); err != nil {
			return nil, fmt.Errorf("[sqlitestore Get] refresh token: %w", err)
		}
	}
	if record.Expiry, err = parseTime(expiry); err != nil {
		return nil, fmt.Errorf("[sqlitestore Get] expiry: %w", err)
	}
	if record.ObtainedAt, err = parseTime(obtainedAt); err != nil {
		return nil, fmt.Errorf("[sqlitestore Get] obtained_at: %w", err)
	}
	return record, nil
}

func (s *Store) Put(ctx context.Context, sessionID string, key socialmodel.ProviderKey, record *socialmodel.AccessTokenRecord) error {
	if err := validateKeys(sessionID, key); err != nil {
		return err
	}
	if record == nil {
		return errors.New("record is required")
	}

	sealedAccess, err := s.sealer.Seal(record.AccessToken)
	if err != nil {
		return fmt.Errorf("[sqlitestore Put] seal access token: %w", err)
	}
	var sealedRefresh []byte
	if record.RefreshToken != "" {
		if sealedRefresh, err = s.sealer.Seal(record.RefreshToken); err != nil {
			return fmt.Errorf("[sqlitestore Put] seal refresh token: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO access_tokens (session_id, provider_key, access_token, refresh_token, token_type, scopes, subject, expiry, obtained_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, provider_key) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			scopes = excluded.scopes,
			subject = excluded.subject,
			expiry = excluded.expiry,
			obtained_at = excluded.obtained_at`,
		sessionID, string(key), sealedAccess, sealedRefresh, record.TokenType,
		strings.Join(socialmodel.NormaliseScopes(record.Scopes), " "), record.Subject,
		formatTime(record.Expiry), formatTime(record.ObtainedAt),
	)
	if err != nil {
		return fmt.Errorf("[sqlitestore Put] upsert: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, sessionID string, key socialmodel.ProviderKey) error {
	if err := validateKeys(sessionID, key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE session_id = ? AND provider_key = ?`, sessionID, string(key)); err != nil {
		return fmt.Errorf("[sqlitestore Clear] delete: %w", err)
	}
	return nil
}

func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("[sqlitestore ClearSession] delete: %w", err)
	}
	return nil
}

func validateKeys(sessionID string, key socialmodel.ProviderKey) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}
	if key == "" {
		return errors.New("provider key is required")
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeFormat, s)
}
