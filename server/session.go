package server

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	sessionCookieName = "portal_session"
	sessionIssuer     = "go-social-portal"
)

type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// sessionSigner issues and verifies the HMAC signed portal session cookie.
type sessionSigner struct {
	secret  []byte
	maxAge  time.Duration
	nowTime func() time.Time
}

func newSessionSigner(secret []byte, maxAge time.Duration, nowTime func() time.Time) *sessionSigner {
	return &sessionSigner{secret: secret, maxAge: maxAge, nowTime: nowTime}
}

func (s *sessionSigner) Sign(sessionID string) (string, error) {
	now := s.nowTime()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
		SessionID: sessionID,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session with HMAC")
	}
	return signed, nil
}

// Verify returns the session id carried by a valid, unexpired cookie value.
func (s *sessionSigner) Verify(raw string) (string, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, s.verificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowTime),
	)
	if err != nil {
		return "", errors.Wrap(err, "invalid session cookie")
	}
	if claims.SessionID == "" {
		return "", errors.New("session cookie has no session id")
	}
	return claims.SessionID, nil
}

func (s *sessionSigner) verificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) (string, error) {
	sessionID := uuid.New().String()
	signed, err := s.sessions.Sign(sessionID)
	if err != nil {
		return "", err
	}
	s.setSessionCookie(w, r, signed, int(s.config.GetMaxSessionAge().Seconds()))
	return sessionID, nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
