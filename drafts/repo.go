// Package drafts keeps the last submitted value of each form field per portal session, so
// a half-finished action survives a failed attempt or a reauthorization round trip.
package drafts

// Repo is the per-session parameter cache.
type Repo interface {
	// Get returns the cached value of name for the session.
	Get(sessionID, name string) (string, bool)

	// Set caches value under name for the session.
	Set(sessionID, name, value string)

	// Values returns a copy of every cached parameter of the session.
	Values(sessionID string) map[string]string

	// ClearSession forgets everything cached for an ended session.
	ClearSession(sessionID string)
}

// Capture stores a submitted parameter, or falls back to the cached one when the parameter
// was not submitted. An empty submitted value counts as submitted and overwrites the cache.
func Capture(repo Repo, sessionID, name string, submitted *string) string {
	if submitted != nil {
		repo.Set(sessionID, name, *submitted)
		return *submitted
	}
	value, _ := repo.Get(sessionID, name)
	return value
}
