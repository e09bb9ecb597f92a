package config

import "time"

const (
	sessionSecretEnvVar      = "SESSION_SECRET"
	tokenEncryptionKeyEnvVar = "TOKEN_ENCRYPTION_KEY"
)

type SecurityConfig interface {
	GetAuthFlowTimeout() time.Duration
	GetMaxSessionAge() time.Duration
	GetSessionSecret() string
	GetTokenEncryptionKey() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetAuthFlowTimeout is how long a provider authorization may take before its callback is refused.
func (Security) GetAuthFlowTimeout() time.Duration {
	return 15 * time.Minute
}

func (Security) GetMaxSessionAge() time.Duration {
	return 8 * time.Hour
}

// GetSessionSecret signs the portal session cookie. Empty means a random secret per process.
func (Security) GetSessionSecret() string {
	return GetEnv(sessionSecretEnvVar, "")
}

// GetTokenEncryptionKey is the hex encoded 32 byte key sealing tokens in the sqlite store.
func (Security) GetTokenEncryptionKey() string {
	return GetEnv(tokenEncryptionKeyEnvVar, "")
}
