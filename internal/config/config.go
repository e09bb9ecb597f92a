package config

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	ProvidersConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetTokenDBPath() string
	GetBaseURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Providers
}

// New reads the configuration from the environment.
func New() (Config, error) {
	providers, err := LoadProviders()
	if err != nil {
		return nil, err
	}
	return mainConfig{
		Cors:      NewCors(),
		Providers: providers,
	}, nil
}
