package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig lists the environment variables understood by the server.
// Role lifetimes can only be tuned through the JSON file.
type EnvConfig struct {
	EndpointAddrHTTP             string        `env:"AUTHKEEPER_HTTP_ADDR"`
	EndpointAddrGRPC             string        `env:"AUTHKEEPER_GRPC_ADDR"`
	DatabaseDSN                  string        `env:"AUTHKEEPER_DATABASE_DSN"`
	SecretKey                    string        `env:"AUTHKEEPER_SECRET_KEY"`
	Issuer                       string        `env:"AUTHKEEPER_ISSUER"`
	AccessTokenValidityDuration  time.Duration `env:"AUTHKEEPER_ACCESS_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"AUTHKEEPER_REFRESH_TTL"`
	Roles                        []string      `env:"AUTHKEEPER_ROLES" env-separator:","`
	RedisAddr                    string        `env:"AUTHKEEPER_REDIS_ADDR"`
	LogLevel                     string        `env:"AUTHKEEPER_LOG_LEVEL"`
}

// parseEnv overlays non-empty environment values onto config. AUTHKEEPER_ROLES
// replaces the role list; roles that already existed keep their lifetimes.
func parseEnv(config *Config) {
	var e EnvConfig
	if err := cleanenv.ReadEnv(&e); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, e.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.SecretKey, e.SecretKey)
	setString(&config.Issuer, e.Issuer)
	setString(&config.RedisAddr, e.RedisAddr)
	setString(&config.LogLevel, e.LogLevel)

	if e.AccessTokenValidityDuration != 0 {
		config.AccessTokenValidityDuration = e.AccessTokenValidityDuration
	}
	if e.RefreshTokenValidityDuration != 0 {
		config.RefreshTokenValidityDuration = e.RefreshTokenValidityDuration
	}

	if len(e.Roles) > 0 {
		known := make(map[string]RoleConfig, len(config.Roles))
		for _, r := range config.Roles {
			known[r.Name] = r
		}
		roles := make([]RoleConfig, 0, len(e.Roles))
		for _, name := range e.Roles {
			if r, ok := known[name]; ok {
				roles = append(roles, r)
				continue
			}
			roles = append(roles, RoleConfig{Name: name})
		}
		config.Roles = roles
	}
}
