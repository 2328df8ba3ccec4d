package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations are
// timex.Duration so both "30m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP             string           `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string           `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string           `json:"database_dsn"`
	SecretKey                    string           `json:"secret_key"`
	Issuer                       string           `json:"issuer"`
	AccessTokenValidityDuration  timex.Duration   `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration   `json:"refresh_token_validity_duration"`
	Roles                        []JsonRoleConfig `json:"roles"`
	RedisAddr                    string           `json:"redis_addr"`
	LogLevel                     string           `json:"log_level"`
	Argon2Memory                 uint32           `json:"argon2_memory"`
	Argon2Iterations             uint32           `json:"argon2_iterations"`
	Argon2Parallelism            uint8            `json:"argon2_parallelism"`
}

type JsonRoleConfig struct {
	Name                         string         `json:"name"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Only fields present (non-zero) in the file are copied. A missing flag
// means nothing to load; an unreadable or invalid file panics.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.Argon2Memory != 0 {
		config.Argon2Memory = c.Argon2Memory
	}
	if c.Argon2Iterations != 0 {
		config.Argon2Iterations = c.Argon2Iterations
	}
	if c.Argon2Parallelism != 0 {
		config.Argon2Parallelism = c.Argon2Parallelism
	}

	if len(c.Roles) > 0 {
		roles := make([]RoleConfig, 0, len(c.Roles))
		for _, r := range c.Roles {
			roles = append(roles, RoleConfig{
				Name:                         r.Name,
				AccessTokenValidityDuration:  r.AccessTokenValidityDuration.Duration,
				RefreshTokenValidityDuration: r.RefreshTokenValidityDuration.Duration,
			})
		}
		config.Roles = roles
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
