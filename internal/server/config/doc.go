// Package config loads runtime configuration for the authkeeper server and
// admin tool.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config (see parseJson).
//  3. Environment variables prefixed with AUTHKEEPER_ (see parseEnv).
//  4. Command-line flags (see parseFlags).
//
// # JSON schema
//
// Durations use timex.Duration, so "15m" and integer nanoseconds both work:
//
//	{
//	  "endpoint_addr_http": ":8080",
//	  "secret_key": "change-me-to-something-long",
//	  "access_token_validity_duration": "30m",
//	  "refresh_token_validity_duration": "336h",
//	  "roles": [
//	    {"name": "member"},
//	    {"name": "admin", "access_token_validity_duration": "15m", "refresh_token_validity_duration": "168h"}
//	  ]
//	}
//
// The loaded Config is treated as immutable and is passed by pointer to the
// components that need it.
package config
