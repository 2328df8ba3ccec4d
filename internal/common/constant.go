// Package common contains shared constants and sentinel errors used across
// authkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// BearerPrefix is the scheme prefix of the HTTP Authorization header.
const BearerPrefix = "Bearer "
