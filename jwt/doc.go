// Package jwt issues and parses the signed access and refresh tokens used by
// the authplane engine. Tokens are HS256-signed and carry the registered
// claims sub, iat, exp, and jti plus a custom type claim distinguishing
// access tokens from refresh tokens.
package jwt
