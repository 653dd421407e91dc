// Package middleware exposes HTTP adapters over authplane.Engine: a Bearer
// guard that validates access tokens and a RateLimit guard that enforces a
// policy and writes quota headers.
//
// This package translates HTTP semantics into Engine calls and nothing
// more; all authorization and admission decisions live in the Engine.
package middleware
