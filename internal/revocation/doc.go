// Package revocation keeps the two-tier token revocation state: per-jti
// blacklist entries and per-subject mass-revocation markers, both bounded by
// the maximum token lifetime. Reads fail open so a store outage never locks
// out legitimate traffic.
package revocation
