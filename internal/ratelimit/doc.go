// Package ratelimit implements sliding-window admission control over a
// shared Redis sorted set. Every check executes as one atomic MULTI/EXEC
// batch so concurrent callers on the same key never observe a partial
// update.
package ratelimit
