// Package flows contains the request flow logic for token validation,
// credential login, signup, refresh, logout and password changes. Each flow
// is a pure function over a deps struct: the root engine wires concrete
// stores, token codecs and observability hooks, and the flow never imports
// the host package. Flow-local record types keep the dependency direction
// one-way.
package flows
