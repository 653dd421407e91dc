// Package password hashes and verifies credentials. The default
// implementation is bcrypt; hosts can plug their own Hasher when migrating
// an existing credential store.
package password
