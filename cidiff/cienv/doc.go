// Package cienv classifies the execution context from a
// snapshot of environment variables.
//
// The process environment is read exactly once, by
// Environ or Load, into a plain map. Classify and
// ResolveRemote are pure functions over that map.
package cienv
