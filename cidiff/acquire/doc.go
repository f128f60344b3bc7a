// Package acquire obtains the raw diff text for a run.
//
// Acquisition is an ordered table of strategies. The first
// strategy whose guard accepts the execution context is
// tried; when it fails, its fallback chain is walked until
// one step succeeds or the chain is exhausted. Failures are
// structural (missing refs, shallow history), so steps are
// never retried.
package acquire
