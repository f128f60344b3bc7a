// Package filter splits git diff output into per-file
// sections and drops the sections whose path matches an
// ignore rule.
//
// A section starts at every "diff --git a/<old> b/<new>"
// marker line and runs until the next marker. The <new>
// path is canonical, so renames and additions are matched
// on their resulting name. Text before the first marker,
// such as the commit header printed by git show, is a
// preamble section and is always kept.
//
// Filtering never reorders or duplicates lines, and it is
// idempotent: applying the same RuleSet to already filtered
// text yields the same text.
//
// A marker whose paths cannot be parsed is kept and matches
// no rule (fail-open). Filter.Strict switches to rejecting
// the whole diff instead.
package filter
