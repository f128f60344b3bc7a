// Package sink delivers the finished diff and commit record.
//
// Outside CI both are printed. In CI they are written to
// files named by path templates, a SHA-256 sidecar is
// stored next to the diff, and GitHub Actions step outputs
// are appended when the output file is known.
//
// Path templates use single-brace placeholders:
// {workspace}, {cwd}, {provider} and {event}. Unknown
// placeholders are kept as-is.
package sink
