// Package pipeline wires the diff and commit modes: it
// classifies the environment, locates the repository,
// acquires and filters the diff or fetches the commit
// record, and hands the result to the sink.
package pipeline
