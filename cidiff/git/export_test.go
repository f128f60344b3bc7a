package git

// Exported aliases for testing internal variables from the
// git_test package.

// GitEnvForTest exposes gitEnv.
var GitEnvForTest = gitEnv
