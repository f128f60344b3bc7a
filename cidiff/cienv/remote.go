package cienv

import "strings"

// DefaultBranch is used when no branch variable is set.
const DefaultBranch = "main"

// Remote holds the hosting coordinates and credentials
// used to fetch commit metadata.
type Remote struct {
	Owner  string
	Repo   string
	Branch string
	Token  string

	// GitLab specifics.
	GitLabProject string
	GitLabToken   string
	GitLabURL     string

	// Bitbucket Server specifics.
	BitbucketUser     string
	BitbucketPassword string
}

// ResolveRemote extracts repository coordinates and
// credentials from env. Explicit REPO_OWNER, REPO_NAME and
// BRANCH win over the values the CI provider exports.
func ResolveRemote(env map[string]string) Remote {
	r := Remote{
		Owner:  first(env, "REPO_OWNER", "GITHUB_REPOSITORY_OWNER"),
		Repo:   env["REPO_NAME"],
		Branch: first(env, "BRANCH", "GITHUB_REF_NAME", "CI_COMMIT_REF_NAME"),
		Token:  first(env, "GITHUB_TOKEN", "MY_GITHUB_TOKEN"),

		GitLabProject: env["CI_PROJECT_PATH"],
		GitLabToken:   first(env, "GITLAB_TOKEN", "CI_JOB_TOKEN"),
		GitLabURL:     env["CI_SERVER_URL"],

		BitbucketUser:     env["BITBUCKET_USER"],
		BitbucketPassword: env["BITBUCKET_PASSWORD"],
	}

	if r.Repo == "" {
		if _, name, ok := strings.Cut(env["GITHUB_REPOSITORY"], "/"); ok {
			r.Repo = name
		}
	}

	if r.Branch == "" {
		r.Branch = DefaultBranch
	}

	return r
}

func first(env map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := env[k]; v != "" {
			return v
		}
	}

	return ""
}
