// Package config holds the resolved configuration for a backup run.
// A Config is built once from flags, environment variables and an optional
// defaults file, validated eagerly, and read-only thereafter.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// Environment variables consulted for credentials so secrets can stay out of
// shell history.
const (
	// EnvToken is the environment variable for a personal access token.
	EnvToken = "GHVAULT_TOKEN"

	// EnvPassword is the environment variable for the basic-auth password.
	EnvPassword = "GHVAULT_PASSWORD"
)

// DefaultAPIHost is the public GitHub API endpoint.
const DefaultAPIHost = "https://api.github.com"

// Configuration errors.
var (
	// ErrNoAccount indicates the positional account argument is missing.
	ErrNoAccount = errors.New("config: account name is required")

	// ErrPartialCredentials indicates a username without a password or the
	// reverse.
	ErrPartialCredentials = errors.New("config: username and password must be provided together")

	// ErrConflictingCredentials indicates both a token and a username/password
	// pair were supplied.
	ErrConflictingCredentials = errors.New("config: token and username/password are mutually exclusive")

	// ErrBadOutputDir indicates the output directory does not exist or is not
	// a directory.
	ErrBadOutputDir = errors.New("config: output directory does not exist")
)

// Config is the immutable snapshot of resolved inputs for one backup run.
type Config struct {
	// Account is the user or organization being backed up.
	Account string

	// IsOrganization selects the org repository listing endpoint.
	IsOrganization bool

	// SingleRepo restricts the run to one repository name.
	SingleRepo string

	// Token is an optional personal access token.
	Token string

	// Username and Password form an optional basic-auth pair.
	Username string
	Password string

	// APIHost is the API root, overridable for GitHub Enterprise.
	APIHost string

	// PreferSSH selects ssh_url over clone_url for git transport.
	PreferSSH bool

	// OutputDir is the root of the on-disk backup layout.
	OutputDir string

	// Inclusion flags. Everything turns all of them on.
	Everything    bool
	Repositories  bool
	Wikis         bool
	Issues        bool
	IssueComments bool
	IssueEvents   bool
	Pulls         bool
	PullComments  bool
	PullCommits   bool
	Labels        bool
	Milestones    bool
	Starred       bool
	Watched       bool

	// Filter predicates.
	Languages      []string
	NamePattern    string
	IncludeForks   bool
	IncludePrivate bool

	// SkipExisting makes every step a no-op when its output already exists.
	SkipExisting bool

	// Concurrency bounds parallel fan-out across repositories. 1 means
	// sequential execution.
	Concurrency int

	// Quiet suppresses informational progress lines.
	Quiet bool
}

// Validate checks the configuration before any network activity.
func (c *Config) Validate() error {
	if c.Account == "" {
		return ErrNoAccount
	}
	if (c.Username == "") != (c.Password == "") {
		return ErrPartialCredentials
	}
	if c.Token != "" && c.Username != "" {
		return ErrConflictingCredentials
	}
	if c.NamePattern != "" {
		if _, err := regexp.Compile(c.NamePattern); err != nil {
			return fmt.Errorf("config: invalid name pattern: %w", err)
		}
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("config: concurrency must be at least 1, got %d", c.Concurrency)
	}

	info, err := os.Stat(c.OutputDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrBadOutputDir, c.OutputDir)
	}
	return nil
}

// WantRepositories reports whether repository clones are in scope.
func (c *Config) WantRepositories() bool { return c.Everything || c.Repositories }

// WantWikis reports whether wiki clones are in scope.
func (c *Config) WantWikis() bool { return c.Everything || c.Wikis }

// WantIssues reports whether issues are in scope.
func (c *Config) WantIssues() bool { return c.Everything || c.Issues }

// WantPulls reports whether pull requests are in scope.
func (c *Config) WantPulls() bool { return c.Everything || c.Pulls }

// WantLabels reports whether labels are in scope.
func (c *Config) WantLabels() bool { return c.Everything || c.Labels }

// WantMilestones reports whether milestones are in scope.
func (c *Config) WantMilestones() bool { return c.Everything || c.Milestones }

// WantStarred reports whether the starred listing is in scope.
func (c *Config) WantStarred() bool { return c.Everything || c.Starred }

// WantWatched reports whether the watched listing is in scope.
func (c *Config) WantWatched() bool { return c.Everything || c.Watched }

// WantIssueComments reports whether issue comment enrichment is in scope.
func (c *Config) WantIssueComments() bool { return c.Everything || c.IssueComments }

// WantIssueEvents reports whether issue event enrichment is in scope.
func (c *Config) WantIssueEvents() bool { return c.Everything || c.IssueEvents }

// WantPullComments reports whether pull comment enrichment is in scope.
func (c *Config) WantPullComments() bool { return c.Everything || c.PullComments }

// WantPullCommits reports whether pull commit enrichment is in scope.
func (c *Config) WantPullCommits() bool { return c.Everything || c.PullCommits }

// ResolveSecretsFromEnv fills the token and password from the environment
// when the flags left them empty.
func (c *Config) ResolveSecretsFromEnv() {
	if c.Token == "" {
		c.Token = os.Getenv(EnvToken)
	}
	if c.Password == "" && c.Username != "" {
		c.Password = os.Getenv(EnvPassword)
	}
}
