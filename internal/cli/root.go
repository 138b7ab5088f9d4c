// Package cli wires the command line surface to the backup engine. Flags are
// resolved into one immutable config.Config before any component is built;
// configuration problems are reported before the first network call.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ghvault-cli/internal/backup"
	"github.com/custodia-labs/ghvault-cli/internal/config"
	"github.com/custodia-labs/ghvault-cli/internal/github"
	"github.com/custodia-labs/ghvault-cli/internal/gitmirror"
	"github.com/custodia-labs/ghvault-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfg        config.Config
	githubHost string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "ghvault <account>",
	Short: "Back up a GitHub user or organization",
	Long: `ghvault takes a point-in-time backup of a GitHub account: repository and
wiki clones plus issues, pull requests, milestones, labels and the starred
and watched listings, written as diffable JSON under the output directory.

Runs are idempotent and resumable: with --skip-existing, anything already on
disk is left alone and costs no API requests.

Examples:
  # Everything for a user, into the current directory
  ghvault octocat --all -o .

  # Issues and pull requests only, with nested comments
  ghvault octocat --issues --issue-comments --pulls --pull-comments

  # An organization on a GitHub Enterprise host
  ghvault acme --organization --github-host ghe.example.com --all

  # Resume an interrupted run
  ghvault octocat --all --skip-existing`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	RunE:          runBackup,
}

func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&cfg.OutputDir, "output-directory", "o", ".", "directory to write the backup to")
	flags.BoolVar(&cfg.IsOrganization, "organization", false, "treat the account as an organization")
	flags.StringVar(&cfg.SingleRepo, "repository", "", "back up a single repository only")

	flags.StringVar(&cfg.Token, "token", "", "personal access token (or "+config.EnvToken+")")
	flags.StringVar(&cfg.Username, "username", "", "basic-auth username")
	flags.StringVar(&cfg.Password, "password", "", "basic-auth password (or "+config.EnvPassword+")")
	flags.StringVar(&githubHost, "github-host", "", "GitHub Enterprise hostname")
	flags.BoolVar(&cfg.PreferSSH, "prefer-ssh", false, "clone over SSH instead of HTTPS")

	flags.BoolVar(&cfg.Everything, "all", false, "back up everything")
	flags.BoolVar(&cfg.Repositories, "repositories", false, "clone repositories")
	flags.BoolVar(&cfg.Wikis, "wikis", false, "clone wikis")
	flags.BoolVar(&cfg.Issues, "issues", false, "back up issues")
	flags.BoolVar(&cfg.IssueComments, "issue-comments", false, "include issue comments")
	flags.BoolVar(&cfg.IssueEvents, "issue-events", false, "include issue events")
	flags.BoolVar(&cfg.Pulls, "pulls", false, "back up pull requests")
	flags.BoolVar(&cfg.PullComments, "pull-comments", false, "include pull request comments")
	flags.BoolVar(&cfg.PullCommits, "pull-commits", false, "include pull request commits")
	flags.BoolVar(&cfg.Labels, "labels", false, "back up labels")
	flags.BoolVar(&cfg.Milestones, "milestones", false, "back up milestones")
	flags.BoolVar(&cfg.Starred, "starred", false, "back up the starred listing")
	flags.BoolVar(&cfg.Watched, "watched", false, "back up the watched listing")

	flags.StringSliceVar(&cfg.Languages, "languages", nil, "only repositories with these primary languages")
	flags.StringVar(&cfg.NamePattern, "name-pattern", "", "only repositories whose name matches this prefix pattern")
	flags.BoolVar(&cfg.IncludePrivate, "private", false, "include private repositories")
	flags.BoolVar(&cfg.IncludeForks, "fork", false, "include forked repositories")

	flags.BoolVar(&cfg.SkipExisting, "skip-existing", false, "skip anything already present on disk")
	flags.IntVar(&cfg.Concurrency, "concurrency", 1, "repositories to back up in parallel")
	flags.BoolVar(&cfg.Quiet, "quiet", false, "suppress progress output")
	flags.StringVar(&configPath, "config", "", "TOML defaults file (default ~/.ghvault/config.toml)")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg.Account = args[0]

	defaults, err := config.LoadDefaults(defaultsPath())
	if err != nil {
		return err
	}
	// Flag defaults masquerade as explicit values; clear the ones the user
	// did not touch so the defaults file can fill them.
	if !cmd.Flags().Changed("output-directory") {
		cfg.OutputDir = ""
	}
	if !cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = 0
	}
	defaults.Apply(&cfg)
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 1
	}

	cfg.APIHost = resolveAPIHost(githubHost, cfg.APIHost)

	cfg.ResolveSecretsFromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.Quiet)
	client := github.NewClient(cfg.APIHost, github.Credentials{
		Token:    cfg.Token,
		Username: cfg.Username,
		Password: cfg.Password,
	}, github.NewRateLimiter(), log)

	orchestrator := backup.New(&cfg, client, gitmirror.New(log), log)

	summary, err := orchestrator.Run(ctx)
	summary.Report(log)
	if err != nil {
		return err
	}
	if summary.Failed() {
		return fmt.Errorf("%d repository syncs failed", len(summary.Failures))
	}
	return nil
}

// resolveAPIHost maps a GitHub Enterprise hostname to its API root. A bare
// hostname wins over any value from the defaults file; with neither set the
// public API is used.
func resolveAPIHost(host, current string) string {
	if host != "" {
		return fmt.Sprintf("https://%s/api/v3", host)
	}
	if current != "" {
		return current
	}
	return config.DefaultAPIHost
}

// defaultsPath resolves the TOML defaults file location.
func defaultsPath() string {
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ghvault", "config.toml")
}
