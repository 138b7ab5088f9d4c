// Package backup drives a full backup run: it builds the working set of
// repositories, mirrors each one, fetches and persists the selected metadata
// entities, and finishes with the account-level listings. Every network call
// goes through the injected fetcher, so the rate-limit clock is shared across
// everything the run does.
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ghvault-cli/internal/config"
	"github.com/custodia-labs/ghvault-cli/internal/github"
	"github.com/custodia-labs/ghvault-cli/internal/gitmirror"
	"github.com/custodia-labs/ghvault-cli/internal/logger"
)

// Fetcher is the data-retrieval capability the orchestrator depends on.
// *github.Client implements it.
type Fetcher interface {
	FetchAll(ctx context.Context, path string, params map[string]string) ([]github.Record, error)
	FetchOne(ctx context.Context, path string, params map[string]string) (github.Record, error)
}

// MirrorSyncer is the clone-or-update capability. *gitmirror.Syncer
// implements it.
type MirrorSyncer interface {
	Sync(ctx context.Context, name, remoteURL, dir string, skipExisting bool) gitmirror.Result
}

// Synthetic keys under which nested sub-collections are attached to a
// persisted entity.
const (
	keyCommentData = "comment_data"
	keyEventData   = "event_data"
	keyCommitData  = "commit_data"
)

// Orchestrator runs one backup according to the resolved configuration.
type Orchestrator struct {
	cfg     *config.Config
	fetcher Fetcher
	mirror  MirrorSyncer
	log     logger.Logger
}

// New creates an orchestrator.
func New(cfg *config.Config, fetcher Fetcher, mirror MirrorSyncer, log logger.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, fetcher: fetcher, mirror: mirror, log: log}
}

// Run executes the backup. API errors are fatal and abort the run; mirror
// sync failures are collected into the summary instead, so one broken clone
// cannot abort the remaining repositories.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	repos, err := o.workingSet(ctx)
	if err != nil {
		return summary, err
	}
	summary.setRepositories(len(repos))
	o.log.Infof("backing up %d repositories for %s", len(repos), o.cfg.Account)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.cfg.Concurrency)
	for _, repo := range repos {
		repo := repo
		group.Go(func() error {
			return o.backupRepository(groupCtx, repo, summary)
		})
	}
	if err := group.Wait(); err != nil {
		return summary, err
	}

	if err := o.backupAccountListings(ctx, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// workingSet lists and filters the repositories in scope.
func (o *Orchestrator) workingSet(ctx context.Context) ([]github.Repository, error) {
	if o.cfg.SingleRepo != "" {
		rec, err := o.fetcher.FetchOne(ctx, "/repos/"+o.cfg.Account+"/"+o.cfg.SingleRepo, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch repository %s: %w", o.cfg.SingleRepo, err)
		}
		return github.DecodeRepositories([]github.Record{rec})
	}

	path := "/users/" + o.cfg.Account + "/repos"
	if o.cfg.IsOrganization {
		path = "/orgs/" + o.cfg.Account + "/repos"
	}
	records, err := o.fetcher.FetchAll(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}

	repos, err := github.DecodeRepositories(records)
	if err != nil {
		return nil, err
	}

	opts := github.FilterOptions{
		IncludeForks:   o.cfg.IncludeForks,
		IncludePrivate: o.cfg.IncludePrivate,
		Languages:      o.cfg.Languages,
	}
	if o.cfg.NamePattern != "" {
		pattern, err := github.CompileNamePattern(o.cfg.NamePattern)
		if err != nil {
			return nil, fmt.Errorf("compile name pattern: %w", err)
		}
		opts.NamePattern = pattern
	}
	return github.FilterRepositories(repos, opts), nil
}

// backupRepository runs every per-repository step that is in scope.
func (o *Orchestrator) backupRepository(ctx context.Context, repo github.Repository, summary *Summary) error {
	repoDir := filepath.Join(o.cfg.OutputDir, "repositories", repo.Name)
	if err := ensureDir(repoDir); err != nil {
		return err
	}

	if o.cfg.WantRepositories() {
		dir := filepath.Join(repoDir, "repository")
		res := o.mirror.Sync(ctx, repo.FullName, repo.RemoteURL(o.cfg.PreferSSH), dir, o.cfg.SkipExisting)
		summary.recordMirror(res)
	}

	if o.cfg.WantWikis() && repo.HasWiki {
		dir := filepath.Join(repoDir, "wiki")
		res := o.mirror.Sync(ctx, repo.FullName+".wiki", repo.WikiRemoteURL(o.cfg.PreferSSH), dir, o.cfg.SkipExisting)
		summary.recordMirror(res)
	}

	if o.cfg.WantIssues() {
		if err := o.backupIssues(ctx, repo, repoDir, summary); err != nil {
			return err
		}
	}
	if o.cfg.WantPulls() {
		if err := o.backupPulls(ctx, repo, repoDir, summary); err != nil {
			return err
		}
	}
	if o.cfg.WantMilestones() {
		if err := o.backupMilestones(ctx, repo, repoDir, summary); err != nil {
			return err
		}
	}
	if o.cfg.WantLabels() {
		if err := o.backupLabels(ctx, repo, repoDir, summary); err != nil {
			return err
		}
	}
	return nil
}

// backupIssues fetches open and closed issues, merges them by number with
// later entries winning, optionally attaches comments and events, and writes
// one document per issue.
func (o *Orchestrator) backupIssues(ctx context.Context, repo github.Repository, repoDir string, summary *Summary) error {
	dir := filepath.Join(repoDir, "issues")
	if o.cfg.SkipExisting && dirExists(dir) {
		o.log.Infof("%s: issues exist, skipping", repo.FullName)
		return nil
	}

	merged := make(map[int64]github.Record)
	for _, state := range []string{"open", "closed"} {
		records, err := o.fetcher.FetchAll(ctx, "/repos/"+repo.FullName+"/issues", map[string]string{
			"filter": "all",
			"state":  state,
		})
		if err != nil {
			return fmt.Errorf("%s: fetch %s issues: %w", repo.FullName, state, err)
		}
		github.MergeByNumber(merged, records)
	}
	o.log.Infof("%s: %d issues", repo.FullName, len(merged))

	if err := ensureDir(dir); err != nil {
		return err
	}
	for _, number := range sortedNumbers(merged) {
		record := merged[number]
		numberPath := fmt.Sprintf("/repos/%s/issues/%d", repo.FullName, number)

		if o.cfg.WantIssueComments() {
			comments, err := o.fetcher.FetchAll(ctx, numberPath+"/comments", nil)
			if err != nil {
				return fmt.Errorf("%s: fetch comments for issue %d: %w", repo.FullName, number, err)
			}
			record = record.WithNested(keyCommentData, comments)
		}
		if o.cfg.WantIssueEvents() {
			events, err := o.fetcher.FetchAll(ctx, numberPath+"/events", nil)
			if err != nil {
				return fmt.Errorf("%s: fetch events for issue %d: %w", repo.FullName, number, err)
			}
			record = record.WithNested(keyEventData, events)
		}

		if err := writeJSON(filepath.Join(dir, fmt.Sprintf("%d.json", number)), record); err != nil {
			return err
		}
		summary.addWritten(1)
	}
	return nil
}

// backupPulls mirrors the issue flow with commit enrichment instead of
// events.
func (o *Orchestrator) backupPulls(ctx context.Context, repo github.Repository, repoDir string, summary *Summary) error {
	dir := filepath.Join(repoDir, "pulls")
	if o.cfg.SkipExisting && dirExists(dir) {
		o.log.Infof("%s: pulls exist, skipping", repo.FullName)
		return nil
	}

	merged := make(map[int64]github.Record)
	for _, state := range []string{"open", "closed"} {
		records, err := o.fetcher.FetchAll(ctx, "/repos/"+repo.FullName+"/pulls", map[string]string{
			"state": state,
		})
		if err != nil {
			return fmt.Errorf("%s: fetch %s pulls: %w", repo.FullName, state, err)
		}
		github.MergeByNumber(merged, records)
	}
	o.log.Infof("%s: %d pull requests", repo.FullName, len(merged))

	if err := ensureDir(dir); err != nil {
		return err
	}
	for _, number := range sortedNumbers(merged) {
		record := merged[number]
		numberPath := fmt.Sprintf("/repos/%s/pulls/%d", repo.FullName, number)

		if o.cfg.WantPullComments() {
			comments, err := o.fetcher.FetchAll(ctx, numberPath+"/comments", nil)
			if err != nil {
				return fmt.Errorf("%s: fetch comments for pull %d: %w", repo.FullName, number, err)
			}
			record = record.WithNested(keyCommentData, comments)
		}
		if o.cfg.WantPullCommits() {
			commits, err := o.fetcher.FetchAll(ctx, numberPath+"/commits", nil)
			if err != nil {
				return fmt.Errorf("%s: fetch commits for pull %d: %w", repo.FullName, number, err)
			}
			record = record.WithNested(keyCommitData, commits)
		}

		if err := writeJSON(filepath.Join(dir, fmt.Sprintf("%d.json", number)), record); err != nil {
			return err
		}
		summary.addWritten(1)
	}
	return nil
}

// backupMilestones fetches all milestones and writes one document per
// milestone.
func (o *Orchestrator) backupMilestones(ctx context.Context, repo github.Repository, repoDir string, summary *Summary) error {
	dir := filepath.Join(repoDir, "milestones")
	if o.cfg.SkipExisting && dirExists(dir) {
		o.log.Infof("%s: milestones exist, skipping", repo.FullName)
		return nil
	}

	records, err := o.fetcher.FetchAll(ctx, "/repos/"+repo.FullName+"/milestones", map[string]string{
		"state": "all",
	})
	if err != nil {
		return fmt.Errorf("%s: fetch milestones: %w", repo.FullName, err)
	}

	merged := make(map[int64]github.Record)
	github.MergeByNumber(merged, records)
	o.log.Infof("%s: %d milestones", repo.FullName, len(merged))

	if err := ensureDir(dir); err != nil {
		return err
	}
	for _, number := range sortedNumbers(merged) {
		if err := writeJSON(filepath.Join(dir, fmt.Sprintf("%d.json", number)), merged[number]); err != nil {
			return err
		}
		summary.addWritten(1)
	}
	return nil
}

// backupLabels writes the whole label collection as one document.
func (o *Orchestrator) backupLabels(ctx context.Context, repo github.Repository, repoDir string, summary *Summary) error {
	dir := filepath.Join(repoDir, "labels")
	if o.cfg.SkipExisting && dirExists(dir) {
		o.log.Infof("%s: labels exist, skipping", repo.FullName)
		return nil
	}

	records, err := o.fetcher.FetchAll(ctx, "/repos/"+repo.FullName+"/labels", nil)
	if err != nil {
		return fmt.Errorf("%s: fetch labels: %w", repo.FullName, err)
	}
	o.log.Infof("%s: %d labels", repo.FullName, len(records))

	if err := ensureDir(dir); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "labels.json"), records); err != nil {
		return err
	}
	summary.addWritten(1)
	return nil
}

// backupAccountListings writes the starred and watched listings, each a
// single fixed-name document under the account directory.
func (o *Orchestrator) backupAccountListings(ctx context.Context, summary *Summary) error {
	type listing struct {
		enabled bool
		name    string
		path    string
	}
	listings := []listing{
		{o.cfg.WantStarred(), "starred", "/users/" + o.cfg.Account + "/starred"},
		{o.cfg.WantWatched(), "watched", "/users/" + o.cfg.Account + "/subscriptions"},
	}

	for _, l := range listings {
		if !l.enabled {
			continue
		}

		file := filepath.Join(o.cfg.OutputDir, "account", l.name+".json")
		if o.cfg.SkipExisting && fileExists(file) {
			o.log.Infof("%s listing exists, skipping", l.name)
			continue
		}

		records, err := o.fetcher.FetchAll(ctx, l.path, nil)
		if err != nil {
			return fmt.Errorf("fetch %s listing: %w", l.name, err)
		}
		o.log.Infof("%s: %d repositories", l.name, len(records))

		if err := ensureDir(filepath.Dir(file)); err != nil {
			return err
		}
		if err := writeJSON(file, records); err != nil {
			return err
		}
		summary.addWritten(1)
	}
	return nil
}

// sortedNumbers returns the map keys in ascending order so enumeration and
// logging are deterministic.
func sortedNumbers(m map[int64]github.Record) []int64 {
	numbers := make([]int64, 0, len(m))
	for n := range m {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers
}
