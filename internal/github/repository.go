package github

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Repository is the typed descriptor of a repository as consumed by filtering
// and the backup orchestrator. It is decoded from the raw listing record and
// never mutated afterwards.
type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Fork     bool   `json:"fork"`
	Private  bool   `json:"private"`
	Language string `json:"language"`
	HasWiki  bool   `json:"has_wiki"`
	CloneURL string `json:"clone_url"`
	SSHURL   string `json:"ssh_url"`
}

// DecodeRepositories converts raw listing records into descriptors. The round
// trip through JSON keeps the decoding rules identical to the wire format.
func DecodeRepositories(records []Record) ([]Repository, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("github: encode repository records: %w", err)
	}
	var repos []Repository
	if err := json.Unmarshal(data, &repos); err != nil {
		return nil, fmt.Errorf("github: decode repository records: %w", err)
	}
	return repos, nil
}

// RemoteURL returns the clone remote, honouring the SSH transport preference.
func (r Repository) RemoteURL(preferSSH bool) string {
	if preferSSH && r.SSHURL != "" {
		return r.SSHURL
	}
	return r.CloneURL
}

// WikiRemoteURL derives the wiki remote from the repository remote: the
// trailing ".git" becomes ".wiki.git".
func (r Repository) WikiRemoteURL(preferSSH bool) string {
	remote := r.RemoteURL(preferSSH)
	return strings.TrimSuffix(remote, ".git") + ".wiki.git"
}
