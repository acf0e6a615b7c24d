// Package git reads the branch and commit of the working directory so task
// notes can say where the work happened.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// ErrNotRepository is returned when no repository encloses the directory.
var ErrNotRepository = errors.New("not inside a git repository")

// Detector implements ports.GitDetector using go-git.
type Detector struct{}

// NewDetector creates a new git detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Ensure Detector implements ports.GitDetector.
var _ ports.GitDetector = (*Detector)(nil)

// Detect opens the repository enclosing workingDir and reports HEAD.
// An empty workingDir means the process working directory.
func (d *Detector) Detect(ctx context.Context, workingDir string) (*ports.GitInfo, error) {
	if workingDir == "" {
		var err error
		workingDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	repo, err := git.PlainOpenWithOptions(workingDir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNotRepository
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	branch := head.Name().Short()
	if !head.Name().IsBranch() {
		branch = "detached@" + ShortCommit(head.Hash().String())
	}

	info := &ports.GitInfo{
		Branch: branch,
		Commit: head.Hash().String(),
	}
	if remotes, err := repo.Remotes(); err == nil && len(remotes) > 0 {
		if urls := remotes[0].Config().URLs; len(urls) > 0 {
			info.Repository = extractRepoName(urls[0])
		}
	}
	return info, nil
}

// extractRepoName turns a remote URL into owner/name.
func extractRepoName(url string) string {
	url = strings.TrimSuffix(url, ".git")

	// git@github.com:owner/name
	if strings.HasPrefix(url, "git@") {
		if i := strings.LastIndex(url, ":"); i >= 0 {
			return url[i+1:]
		}
	}

	if strings.Contains(url, "://") {
		parts := strings.Split(url, "/")
		if len(parts) >= 2 {
			return parts[len(parts)-2] + "/" + parts[len(parts)-1]
		}
	}

	return url
}

// ShortCommit returns the abbreviated form of a commit hash.
func ShortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
