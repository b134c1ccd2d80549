package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitService runs the git CLI inside a project
type GitService struct {
	workingDir string
}

func NewGitService(workingDir string) *GitService {
	return &GitService{workingDir: workingDir}
}

// Available reports whether git is on PATH
func (s *GitService) Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func (s *GitService) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.workingDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(string(out))
		}
		return "", fmt.Errorf("git %s: %s: %w", args[0], msg, err)
	}
	return string(out), nil
}

// IsRepo reports whether the project is already a git repository
func (s *GitService) IsRepo() bool {
	_, err := os.Stat(filepath.Join(s.workingDir, ".git"))
	return err == nil
}

// Init creates a repository unless one exists
func (s *GitService) Init(ctx context.Context) error {
	if s.IsRepo() {
		return nil
	}
	_, err := s.run(ctx, "init")
	return err
}

// Snapshot stages everything and commits it. Returns false when there was
// nothing to commit.
func (s *GitService) Snapshot(ctx context.Context, message string) (bool, error) {
	if _, err := s.run(ctx, "add", "-A"); err != nil {
		return false, err
	}

	status, err := s.Status(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(status) == "" {
		return false, nil
	}

	if _, err := s.run(ctx, "commit", "-q", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}

// Status returns `git status --short`
func (s *GitService) Status(ctx context.Context) (string, error) {
	return s.run(ctx, "status", "--short")
}
