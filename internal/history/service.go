// Package history records session snapshots in one git repository per
// session, giving an auditable trail of phase transitions.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"workshop/api/internal/util"
	"workshop/api/internal/workshop"
)

const snapshotFile = "session.json"

// Entry is one recorded snapshot.
type Entry struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	baseDir string
	locks   util.KeyedMutex
	now     func() time.Time
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		now:     time.Now,
	}
}

// Record commits the JSON form of session, creating the repository on first
// use. Identical snapshots are still committed so every transition shows up.
func (s *Service) Record(session *workshop.Session, author, message string) (Entry, error) {
	defer s.locks.Lock(session.ID)()

	repo, err := s.openOrInit(session.ID)
	if err != nil {
		return Entry{}, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return Entry{}, fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(filepath.Join(worktree.Filesystem.Root(), snapshotFile), append(payload, '\n'), 0o644); err != nil {
		return Entry{}, fmt.Errorf("write %s: %w", snapshotFile, err)
	}
	if _, err := worktree.Add(snapshotFile); err != nil {
		return Entry{}, fmt.Errorf("git add snapshot: %w", err)
	}

	if strings.TrimSpace(author) == "" {
		author = "facilitator"
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  author,
			Email: fmt.Sprintf("%s@workshop.local", sanitizeEmail(author)),
			When:  s.now(),
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("commit snapshot: %w", err)
	}
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return Entry{}, fmt.Errorf("read commit object: %w", err)
	}
	return toEntry(commit), nil
}

// History lists snapshots newest first. A session that was never recorded
// has an empty history.
func (s *Service) History(sessionID string, limit int) ([]Entry, error) {
	defer s.locks.Lock(sessionID)()

	repo, err := git.PlainOpen(s.repoPath(sessionID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	entries := make([]Entry, 0)
	err = iter.ForEach(func(commit *object.Commit) error {
		entries = append(entries, toEntry(commit))
		if limit > 0 && len(entries) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return entries, nil
}

// Snapshot returns the session as recorded at hash (full or abbreviated).
func (s *Service) Snapshot(sessionID, hash string) (*workshop.Session, error) {
	defer s.locks.Lock(sessionID)()

	repo, err := git.PlainOpen(s.repoPath(sessionID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, workshop.NotFound("snapshot", hash)
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return nil, workshop.NotFound("snapshot", hash)
	}
	commit, err := repo.CommitObject(*resolved)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	file, err := commit.File(snapshotFile)
	if err != nil {
		return nil, fmt.Errorf("load %s from commit: %w", snapshotFile, err)
	}
	raw, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var session workshop.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	session.Normalize()
	return &session, nil
}

func (s *Service) openOrInit(sessionID string) (*git.Repository, error) {
	path := s.repoPath(sessionID)
	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInitWithOptions(path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return repo, nil
}

// repoPath keeps ids from escaping baseDir.
func (s *Service) repoPath(sessionID string) string {
	return filepath.Join(s.baseDir, filepath.Base(filepath.Clean("/"+sessionID)))
}

func toEntry(commit *object.Commit) Entry {
	return Entry{
		Hash:      commit.Hash.String()[:7],
		Message:   strings.TrimSpace(commit.Message),
		Author:    commit.Author.Name,
		CreatedAt: commit.Author.When,
	}
}

func sanitizeEmail(input string) string {
	var b strings.Builder
	for _, r := range input {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('.')
		}
	}
	if b.Len() == 0 {
		return "participant"
	}
	return b.String()
}
