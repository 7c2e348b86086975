package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"proposals/internal/config"
	"proposals/internal/document"
	"proposals/internal/domain"
	"proposals/internal/storage"
)

// Backup is one JSON snapshot file.
type Backup struct {
	Proposal domain.Proposal `json:"proposal"`
	TakenAt  time.Time       `json:"takenAt"`
	Document json.RawMessage `json:"document"`
}

// BackupRun summarizes one pass over every proposal.
type BackupRun struct {
	Written int  `json:"written"`
	Pruned  int  `json:"pruned"`
	Skipped bool `json:"skipped"`
}

// ─────────────────────────────────────────────────────────────
// Backup Service: scheduled JSON snapshots of every proposal
// ─────────────────────────────────────────────────────────────

// BackupService writes one snapshot per proposal into the backup directory
// on a cron schedule. The desktop app and the standalone MCP server may
// both run it; a lock file in the directory keeps them from interleaving.
type BackupService struct {
	store   domain.ProposalStore
	dir     string
	keep    int
	emitter EventEmitter
	lock    *flock.Flock
	now     func() time.Time

	cronSched *cron.Cron
}

func NewBackupService(store domain.ProposalStore, cfg config.Config, emitter EventEmitter) *BackupService {
	dir := cfg.BackupDir()
	return &BackupService{
		store:   store,
		dir:     dir,
		keep:    cfg.Backup.Keep,
		emitter: emitter,
		lock:    flock.New(filepath.Join(dir, ".lock")),
		now:     time.Now,
	}
}

// Start schedules backups. An empty schedule disables them.
func (s *BackupService) Start(ctx context.Context, schedule string) error {
	s.Stop()
	if schedule == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		run, err := s.RunOnce(ctx)
		if err != nil {
			log.Printf("[BACKUP] failed: %v", err)
			return
		}
		if !run.Skipped {
			s.emitter.Emit(ctx, EventBackupDone, run)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cronSched = c
	log.Printf("[BACKUP] scheduled %q into %s", schedule, s.dir)
	return nil
}

func (s *BackupService) Stop() {
	if s.cronSched != nil {
		<-s.cronSched.Stop().Done()
		s.cronSched = nil
	}
}

// RunOnce snapshots every proposal now. When another process holds the
// backup directory the run is skipped.
func (s *BackupService) RunOnce(ctx context.Context) (*BackupRun, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	locked, err := s.lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil && lockCtx.Err() == nil {
		return nil, fmt.Errorf("lock backup directory: %w", err)
	}
	if !locked {
		log.Printf("[BACKUP] %s is locked by another process, skipping", s.dir)
		return &BackupRun{Skipped: true}, nil
	}
	defer s.lock.Unlock()

	proposals, err := s.store.ListProposals()
	if err != nil {
		return nil, err
	}
	run := &BackupRun{}
	for _, p := range proposals {
		if err := s.backup(p); err != nil {
			log.Printf("[BACKUP] proposal %s: %v", p.ID, err)
			continue
		}
		run.Written++
		run.Pruned += s.prune(p.ID)
	}
	log.Printf("[BACKUP] wrote %d snapshot(s), pruned %d", run.Written, run.Pruned)
	return run, nil
}

func (s *BackupService) backup(p domain.Proposal) error {
	m, err := storage.LoadDocument(s.store, p.ID)
	if err != nil {
		return err
	}
	doc, err := m.Serialize()
	if err != nil {
		return err
	}
	taken := s.now().UTC()
	data, err := json.MarshalIndent(Backup{Proposal: p, TakenAt: taken, Document: doc}, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Join(s.dir, p.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	name := taken.Format("20060102T150405.000000000Z") + ".json"
	return os.WriteFile(filepath.Join(dir, name), data, 0644)
}

// prune keeps the newest s.keep snapshots of a proposal.
func (s *BackupService) prune(proposalID string) int {
	if s.keep <= 0 {
		return 0
	}
	files, err := s.List(proposalID)
	if err != nil || len(files) <= s.keep {
		return 0
	}
	removed := 0
	for _, f := range files[:len(files)-s.keep] {
		if os.Remove(f) == nil {
			removed++
		}
	}
	return removed
}

// List returns the snapshot files of a proposal, oldest first.
func (s *BackupService) List(proposalID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, proposalID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, filepath.Join(s.dir, proposalID, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Restore writes a snapshot back to the store, recreating the proposal if
// it was deleted since, and returns the proposal id.
func (s *BackupService) Restore(path string) (string, error) {
	b, err := ReadBackup(path)
	if err != nil {
		return "", err
	}
	m, err := document.Deserialize(b.Document)
	if err != nil {
		return "", fmt.Errorf("restore %s: %w", path, err)
	}
	p := b.Proposal
	_, err = s.store.GetProposal(p.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if err := s.store.CreateProposal(&p); err != nil {
			return "", fmt.Errorf("recreate proposal: %w", err)
		}
	case err != nil:
		return "", err
	}
	if err := storage.SaveDocument(s.store, p.ID, m); err != nil {
		return "", err
	}
	log.Printf("[BACKUP] restored %s from %s", p.ID, filepath.Base(path))
	return p.ID, nil
}

// ReadBackup loads a snapshot file.
func ReadBackup(path string) (*Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse backup %s: %w", path, err)
	}
	return &b, nil
}
