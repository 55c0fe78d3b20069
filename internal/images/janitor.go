package images

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically removes stored files that no session references.
// Re-uploading a slot overwrites the session's reference, so the previous
// file becomes unreachable garbage; the janitor reclaims it once it is older
// than maxAge. Referenced files are never touched regardless of age.
type Janitor struct {
	storage    *Storage
	maxAge     time.Duration
	referenced func() map[string]bool
	cron       *cron.Cron
}

// NewJanitor creates a janitor over storage. The referenced callback returns
// the set of filenames currently held by any session.
func NewJanitor(storage *Storage, maxAge time.Duration, referenced func() map[string]bool) *Janitor {
	return &Janitor{
		storage:    storage,
		maxAge:     maxAge,
		referenced: referenced,
		cron:       cron.New(),
	}
}

// Start schedules sweeps on the given cron spec (e.g. "@every 1h")
func (j *Janitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.Sweep); err != nil {
		return err
	}

	j.cron.Start()
	return nil
}

// Stop halts scheduled sweeps
func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Sweep removes unreferenced files older than maxAge
func (j *Janitor) Sweep() {
	inUse := j.referenced()

	entries, err := os.ReadDir(j.storage.Dir())
	if err != nil {
		log.Printf("[IMAGES]: Janitor could not read storage directory: %v", err)
		return
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || inUse[entry.Name()] {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(j.storage.Dir(), entry.Name())); err != nil {
			log.Printf("[IMAGES]: Janitor failed to remove %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("[IMAGES]: Janitor removed %d orphaned upload(s)", removed)
	}
}
