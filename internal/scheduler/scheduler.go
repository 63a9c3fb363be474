// Package scheduler runs the periodic snapshot backup job.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/haysimo/siteops/internal/archive"
	"github.com/haysimo/siteops/internal/service"
)

// Scheduler exports the full dataset on a cron schedule and uploads the
// result to the snapshot archive.
type Scheduler struct {
	cron      *cron.Cron
	snapshots *service.SnapshotService
	archive   *archive.Client
	schedule  string
}

func New(schedule string, snapshots *service.SnapshotService, archiveClient *archive.Client) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		snapshots: snapshots,
		archive:   archiveClient,
		schedule:  schedule,
	}
}

// Start registers the backup job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runBackup); err != nil {
		return fmt.Errorf("could not schedule backup job: %w", err)
	}

	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("backup scheduler started")
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunBackup exports a snapshot and uploads it; also used by the admin
// endpoint for manual backups.
func (s *Scheduler) RunBackup(ctx context.Context) (string, error) {
	data, err := s.snapshots.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("backup export failed: %w", err)
	}

	name := fmt.Sprintf("siteops-%s.json", time.Now().UTC().Format("2006-01-02T15-04-05"))
	if err := s.archive.Upload(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	name, err := s.RunBackup(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduled backup failed")
		return
	}
	log.Info().Str("object", name).Msg("scheduled backup uploaded")
}
