package refresh

import (
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Scheduler triggers unattended refreshes of configured collections on a
// cron schedule. Each entry is a collection name, optionally with fixed
// parameters in query form, e.g. "stock_daily?symbol=000001,600519".
type Scheduler struct {
	service *Service
	cron    *cron.Cron
	logger  arbor.ILogger
	entries []string
}

// NewScheduler creates a new refresh scheduler
func NewScheduler(service *Service, entries []string, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		service: service,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		entries: entries,
	}
}

// Start begins the scheduled refreshes
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: every 6 hours
		schedule = "0 0 */6 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runAll()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Int("collections", len(s.entries)).
		Msg("Refresh scheduler started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Refresh scheduler stopped")
}

// RunNow triggers an immediate refresh run
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("Triggering immediate refresh run")
	go s.runAll()
}

func (s *Scheduler) runAll() {
	s.logger.Info().Int("collections", len(s.entries)).Msg("Starting scheduled refreshes")

	for _, entry := range s.entries {
		collection, params, err := ParseEntry(entry)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("entry", entry).
				Msg("Skipping invalid scheduled refresh entry")
			continue
		}

		taskID := s.service.Start(collection, params)
		s.logger.Info().
			Str("collection", collection).
			Str("task_id", taskID).
			Msg("Scheduled refresh started")
	}
}

// ParseEntry splits a scheduled refresh entry into a collection name and
// its fixed parameters
func ParseEntry(entry string) (string, map[string]string, error) {
	name := entry
	params := map[string]string{}

	if idx := strings.Index(entry, "?"); idx >= 0 {
		name = entry[:idx]
		values, err := url.ParseQuery(entry[idx+1:])
		if err != nil {
			return "", nil, err
		}
		for key := range values {
			params[key] = values.Get(key)
		}
	}

	return name, params, nil
}
