package app

import (
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"

	"github.com/aurora-planner/aurora/internal/ratelimit"
)

// minPruneInterval keeps very short rate windows from scheduling a busy sweep.
const minPruneInterval = 10 * time.Second

// startMaintenance schedules background housekeeping for the running server.
// The caller stops the returned scheduler on shutdown.
func startMaintenance(limiter *ratelimit.Manager, every time.Duration) (*gocron.Scheduler, error) {
	if every < minPruneInterval {
		every = minPruneInterval
	}
	s := gocron.NewScheduler(time.UTC)
	if _, errJob := s.Every(every).Do(func() {
		if removed := limiter.Prune(); removed > 0 {
			log.Debugf("rate limit: pruned %d expired windows", removed)
		}
	}); errJob != nil {
		return nil, errJob
	}
	s.StartAsync()
	return s, nil
}
