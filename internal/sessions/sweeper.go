package sessions

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper evicts idle sessions on a cron schedule.
type Sweeper struct {
	cron     *cron.Cron
	registry *Registry
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time
	after    []func()
}

// NewSweeper accepts standard five-field specs and descriptors such as
// "@every 5m".
func NewSweeper(registry *Registry, schedule string, ttl time.Duration, log zerolog.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:     cron.New(),
		registry: registry,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() { <-s.cron.Stop().Done() }

// OnSweep registers fn to run after every sweep. Call it before Start.
func (s *Sweeper) OnSweep(fn func()) {
	s.after = append(s.after, fn)
}

func (s *Sweeper) RunOnce() {
	evicted := s.registry.Sweep(s.now(), s.ttl)
	if len(evicted) > 0 {
		s.log.Info().Int("evicted", len(evicted)).Int("remaining", s.registry.Len()).Msg("idle sessions evicted")
	}
	for _, fn := range s.after {
		fn()
	}
}
