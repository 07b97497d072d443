// Package autosync periodically syncs the data sources configured for
// realtime or scheduled import.
package autosync

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/model"
)

const (
	DefaultInterval = 30 * time.Second
	// RealtimeGap is the least time between two syncs of a realtime source.
	RealtimeGap = 60 * time.Second
	// DefaultLimit bounds the syncs running at once within a tick.
	DefaultLimit = 4
)

var scheduleEvery = map[string]time.Duration{
	"hourly": time.Hour,
	"daily":  24 * time.Hour,
	"weekly": 7 * 24 * time.Hour,
}

// Backend lists and syncs data sources. Both *datasource.Service and
// *client.Client satisfy it.
type Backend interface {
	DataSources(ctx context.Context) ([]model.DataSource, error)
	Sync(ctx context.Context, id int64) (model.SyncResult, error)
}

type Scheduler struct {
	Interval time.Duration
	Limit    int

	backend Backend
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[int64]bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func New(backend Backend) *Scheduler {
	return &Scheduler{
		Interval: DefaultInterval,
		Limit:    DefaultLimit,
		backend:  backend,
		now:      time.Now,
		inFlight: map[int64]bool{},
	}
}

// Due reports whether ds should be synced at now.
func Due(ds model.DataSource, now time.Time) bool {
	var gap time.Duration
	switch ds.SyncMethod {
	case model.SyncRealtime:
		gap = RealtimeGap
	case model.SyncScheduled:
		every, ok := scheduleEvery[ds.SyncSchedule]
		if !ok {
			return false
		}
		gap = every
	default:
		return false
	}
	return ds.LastSyncAt == nil || now.Sub(*ds.LastSyncAt) >= gap
}

// Start ticks every Interval until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		log.Infof("autosync: started (every %s)", s.Interval)
		for {
			select {
			case <-ctx.Done():
				log.Info("autosync: stopped")
				return
			case <-ticker.C:
				// a slow tick must not delay the next one; the in-flight
				// flags keep their syncs apart
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
						log.Warnf("autosync.tick: %s", err)
					}
				}()
			}
		}
	}()
}

// Stop cancels the scheduler and waits for running syncs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Tick syncs every due source that is not already syncing, and waits for
// them. Failures of single syncs are logged, not returned.
func (s *Scheduler) Tick(ctx context.Context) error {
	sources, err := s.backend.DataSources(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Limit, 1))
	for _, ds := range sources {
		ds := ds
		if !Due(ds, now) || !s.claim(ds.ID) {
			continue
		}
		g.Go(func() error {
			defer s.release(ds.ID)
			s.sync(ctx, ds.ID)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) sync(ctx context.Context, id int64) {
	res, err := s.backend.Sync(ctx, id)
	if err != nil {
		log.Warnf("autosync.sync(%d): %s", id, err)
		return
	}
	entry := log.WithFields(log.Fields{
		"data_source": id,
		"status":      res.Status,
		"created":     res.Created,
		"updated":     res.Updated,
	})
	if res.Status == model.SyncFailed {
		entry.Warn("autosync.sync: ", res.Message)
	} else {
		entry.Debug("autosync.sync")
	}
}

func (s *Scheduler) claim(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *Scheduler) release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}
