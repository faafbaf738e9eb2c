package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
)

// Ensure Scheduler implements the interface.
var _ driving.SchedulerControl = (*Scheduler)(nil)

// tickInterval is how often the scheduler checks for due tasks.
const tickInterval = 1 * time.Minute

// Scheduler runs one periodic sync task per configured source, with task
// state persisted for crash recovery. Connectors that can watch their
// backend (uploads) additionally trigger an immediate sync on change
// hints between ticks.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	ingestor driving.Ingestor
	sources  driven.SourceProvider
	factory  driven.ConnectorFactory

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. factory may be nil to disable change
// watching.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	ingestor driving.Ingestor,
	sources driven.SourceProvider,
	factory driven.ConnectorFactory,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		ingestor: ingestor,
		sources:  sources,
		factory:  factory,
	}
}

// Start begins the scheduler loop. Blocks until Stop is called or the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	sources, err := s.sources.Sources(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list sources: %v", err)
		sources = nil
	}

	if err := s.initialiseTasks(ctx, sources); err != nil {
		log.Printf("scheduler: failed to initialise tasks: %v", err)
	}
	s.startWatchers(ctx, sources)

	return s.run(ctx)
}

// Stop gracefully shuts down, waiting for running tasks and watchers.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures one sync task per source exists in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context, sources []domain.Source) error {
	var errs []error
	for _, source := range sources {
		if err := s.ensureTask(ctx, source); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ensureTask creates or updates a source's sync task.
func (s *Scheduler) ensureTask(ctx context.Context, source domain.Source) error {
	id := domain.SyncTaskID(source.ID)
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     "Sync " + source.Name,
			SourceID: source.ID,
			Interval: s.config.Interval,
			Enabled:  s.config.Enabled,
			// Due immediately; the startup check picks it up.
			NextRun: time.Now(),
		}
	} else {
		if task.Interval != s.config.Interval {
			task.Interval = s.config.Interval
			task.NextRun = time.Now().Add(s.config.Interval)
		}
		task.Enabled = s.config.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// startWatchers subscribes to connector change streams. A change hint
// triggers an immediate sync instead of waiting for the interval.
func (s *Scheduler) startWatchers(ctx context.Context, sources []domain.Source) {
	if s.factory == nil {
		return
	}
	for _, source := range sources {
		connector, err := s.factory.Create(ctx, source)
		if err != nil {
			log.Printf("scheduler: failed to create watcher connector for %s: %v", source.ID, err)
			continue
		}
		changes, err := connector.Changes(ctx)
		if err != nil {
			log.Printf("scheduler: failed to watch %s: %v", source.ID, err)
			connector.Close()
			continue
		}
		if changes == nil {
			connector.Close()
			continue
		}

		sourceID := source.ID
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer connector.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case <-s.stopCh:
					return
				case _, ok := <-changes:
					if !ok {
						return
					}
					s.triggerSync(ctx, sourceID)
				}
			}
		}()
	}
}

// triggerSync runs an out-of-band sync for a source. An already running
// pass absorbs the hint: the in-flight guard refuses the second pass and
// the change is picked up by the next scheduled run.
func (s *Scheduler) triggerSync(ctx context.Context, sourceID string) {
	summary, err := s.ingestor.Sync(ctx, sourceID)
	if errors.Is(err, domain.ErrSyncInProgress) {
		return
	}
	if err != nil {
		log.Printf("scheduler: change-triggered sync for %s failed: %v", sourceID, err)
		return
	}
	log.Printf("scheduler: change-triggered sync for %s: %d synced", sourceID, summary.Synced)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single sync task in the background.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		summary, err := s.ingestor.Sync(ctx, task.SourceID)
		if errors.Is(err, domain.ErrSyncInProgress) {
			// A change-triggered pass is running; NextRun stays due and
			// the next tick retries.
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			result.ItemsProcessed = summary.Synced
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			log.Printf("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			log.Printf("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, s.config.HistoryKeep); pruneErr != nil {
			log.Printf("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}
