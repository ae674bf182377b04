// Package scheduler запускает периодические задачи бота поверх cron.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job — одна периодическая задача.
type Job func(ctx context.Context) error

// Scheduler управляет периодическими задачами.
type Scheduler struct {
	cron *cron.Cron
	jobs map[string]cron.EntryID
}

// New создаёт планировщик. Все расписания трактуются в UTC;
// затянувшаяся задача не запускается поверх самой себя.
func New() *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	return &Scheduler{
		cron: c,
		jobs: map[string]cron.EntryID{},
	}
}

// AddJob регистрирует задачу по cron-расписанию
// (формат "0 3 * * *" либо "@every 5m").
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		log.Printf("[scheduler] Starting job: %s", name)
		start := time.Now()

		if err := job(ctx); err != nil {
			log.Printf("[scheduler] Job %s failed after %v: %v", name, time.Since(start), err)
			return
		}
		log.Printf("[scheduler] Job %s completed in %v", name, time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	log.Printf("[scheduler] Added job %s with schedule %q", name, schedule)
	return nil
}

// AddInterval регистрирует задачу с фиксированным интервалом.
func (s *Scheduler) AddInterval(name string, interval time.Duration, job Job) error {
	return s.AddJob(name, fmt.Sprintf("@every %s", interval), job)
}

// Start запускает планировщик.
func (s *Scheduler) Start() {
	log.Println("[scheduler] Starting scheduler")
	s.cron.Start()
}

// Stop останавливает планировщик и дожидается завершения текущих задач.
func (s *Scheduler) Stop() {
	log.Println("[scheduler] Stopping scheduler")
	<-s.cron.Stop().Done()
}
