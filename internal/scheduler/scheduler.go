// Package scheduler runs the server-side backstops: forfeiting rounds that
// no client expired and clearing queue entries nobody will claim.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// RoundExpirer forfeits overdue rounds
type RoundExpirer interface {
	ExpireOverdueRounds(ctx context.Context) (int, error)
}

// QueuePurger removes abandoned queue entries
type QueuePurger interface {
	PurgeStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Scheduler owns the periodic maintenance jobs
type Scheduler struct {
	sched    gocron.Scheduler
	rounds   RoundExpirer
	queue    QueuePurger
	queueTTL time.Duration
}

// New creates a scheduler that sweeps rounds every sweepInterval and purges
// queue entries older than queueTTL. Jobs first run as soon as Start is called.
func New(rounds RoundExpirer, queue QueuePurger, sweepInterval, queueTTL time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{sched: sched, rounds: rounds, queue: queue, queueTTL: queueTTL}

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context)
	}{
		{"expire-rounds", sweepInterval, s.expireRounds},
		{"purge-queue", queueTTL / 2, s.purgeQueue},
	}
	for _, j := range jobs {
		_, err := sched.NewJob(
			gocron.DurationJob(j.interval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), j.interval)
				defer cancel()
				j.run(ctx)
			}),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			sched.Shutdown()
			return nil, fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
	}
	return s, nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown stops the jobs and waits for running ones to finish
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) expireRounds(ctx context.Context) {
	n, err := s.rounds.ExpireOverdueRounds(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error expiring overdue rounds: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[Scheduler] Expired %d overdue rounds", n)
	}
}

func (s *Scheduler) purgeQueue(ctx context.Context) {
	n, err := s.queue.PurgeStale(ctx, s.queueTTL)
	if err != nil {
		log.Printf("[Scheduler] Error purging queue: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[Scheduler] Purged %d stale queue entries", n)
	}
}
