package migration

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zroute/internal/domain"
)

// Scheduler runs periodic migration policies on their cron schedules.
// Manual policies are never scheduled. Call Refresh after policy CRUD to
// re-sync the job set.
type Scheduler struct {
	cron       *cron.Cron
	policies   *PolicyStore
	controller *Controller

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler over the policy store and controller.
func NewScheduler(policies *PolicyStore, controller *Controller) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		policies:   policies,
		controller: controller,
		entries:    make(map[string]cron.EntryID),
	}
}

// Start syncs jobs from the policy store and begins running them.
func (s *Scheduler) Start() {
	s.Refresh()
	s.cron.Start()
	log.Info("Migration scheduler started")
}

// Stop halts scheduling and waits for any running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("Migration scheduler stopped")
}

// Refresh re-syncs cron entries with the current set of periodic
// policies: removed or demoted policies lose their entry, new ones are
// registered. Cron expressions were validated at policy write time.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	periodic := make(map[string]domain.MigrationPolicy)
	for _, policy := range s.policies.List() {
		if policy.Schedule.Mode == domain.SchedulePeriodic {
			periodic[policy.Name] = policy
		}
	}

	for name, entryID := range s.entries {
		if _, ok := periodic[name]; !ok {
			s.cron.Remove(entryID)
			delete(s.entries, name)
			log.Debugf("Unscheduled policy %s", name)
		}
	}

	for name, policy := range periodic {
		if _, ok := s.entries[name]; ok {
			continue
		}
		policyName := name
		entryID, err := s.cron.AddFunc(policy.Schedule.Cron, func() {
			batch, err := s.controller.ExecutePolicy(context.Background(), policyName)
			if err != nil {
				log.Warnf("Scheduled policy %s failed: %v", policyName, err)
				return
			}
			log.Infof("Scheduled policy %s queued %d tasks", policyName, len(batch.TaskIDs))
		})
		if err != nil {
			log.Warnf("Failed to schedule policy %s: %v", name, err)
			continue
		}
		s.entries[name] = entryID
		log.Debugf("Scheduled policy %s (%s)", name, policy.Schedule.Cron)
	}
}
