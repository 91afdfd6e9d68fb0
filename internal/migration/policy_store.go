package migration

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
)

// PolicyRepository persists migration policies across restarts.
type PolicyRepository interface {
	SavePolicy(ctx context.Context, policy domain.MigrationPolicy) error
	DeletePolicy(ctx context.Context, name string) error
	ListPolicies(ctx context.Context) ([]domain.MigrationPolicy, error)
}

// PolicyStore holds migration policies keyed by unique name, with
// write-through persistence.
type PolicyStore struct {
	mu       sync.RWMutex
	repo     PolicyRepository
	policies map[string]domain.MigrationPolicy
}

// NewPolicyStore creates a policy store backed by the given repository.
func NewPolicyStore(repo PolicyRepository) *PolicyStore {
	return &PolicyStore{
		repo:     repo,
		policies: make(map[string]domain.MigrationPolicy),
	}
}

// Load hydrates the working set from the repository.
func (s *PolicyStore) Load(ctx context.Context) error {
	policies, err := s.repo.ListPolicies(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = make(map[string]domain.MigrationPolicy, len(policies))
	for _, policy := range policies {
		s.policies[policy.Name] = policy
	}
	return nil
}

// Create validates and stores a new policy. Duplicate names are rejected.
func (s *PolicyStore) Create(ctx context.Context, policy domain.MigrationPolicy) (domain.MigrationPolicy, error) {
	normalized, err := validatePolicy(policy)
	if err != nil {
		return domain.MigrationPolicy{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.policies[normalized.Name]; exists {
		return domain.MigrationPolicy{}, errors.Validation("policy %q already exists", normalized.Name)
	}

	normalized.CreatedAt = time.Now().UTC()
	if err := s.repo.SavePolicy(ctx, normalized); err != nil {
		return domain.MigrationPolicy{}, err
	}
	s.policies[normalized.Name] = normalized
	return normalized, nil
}

// Update replaces an existing policy by name.
func (s *PolicyStore) Update(ctx context.Context, name string, policy domain.MigrationPolicy) (domain.MigrationPolicy, error) {
	policy.Name = name
	normalized, err := validatePolicy(policy)
	if err != nil {
		return domain.MigrationPolicy{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.policies[name]
	if !exists {
		return domain.MigrationPolicy{}, errors.NotFound("migration policy", name)
	}

	normalized.CreatedAt = existing.CreatedAt
	if err := s.repo.SavePolicy(ctx, normalized); err != nil {
		return domain.MigrationPolicy{}, err
	}
	s.policies[name] = normalized
	return normalized, nil
}

// Get returns a policy by name.
func (s *PolicyStore) Get(name string) (domain.MigrationPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, exists := s.policies[name]
	if !exists {
		return domain.MigrationPolicy{}, errors.NotFound("migration policy", name)
	}
	return policy, nil
}

// List returns all policies sorted by name.
func (s *PolicyStore) List() []domain.MigrationPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MigrationPolicy, 0, len(s.policies))
	for _, policy := range s.policies {
		out = append(out, policy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Delete removes a policy by name.
func (s *PolicyStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.policies[name]; !exists {
		return errors.NotFound("migration policy", name)
	}

	if err := s.repo.DeletePolicy(ctx, name); err != nil {
		return err
	}
	delete(s.policies, name)
	return nil
}

// validatePolicy enforces the policy contract and fills defaults.
func validatePolicy(policy domain.MigrationPolicy) (domain.MigrationPolicy, error) {
	if policy.Name == "" {
		return domain.MigrationPolicy{}, errors.Validation("policy name is required")
	}
	if policy.SourceBackend == "" || policy.DestinationBackend == "" {
		return domain.MigrationPolicy{}, errors.Validation("policy %q must set source and destination backends", policy.Name)
	}
	if policy.SourceBackend == policy.DestinationBackend {
		return domain.MigrationPolicy{}, errors.Validation("policy %q source and destination backends must differ", policy.Name)
	}

	if policy.ContentFilter.Type == "" {
		policy.ContentFilter.Type = domain.FilterAll
	}
	switch policy.ContentFilter.Type {
	case domain.FilterAll:
	case domain.FilterPrefix:
		if policy.ContentFilter.Prefix == "" {
			return domain.MigrationPolicy{}, errors.Validation("policy %q prefix filter requires a prefix", policy.Name)
		}
	default:
		return domain.MigrationPolicy{}, errors.Validation("policy %q has unknown filter type %q", policy.Name, policy.ContentFilter.Type)
	}

	if policy.Schedule.Mode == "" {
		policy.Schedule.Mode = domain.ScheduleManual
	}
	switch policy.Schedule.Mode {
	case domain.ScheduleManual:
	case domain.SchedulePeriodic:
		if policy.Schedule.Cron == "" {
			return domain.MigrationPolicy{}, errors.Validation("policy %q periodic schedule requires a cron expression", policy.Name)
		}
		if _, err := cron.ParseStandard(policy.Schedule.Cron); err != nil {
			return domain.MigrationPolicy{}, errors.Validation("policy %q has invalid cron expression %q", policy.Name, policy.Schedule.Cron)
		}
	default:
		return domain.MigrationPolicy{}, errors.Validation("policy %q has unknown schedule mode %q", policy.Name, policy.Schedule.Mode)
	}

	return policy, nil
}
