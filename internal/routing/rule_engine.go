package routing

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
)

// RuleRepository persists routing rules across restarts.
type RuleRepository interface {
	SaveRule(ctx context.Context, rule domain.RoutingRule) error
	DeleteRule(ctx context.Context, id string) error
	ListRules(ctx context.Context) ([]domain.RoutingRule, error)
}

// RuleEngine holds the ordered set of routing rules and matches content
// descriptors against them. The working set lives in memory under a
// read-write lock; every mutation is written through the repository
// before it is committed, so a failed write leaves no partial state.
type RuleEngine struct {
	mu    sync.RWMutex
	repo  RuleRepository
	rules map[string]domain.RoutingRule
}

// NewRuleEngine creates a rule engine backed by the given repository.
func NewRuleEngine(repo RuleRepository) *RuleEngine {
	return &RuleEngine{
		repo:  repo,
		rules: make(map[string]domain.RoutingRule),
	}
}

// Load hydrates the working set from the repository.
func (e *RuleEngine) Load(ctx context.Context) error {
	rules, err := e.repo.ListRules(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = make(map[string]domain.RoutingRule, len(rules))
	for _, rule := range rules {
		e.rules[rule.ID] = rule
	}

	log.Debugf("Loaded %d routing rules", len(rules))
	return nil
}

// Add validates and stores a new rule, generating an id if absent.
func (e *RuleEngine) Add(ctx context.Context, rule domain.RoutingRule) (domain.RoutingRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if err := validateRule(rule); err != nil {
		return domain.RoutingRule{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[rule.ID]; exists {
		return domain.RoutingRule{}, errors.Validation("rule id %q already exists", rule.ID)
	}

	if err := e.repo.SaveRule(ctx, rule); err != nil {
		return domain.RoutingRule{}, err
	}
	e.rules[rule.ID] = rule
	return rule, nil
}

// Update replaces an existing rule in place by id.
func (e *RuleEngine) Update(ctx context.Context, id string, rule domain.RoutingRule) (domain.RoutingRule, error) {
	rule.ID = id
	if err := validateRule(rule); err != nil {
		return domain.RoutingRule{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[id]; !exists {
		return domain.RoutingRule{}, errors.NotFound("routing rule", id)
	}

	if err := e.repo.SaveRule(ctx, rule); err != nil {
		return domain.RoutingRule{}, err
	}
	e.rules[id] = rule
	return rule, nil
}

// Delete removes a rule by id.
func (e *RuleEngine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[id]; !exists {
		return errors.NotFound("routing rule", id)
	}

	if err := e.repo.DeleteRule(ctx, id); err != nil {
		return err
	}
	delete(e.rules, id)
	return nil
}

// Get returns a rule by id.
func (e *RuleEngine) Get(id string) (domain.RoutingRule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rule, exists := e.rules[id]
	if !exists {
		return domain.RoutingRule{}, errors.NotFound("routing rule", id)
	}
	return rule, nil
}

// List returns all rules ordered by evaluation order: descending
// priority, ties broken by ascending id.
func (e *RuleEngine) List() []domain.RoutingRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ordered()
}

// Match returns the first active rule matching the descriptor, or nil.
// Evaluation order is descending priority with a deterministic tie-break
// by lexicographic rule id; evaluation stops at the first match.
func (e *RuleEngine) Match(desc domain.ContentDescriptor) *domain.RoutingRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, rule := range e.ordered() {
		if !rule.Active {
			continue
		}
		if ruleMatches(rule, desc) {
			matched := rule
			return &matched
		}
	}
	return nil
}

// ordered returns rules sorted by priority desc, id asc. Callers must
// hold at least a read lock.
func (e *RuleEngine) ordered() []domain.RoutingRule {
	rules := make([]domain.RoutingRule, 0, len(e.rules))
	for _, rule := range e.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
	return rules
}

func ruleMatches(rule domain.RoutingRule, desc domain.ContentDescriptor) bool {
	// Empty category list is a match-all wildcard
	if len(rule.ContentCategories) > 0 {
		found := false
		for _, cat := range rule.ContentCategories {
			if cat == desc.Category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(rule.ContentPatterns) > 0 {
		if !matchesAnyPattern(rule.ContentPatterns, desc.FileName) {
			return false
		}
	}

	// Size window is inclusive; unset bounds are unbounded
	if rule.MinSizeBytes != nil && desc.SizeBytes < *rule.MinSizeBytes {
		return false
	}
	if rule.MaxSizeBytes != nil && desc.SizeBytes > *rule.MaxSizeBytes {
		return false
	}

	return true
}

// matchesAnyPattern tries each pattern as a glob first, then as a
// plain substring.
func matchesAnyPattern(patterns []string, fileName string) bool {
	if fileName == "" {
		return false
	}
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, fileName); err == nil && ok {
			return true
		}
		if strings.Contains(fileName, pattern) {
			return true
		}
	}
	return false
}

// validateRule enforces the write-time rule contract. Violations reject
// the whole write; nothing is persisted partially.
func validateRule(rule domain.RoutingRule) error {
	if rule.Name == "" {
		return errors.Validation("rule name is required")
	}
	if !rule.Priority.Valid() {
		return errors.Validation("invalid priority: %d", int(rule.Priority))
	}
	if _, err := domain.ParseStrategy(string(rule.Strategy)); err != nil {
		return errors.Validation("invalid strategy: %q", string(rule.Strategy))
	}
	for _, cat := range rule.ContentCategories {
		if _, err := domain.ParseContentCategory(string(cat)); err != nil {
			return errors.Validation("invalid content category: %q", string(cat))
		}
	}
	if rule.MinSizeBytes != nil && rule.MaxSizeBytes != nil && *rule.MinSizeBytes > *rule.MaxSizeBytes {
		return errors.Validation("min_size_bytes %d exceeds max_size_bytes %d", *rule.MinSizeBytes, *rule.MaxSizeBytes)
	}
	if len(rule.ContentCategories) == 0 && len(rule.ContentPatterns) == 0 && !rule.MatchAll {
		return errors.Validation("rule must set content_categories, content_patterns, or match_all")
	}
	return nil
}
