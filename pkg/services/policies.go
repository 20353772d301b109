package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/google/uuid"
)

// PolicyStore keeps scan policies in process memory
type PolicyStore struct {
	mu       sync.RWMutex
	policies map[string]models.ScanPolicy
	log      *utils.Logger
}

func NewPolicyStore(log *utils.Logger) *PolicyStore {
	return &PolicyStore{
		policies: make(map[string]models.ScanPolicy),
		log:      log,
	}
}

// Create validates and stores a new policy, applying defaults: all tools
// allowed when the list is empty, passive scan mode unless explicitly set.
func (s *PolicyStore) Create(policy models.ScanPolicy) (models.ScanPolicy, error) {
	policy = applyPolicyDefaults(policy)
	if err := validatePolicy(policy); err != nil {
		return models.ScanPolicy{}, err
	}

	policy.ID = uuid.NewString()
	policy.CreatedAt = time.Now()

	s.mu.Lock()
	s.policies[policy.ID] = policy
	s.mu.Unlock()

	s.log.WithFunc().WithField("policy", policy.Name).Info("Policy created")
	return policy, nil
}

// Get returns the policy with the given id
func (s *PolicyStore) Get(id string) (models.ScanPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[id]
	if !ok {
		return models.ScanPolicy{}, fmt.Errorf("policy %s: %w", id, ErrNotFound)
	}
	return policy, nil
}

// List returns all policies ordered by creation time
func (s *PolicyStore) List() []models.ScanPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policies := make([]models.ScanPolicy, 0, len(s.policies))
	for _, p := range s.policies {
		policies = append(policies, p)
	}
	sort.Slice(policies, func(i, j int) bool {
		return policies[i].CreatedAt.Before(policies[j].CreatedAt)
	})
	return policies
}

// Update replaces the mutable fields of an existing policy
func (s *PolicyStore) Update(id string, policy models.ScanPolicy) (models.ScanPolicy, error) {
	policy = applyPolicyDefaults(policy)
	if err := validatePolicy(policy); err != nil {
		return models.ScanPolicy{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.policies[id]
	if !ok {
		return models.ScanPolicy{}, fmt.Errorf("policy %s: %w", id, ErrNotFound)
	}

	existing.Name = policy.Name
	existing.AllowedTools = policy.AllowedTools
	existing.MaxReqPerMin = policy.MaxReqPerMin
	existing.SpiderDepth = policy.SpiderDepth
	existing.Exclusions = policy.Exclusions
	existing.ScanMode = policy.ScanMode
	s.policies[id] = existing
	return existing, nil
}

// Delete removes a policy
func (s *PolicyStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[id]; !ok {
		return fmt.Errorf("policy %s: %w", id, ErrNotFound)
	}
	delete(s.policies, id)
	return nil
}

func applyPolicyDefaults(policy models.ScanPolicy) models.ScanPolicy {
	if len(policy.AllowedTools) == 0 {
		policy.AllowedTools = models.AllTools()
	}
	if policy.ScanMode == "" {
		policy.ScanMode = models.ModePassive
	}
	return policy
}

func validatePolicy(policy models.ScanPolicy) error {
	if policy.Name == "" {
		return fmt.Errorf("%w: policy name is required", ErrValidation)
	}
	if policy.ScanMode != models.ModePassive && policy.ScanMode != models.ModeActive {
		return fmt.Errorf("%w: unknown scan mode %q", ErrValidation, policy.ScanMode)
	}
	if policy.MaxReqPerMin < 0 {
		return fmt.Errorf("%w: maxReqPerMin cannot be negative", ErrValidation)
	}
	if policy.SpiderDepth < 0 {
		return fmt.Errorf("%w: spiderDepth cannot be negative", ErrValidation)
	}
	for _, tool := range policy.AllowedTools {
		if !models.KnownTool(tool) {
			return fmt.Errorf("%w: unknown tool %q", ErrValidation, tool)
		}
	}
	return nil
}
