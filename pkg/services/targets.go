package service

import (
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/google/uuid"
)

// TargetStore keeps scan targets in process memory. All access goes through
// the store; records handed out are copies.
type TargetStore struct {
	mu      sync.RWMutex
	targets map[string]models.ScanTarget
	log     *utils.Logger
}

func NewTargetStore(log *utils.Logger) *TargetStore {
	return &TargetStore{
		targets: make(map[string]models.ScanTarget),
		log:     log,
	}
}

// Create validates and stores a new target, assigning its id
func (s *TargetStore) Create(target models.ScanTarget) (models.ScanTarget, error) {
	if err := validateTarget(target); err != nil {
		return models.ScanTarget{}, err
	}

	target.ID = uuid.NewString()
	target.CreatedAt = time.Now()

	s.mu.Lock()
	s.targets[target.ID] = target
	s.mu.Unlock()

	s.log.WithFunc().WithField("target", target.Name).Info("Target created")
	return target, nil
}

// Get returns the target with the given id
func (s *TargetStore) Get(id string) (models.ScanTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.targets[id]
	if !ok {
		return models.ScanTarget{}, fmt.Errorf("target %s: %w", id, ErrNotFound)
	}
	return target, nil
}

// List returns all targets ordered by creation time
func (s *TargetStore) List() []models.ScanTarget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	targets := make([]models.ScanTarget, 0, len(s.targets))
	for _, t := range s.targets {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].CreatedAt.Before(targets[j].CreatedAt)
	})
	return targets
}

// Update replaces the mutable fields of an existing target
func (s *TargetStore) Update(id string, target models.ScanTarget) (models.ScanTarget, error) {
	if err := validateTarget(target); err != nil {
		return models.ScanTarget{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.targets[id]
	if !ok {
		return models.ScanTarget{}, fmt.Errorf("target %s: %w", id, ErrNotFound)
	}

	existing.Name = target.Name
	existing.Identifiers = target.Identifiers
	s.targets[id] = existing
	return existing, nil
}

// Delete removes a target
func (s *TargetStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.targets[id]; !ok {
		return fmt.Errorf("target %s: %w", id, ErrNotFound)
	}
	delete(s.targets, id)
	return nil
}

func validateTarget(target models.ScanTarget) error {
	if target.Name == "" {
		return fmt.Errorf("%w: target name is required", ErrValidation)
	}
	for _, id := range target.Identifiers {
		if err := validateIdentifier(id); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return nil
}

func validateIdentifier(id models.TargetIdentifier) error {
	switch id.Type {
	case models.IdentifierURL:
		u, err := url.Parse(id.Value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid url identifier: %s", id.Value)
		}
		return nil
	case models.IdentifierNPM:
		return utils.ValidatePackageCoordinate(id.Value)
	case models.IdentifierRepository:
		return utils.ValidateRepoSlug(id.Value)
	case models.IdentifierContainer:
		return utils.ValidateImageRef(id.Value)
	default:
		return fmt.Errorf("unknown identifier type: %s", id.Type)
	}
}
