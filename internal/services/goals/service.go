// Package goals manages savings goals. Progress is manually updated by
// the caller — goals are deliberately not linked to ledger or portfolio
// growth.
package goals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// ErrValidation wraps all input validation failures.
var ErrValidation = errors.New("invalid input")

// ErrNotFound reports an update against a missing goal id.
var ErrNotFound = errors.New("goal not found")

// Compile-time interface check
var _ interfaces.GoalService = (*Service)(nil)

// Service implements GoalService with read-modify-write persistence
// through the key-value store.
type Service struct {
	store  interfaces.KeyValueStore
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a goal service.
func NewService(store interfaces.KeyValueStore, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// List returns all goals. A store without the goals key yields an empty
// list, not an error.
func (s *Service) List(ctx context.Context) ([]models.Goal, error) {
	raw, err := s.store.Get(ctx, interfaces.KeyGoals)
	if err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			return []models.Goal{}, nil
		}
		return nil, fmt.Errorf("failed to read goals: %w", err)
	}

	var goals []models.Goal
	if err := json.Unmarshal([]byte(raw), &goals); err != nil {
		return nil, fmt.Errorf("failed to parse goals: %w", err)
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	return goals, nil
}

// Add creates a goal with a fresh id and creation timestamp.
func (s *Service) Add(ctx context.Context, title string, targetAmount, currentAmount float64) (*models.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if targetAmount < 0 {
		return nil, fmt.Errorf("%w: target amount must not be negative", ErrValidation)
	}
	if currentAmount < 0 {
		return nil, fmt.Errorf("%w: current amount must not be negative", ErrValidation)
	}

	goals, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	goal := models.Goal{
		ID:            models.NewID(now),
		Title:         title,
		TargetAmount:  targetAmount,
		CurrentAmount: currentAmount,
		CreatedAt:     now,
	}
	goals = append(goals, goal)

	if err := s.save(ctx, goals); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", goal.ID).Str("title", goal.Title).
		Float64("target", goal.TargetAmount).Msg("Goal added")
	return &goal, nil
}

// Update patches the provided fields of a goal. Nil fields are untouched.
func (s *Service) Update(ctx context.Context, id string, title *string, targetAmount, currentAmount *float64) (*models.Goal, error) {
	if title != nil && strings.TrimSpace(*title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if targetAmount != nil && *targetAmount < 0 {
		return nil, fmt.Errorf("%w: target amount must not be negative", ErrValidation)
	}
	if currentAmount != nil && *currentAmount < 0 {
		return nil, fmt.Errorf("%w: current amount must not be negative", ErrValidation)
	}

	goals, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range goals {
		if goals[i].ID != id {
			continue
		}
		if title != nil {
			goals[i].Title = strings.TrimSpace(*title)
		}
		if targetAmount != nil {
			goals[i].TargetAmount = *targetAmount
		}
		if currentAmount != nil {
			goals[i].CurrentAmount = *currentAmount
		}
		if err := s.save(ctx, goals); err != nil {
			return nil, err
		}
		updated := goals[i]
		return &updated, nil
	}

	return nil, fmt.Errorf("%w: '%s'", ErrNotFound, id)
}

// Delete removes a goal. Unknown ids are a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	goals, err := s.List(ctx)
	if err != nil {
		return err
	}

	kept := goals[:0]
	for _, g := range goals {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(goals) {
		return nil
	}

	if err := s.save(ctx, kept); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Msg("Goal deleted")
	return nil
}

func (s *Service) save(ctx context.Context, goals []models.Goal) error {
	data, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("failed to marshal goals: %w", err)
	}
	if err := s.store.Set(ctx, interfaces.KeyGoals, string(data)); err != nil {
		return fmt.Errorf("failed to persist goals: %w", err)
	}
	return nil
}
