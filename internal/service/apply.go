package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

// TriggerApply schedules a debounced apply. Multiple triggers within the
// debounce period result in a single apply.
func (s *GroupService) TriggerApply() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if !s.autoApply || s.applier == nil {
		return
	}
	if s.applyTimer != nil {
		s.applyTimer.Stop()
	}
	s.applyTimer = time.AfterFunc(s.debounce, func() {
		s.timerMu.Lock()
		s.applyTimer = nil
		s.timerMu.Unlock()

		if _, err := s.Apply(context.Background(), s.includeBundled); err != nil {
			s.logger.Error("auto-apply failed", zap.Error(err))
		}
	})
}

// LastApply returns the most recent apply result, or nil.
func (s *GroupService) LastApply() *domain.ApplyResult {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	return s.lastApply
}

// Apply pushes the resolved package states to the registry: packages the
// registry has disabled but the store wants on are enabled, and the reverse.
// Per-package failures are reported in the result rather than as an error.
func (s *GroupService) Apply(ctx context.Context, includeBundled bool) (*domain.ApplyResult, error) {
	if s.applier == nil {
		return nil, fmt.Errorf("%w: the registry does not accept changes", domain.ErrInvalidArgument)
	}

	// Cancel any pending debounced apply
	s.timerMu.Lock()
	if s.applyTimer != nil {
		s.applyTimer.Stop()
		s.applyTimer = nil
	}
	s.timerMu.Unlock()

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	started := time.Now().UTC()
	diff, err := s.Differences(includeBundled)
	if err != nil {
		return nil, err
	}

	s.applies++
	result := &domain.ApplyResult{
		ID:        uuid.New().String(),
		Number:    s.applies,
		Enabled:   []string{},
		Disabled:  []string{},
		Missing:   diff.Missing.Sorted(),
		StartedAt: started,
	}

	attempted := 0
	run := func(action string, ids []string, call func(context.Context, string) error, done *[]string) {
		for _, id := range ids {
			attempted++
			err := ctx.Err()
			if err == nil {
				err = call(ctx, id)
			}
			s.metrics.ApplyActions.WithLabelValues(action).Inc()
			if err != nil {
				s.metrics.ApplyFailures.Inc()
				s.logger.Warn("registry call failed",
					zap.String("action", action),
					zap.String("package", id),
					zap.Error(err))
				result.Failures = append(result.Failures, domain.ApplyFailure{
					Package: id,
					Action:  action,
					Error:   err.Error(),
				})
				continue
			}
			*done = append(*done, id)
		}
	}
	run("enable", diff.Disabled.Sorted(), s.applier.Enable, &result.Enabled)
	run("disable", diff.Enabled.Sorted(), s.applier.Disable, &result.Disabled)

	switch {
	case len(result.Failures) == 0:
		result.Status = domain.ApplyStatusSuccess
	case len(result.Failures) < attempted:
		result.Status = domain.ApplyStatusPartial
	default:
		result.Status = domain.ApplyStatusFailed
	}
	result.FinishedAt = time.Now().UTC()
	s.lastApply = result

	s.logger.Info("applied package states",
		zap.String("id", result.ID),
		zap.String("status", result.Status),
		zap.Int("enabled", len(result.Enabled)),
		zap.Int("disabled", len(result.Disabled)),
		zap.Int("missing", len(result.Missing)),
		zap.Int("failures", len(result.Failures)))

	return result, nil
}
