package app

import (
	"context"
	"fmt"

	"team_challenge_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the schedule registry
var ErrInvalidNotifyTime = fmt.Errorf("notify time must be in HH:MM format")
var ErrInvalidRecurrence = fmt.Errorf("a non-daily schedule requires a day of week between 0 and 6")

// ScheduleService is the registry for recurring schedule definitions: CRUD
// plus ordered paged listing. It carries no delivery logic.
type ScheduleService struct {
	repo   schedule.Repository
	logger *logrus.Entry
}

func NewScheduleService(repo schedule.Repository, logger *logrus.Entry) *ScheduleService {
	return &ScheduleService{repo: repo, logger: logger}
}

func (s *ScheduleService) Create(ctx context.Context, def *schedule.Definition) error {
	if err := validateDefinition(def); err != nil {
		return err
	}
	if def.Status == "" {
		def.Status = schedule.StatusDraft
	}
	if err := s.repo.Create(ctx, def); err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"schedule_id": def.ID, "org_id": def.OrgID}).Info("Schedule definition created")
	return nil
}

func (s *ScheduleService) Get(ctx context.Context, id int64) (*schedule.Definition, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ScheduleService) Update(ctx context.Context, def *schedule.Definition) error {
	if err := validateDefinition(def); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, def); err != nil {
		return fmt.Errorf("failed to update schedule %d: %w", def.ID, err)
	}
	s.logger.WithField("schedule_id", def.ID).Info("Schedule definition updated")
	return nil
}

func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete schedule %d: %w", id, err)
	}
	s.logger.WithField("schedule_id", id).Info("Schedule definition deleted")
	return nil
}

// ListPage returns one page of an organization's schedules ordered by display
// order, then local notify time. The requested page is clamped to the valid
// range; an organization with no schedules yields (nil, 1, 0).
func (s *ScheduleService) ListPage(ctx context.Context, orgID int64, page, pageSize int) ([]*schedule.Definition, int, int, error) {
	if pageSize < 1 {
		pageSize = 10
	}
	total, err := s.repo.CountByOrg(ctx, orgID)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to count schedules for org %d: %w", orgID, err)
	}
	if total == 0 {
		return nil, 1, 0, nil
	}

	totalPages := (total + pageSize - 1) / pageSize
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	items, err := s.repo.ListPage(ctx, orgID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to list schedules for org %d: %w", orgID, err)
	}
	return items, page, totalPages, nil
}

func validateDefinition(def *schedule.Definition) error {
	if _, _, err := def.ClockTime(); err != nil {
		return ErrInvalidNotifyTime
	}
	if !def.IsDaily {
		if !def.DayOfWeek.Valid || def.DayOfWeek.Int16 < 0 || def.DayOfWeek.Int16 > 6 {
			return ErrInvalidRecurrence
		}
	}
	return nil
}
