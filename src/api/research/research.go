// Package research runs the single-phase research task lifecycle:
// create PENDING, claim to IN_PROGRESS, submit to SUBMITTED, then audit.
package research

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/data"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/identity"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateRequest struct {
	TargetKind string
	RawTarget  string
	CategoryID string
}

type SubmitRequest struct {
	Language     string
	ContactName  string
	ContactEmail string
	ContactURL   string
	Country      string
	Notes        string
}

type Service struct {
	db        *gorm.DB
	rdb       *redis.Client
	sanitizer *bluemonday.Policy
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb, sanitizer: bluemonday.StrictPolicy()}
}

// ValidateSubmit checks the research payload before anything is persisted.
func ValidateSubmit(req SubmitRequest) error {
	if req.Language == "" {
		return types.Validation("language is required")
	}
	if req.ContactName == "" && req.ContactEmail == "" && req.ContactURL == "" {
		return types.Validation("at least one contact field is required")
	}
	return nil
}

// blocksCreation reports whether an existing task status forbids a new task
// for the same (target, category): any non-terminal task, or a completed one.
func blocksCreation(status string) bool {
	switch status {
	case types.ResearchPending, types.ResearchInProgress, types.ResearchSubmitted, types.ResearchCompleted:
		return true
	}
	return false
}

// Create resolves the target by normalized identity and opens a PENDING task
// unless one already blocks the (target, category) pair.
func (s *Service) Create(ctx context.Context, req CreateRequest, userID string) (types.ResearchTask, error) {
	var task types.ResearchTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		targetID, _, err := identity.Resolve(tx, req.TargetKind, req.RawTarget)
		if err != nil {
			return err
		}

		var existing []types.ResearchTask
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("target_id = ? AND category_id = ?", targetID, req.CategoryID).
			Find(&existing).Error; err != nil {
			return err
		}
		for _, e := range existing {
			if blocksCreation(e.Status) {
				return types.Conflict("task %s already covers this target in status %s", e.ID, e.Status)
			}
		}

		task = types.ResearchTask{
			ID:         uuid.NewString(),
			TargetID:   targetID,
			TargetKind: req.TargetKind,
			CategoryID: req.CategoryID,
			Status:     types.ResearchPending,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		return tx.Create(&task).Error
	})
	if err != nil {
		return types.ResearchTask{}, err
	}
	log.Printf("research task created id=%s target=%s user=%s", task.ID, task.TargetID, userID)
	return task, nil
}

// Claim assigns a PENDING task to the caller. Claiming a task already held
// by the same user succeeds untouched; held by anyone else is a conflict.
func (s *Service) Claim(ctx context.Context, taskID, userID string) (types.ResearchTask, error) {
	var task types.ResearchTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", taskID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFound("research task %s", taskID)
		}
		if err != nil {
			return err
		}
		if task.AssigneeID != nil {
			if *task.AssigneeID == userID {
				return nil
			}
			return types.Conflict("task %s already claimed", taskID)
		}
		if task.Status != types.ResearchPending {
			return types.InvalidState("task %s is %s, not claimable", taskID, task.Status)
		}
		task.AssigneeID = &userID
		task.Status = types.ResearchInProgress
		task.UpdatedAt = time.Now()
		return tx.Save(&task).Error
	})
	if err != nil {
		return types.ResearchTask{}, err
	}
	return task, nil
}

// Submit writes the immutable research payload and moves the task to
// SUBMITTED for audit.
func (s *Service) Submit(ctx context.Context, taskID string, req SubmitRequest, userID string) (types.ResearchSubmission, error) {
	if err := ValidateSubmit(req); err != nil {
		return types.ResearchSubmission{}, err
	}

	var sub types.ResearchSubmission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task types.ResearchTask
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", taskID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFound("research task %s", taskID)
		}
		if err != nil {
			return err
		}
		if task.AssigneeID == nil || *task.AssigneeID != userID {
			return types.Forbidden("task %s is not assigned to you", taskID)
		}
		if task.Status != types.ResearchInProgress {
			return types.InvalidState("task %s is %s, expected %s", taskID, task.Status, types.ResearchInProgress)
		}

		sub = types.ResearchSubmission{
			ID:           uuid.NewString(),
			TaskID:       task.ID,
			SubmitterID:  userID,
			Language:     req.Language,
			ContactName:  s.sanitizer.Sanitize(req.ContactName),
			ContactEmail: s.sanitizer.Sanitize(req.ContactEmail),
			ContactURL:   s.sanitizer.Sanitize(req.ContactURL),
			Country:      s.sanitizer.Sanitize(req.Country),
			Notes:        s.sanitizer.Sanitize(req.Notes),
			CreatedAt:    time.Now(),
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		task.Status = types.ResearchSubmitted
		task.UpdatedAt = time.Now()
		return tx.Save(&task).Error
	})
	if err != nil {
		return types.ResearchSubmission{}, err
	}

	_ = data.PublishEvent(ctx, s.rdb, map[string]interface{}{
		"event":  "research.submitted",
		"taskId": taskID,
		"userId": userID,
	})
	return sub, nil
}
