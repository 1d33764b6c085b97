// Package inquiry runs the single-action website inquiry lifecycle. One
// contact action per task; evidence is mandatory and strictly deduplicated.
package inquiry

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/cooldown"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/data"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/limits"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/screenshot"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmitRequest struct {
	Message    string
	Screenshot []byte
}

type Service struct {
	db          *gorm.DB
	rdb         *redis.Client
	screenshots *screenshot.Service
	cooldowns   *cooldown.Enforcer
	limits      *limits.Validator
	sanitizer   *bluemonday.Policy
}

func NewService(db *gorm.DB, rdb *redis.Client, shots *screenshot.Service) *Service {
	return &Service{
		db:          db,
		rdb:         rdb,
		screenshots: shots,
		cooldowns:   cooldown.NewEnforcer(),
		limits:      limits.NewValidator(),
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// TargetKey resolves the normalized contact identity of a task's target.
func TargetKey(tx *gorm.DB, targetKind, targetID string) (string, error) {
	switch targetKind {
	case types.TargetCompany:
		var c types.Company
		if err := tx.First(&c, "id = ?", targetID).Error; err != nil {
			return "", err
		}
		return c.Domain, nil
	case types.TargetLinkedInProfile:
		var p types.LinkedInProfile
		if err := tx.First(&p, "id = ?", targetID).Error; err != nil {
			return "", err
		}
		return p.URL, nil
	}
	return "", types.Validation("unknown target kind %q", targetKind)
}

// Claim assigns a PENDING inquiry task to the caller, idempotently for the
// current holder.
func (s *Service) Claim(ctx context.Context, taskID, userID string) (types.InquiryTask, error) {
	var task types.InquiryTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", taskID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFound("inquiry task %s", taskID)
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
		if task.Status != types.InquiryPending {
			return types.InvalidState("task %s is %s, not claimable", taskID, task.Status)
		}
		task.AssigneeID = &userID
		task.Status = types.InquiryInProgress
		task.UpdatedAt = time.Now()
		return tx.Save(&task).Error
	})
	if err != nil {
		return types.InquiryTask{}, err
	}
	return task, nil
}

// Submit records the task's single contact action: quota and cooldown checks
// first, then strict screenshot dedup, then the immutable snapshot. Throttle
// counters are only consumed once everything else has passed.
func (s *Service) Submit(ctx context.Context, taskID string, req SubmitRequest, userID, role string) (types.InquiryAction, error) {
	if req.Message == "" {
		return types.InquiryAction{}, types.Validation("message is required")
	}

	var action types.InquiryAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task types.InquiryTask
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", taskID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFound("inquiry task %s", taskID)
		}
		if err != nil {
			return err
		}
		if task.AssigneeID == nil || *task.AssigneeID != userID {
			return types.Forbidden("task %s is not assigned to you", taskID)
		}
		if task.Status != types.InquiryInProgress {
			return types.InvalidState("task %s is %s, expected %s", taskID, task.Status, types.InquiryInProgress)
		}

		targetKey, err := TargetKey(tx, task.TargetKind, task.TargetID)
		if err != nil {
			return err
		}
		if err := s.limits.ValidateSubmission(tx, userID, task.CategoryID, role, types.ActionTypeWebsiteInquiry, targetKey); err != nil {
			return err
		}
		if err := s.cooldowns.Enforce(tx, userID, task.TargetID, task.CategoryID, types.ActionTypeWebsiteInquiry); err != nil {
			return err
		}

		shot, err := s.screenshots.Process(tx, req.Screenshot, userID, screenshot.Strict)
		if err != nil {
			return err
		}

		var ordinal int64
		if err := tx.Model(&types.InquiryAction{}).Where("task_id = ?", task.ID).Count(&ordinal).Error; err != nil {
			return err
		}
		now := time.Now()
		action = types.InquiryAction{
			ID:          uuid.NewString(),
			TaskID:      task.ID,
			Ordinal:     int(ordinal),
			PerformerID: userID,
			Status:      types.ActionSubmitted,
			SubmittedAt: &now,
			CreatedAt:   now,
		}
		if err := tx.Create(&action).Error; err != nil {
			return err
		}

		snap := types.InquirySnapshot{
			ID:             uuid.NewString(),
			ActionID:       action.ID,
			TaskID:         task.ID,
			SubmitterID:    userID,
			ScreenshotPath: shot.Path,
			ScreenshotHash: shot.Hash,
			IsDuplicate:    shot.IsDuplicate,
			Message:        s.sanitizer.Sanitize(req.Message),
			CreatedAt:      now,
		}
		if err := tx.Create(&snap).Error; err != nil {
			return err
		}

		task.Status = types.InquiryCompleted
		task.UpdatedAt = now
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		if err := s.cooldowns.Record(tx, userID, task.TargetID, task.CategoryID, types.ActionTypeWebsiteInquiry); err != nil {
			return err
		}
		return s.limits.RecordContact(tx, targetKey, task.CategoryID, userID, types.TrackInquiry)
	})
	if err != nil {
		return types.InquiryAction{}, err
	}

	log.Printf("inquiry submitted task=%s action=%s user=%s", taskID, action.ID, userID)
	_ = data.PublishEvent(ctx, s.rdb, map[string]interface{}{
		"event":  "inquiry.submitted",
		"taskId": taskID,
		"userId": userID,
	})
	return action, nil
}
