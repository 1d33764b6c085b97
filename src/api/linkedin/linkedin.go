// Package linkedin runs the three-step LinkedIn inquiry sequence:
// OUTREACH, then ASK_FOR_EMAIL, then SEND_CATALOGUE. All three actions are
// created at claim time and must be completed strictly in order.
package linkedin

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/data"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/inquiry"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/limits"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/screenshot"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Steps in required order.
var Steps = []string{types.StepOutreach, types.StepAskForEmail, types.StepSendCatalogue}

type SubmitRequest struct {
	Message    string
	Screenshot []byte
}

type Service struct {
	db          *gorm.DB
	rdb         *redis.Client
	screenshots *screenshot.Service
	limits      *limits.Validator
	sanitizer   *bluemonday.Policy
}

func NewService(db *gorm.DB, rdb *redis.Client, shots *screenshot.Service) *Service {
	return &Service{
		db:          db,
		rdb:         rdb,
		screenshots: shots,
		limits:      limits.NewValidator(),
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// MissingPrior returns the earliest prior step still PENDING for the given
// step, or "" when the step may proceed. Unknown steps never proceed.
func MissingPrior(step string, statusByStep map[string]string) (string, error) {
	idx := -1
	for i, s := range Steps {
		if s == step {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", types.Validation("unknown step %q", step)
	}
	for _, prior := range Steps[:idx] {
		if statusByStep[prior] == types.ActionPending || statusByStep[prior] == "" {
			return prior, nil
		}
	}
	return "", nil
}

// DeriveTaskStatus rolls action statuses up to the task: all approved wins,
// any rejection loses, all merely non-pending means ready for audit.
func DeriveTaskStatus(actions []types.InquiryAction) string {
	approved := 0
	pending := 0
	for _, a := range actions {
		switch a.Status {
		case types.ActionRejected:
			return types.InquiryRejected
		case types.ActionApproved:
			approved++
		case types.ActionPending:
			pending++
		}
	}
	if approved == len(actions) && len(actions) > 0 {
		return types.InquiryApproved
	}
	if pending == 0 {
		return types.InquiryCompleted
	}
	return types.InquiryInProgress
}

// Claim assigns the task and lays out the three pending step actions.
// Re-claiming by the holder is a no-op.
func (s *Service) Claim(ctx context.Context, taskID, userID string) (types.InquiryTask, error) {
	var task types.InquiryTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", taskID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFound("linkedin task %s", taskID)
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
		if err := tx.Save(&task).Error; err != nil {
			return err
		}
		for _, step := range Steps {
			a := types.InquiryAction{
				ID:        uuid.NewString(),
				TaskID:    task.ID,
				StepType:  step,
				Status:    types.ActionPending,
				CreatedAt: time.Now(),
			}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.InquiryTask{}, err
	}
	return task, nil
}

// backingSubmission finds the latest research submission for the task's
// target and category; the sequence cannot run without that context.
func backingSubmission(tx *gorm.DB, task types.InquiryTask) (types.ResearchSubmission, error) {
	var rt types.ResearchTask
	err := tx.Where("target_id = ? AND category_id = ?", task.TargetID, task.CategoryID).
		Order("created_at desc").First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ResearchSubmission{}, types.NotFound("no research backing task %s", task.ID)
	}
	if err != nil {
		return types.ResearchSubmission{}, err
	}
	var sub types.ResearchSubmission
	err = tx.Where("task_id = ?", rt.ID).Order("created_at desc").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ResearchSubmission{}, types.NotFound("no research submission backing task %s", task.ID)
	}
	return sub, err
}

// SubmitAction performs one step of the sequence. Ordering is checked
// against persisted action statuses inside the same locked transaction that
// writes the new status, so concurrent out-of-order submissions cannot both
// pass.
func (s *Service) SubmitAction(ctx context.Context, taskID, step string, req SubmitRequest, userID, role string) (types.InquiryAction, error) {
	if req.Message == "" {
		return types.InquiryAction{}, types.Validation("message is required for %s", step)
	}

	var action types.InquiryAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task types.InquiryTask
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", taskID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFound("linkedin task %s", taskID)
		}
		if err != nil {
			return err
		}
		if task.AssigneeID == nil || *task.AssigneeID != userID {
			return types.Forbidden("task %s is not assigned to you", taskID)
		}

		sub, err := backingSubmission(tx, task)
		if err != nil {
			return err
		}

		targetKey, err := inquiry.TargetKey(tx, task.TargetKind, task.TargetID)
		if err != nil {
			return err
		}
		if err := s.limits.ValidateSubmission(tx, userID, task.CategoryID, role, types.ActionTypeLinkedInInquiry, targetKey); err != nil {
			return err
		}

		var actions []types.InquiryAction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("task_id = ?", task.ID).Find(&actions).Error; err != nil {
			return err
		}
		statusByStep := make(map[string]string, len(actions))
		for _, a := range actions {
			statusByStep[a.StepType] = a.Status
			if a.StepType == step {
				action = a
			}
		}
		if action.ID == "" {
			return types.NotFound("step %s not found on task %s", step, taskID)
		}
		if action.Status != types.ActionPending {
			return types.InvalidState("step %s already %s", step, action.Status)
		}
		missing, err := MissingPrior(step, statusByStep)
		if err != nil {
			return err
		}
		if missing != "" {
			f := types.InvalidState("step %s requires %s to be completed first", step, missing)
			f.MissingStep = missing
			return f
		}

		shot, err := s.screenshots.Process(tx, req.Screenshot, userID, screenshot.Permissive)
		if err != nil {
			return err
		}

		now := time.Now()
		snap := types.InquirySnapshot{
			ID:             uuid.NewString(),
			ActionID:       action.ID,
			TaskID:         task.ID,
			SubmitterID:    userID,
			ScreenshotPath: shot.Path,
			ScreenshotHash: shot.Hash,
			IsDuplicate:    shot.IsDuplicate,
			ContactName:    sub.ContactName,
			ContactURL:     sub.ContactURL,
			Country:        sub.Country,
			Language:       sub.Language,
			Message:        s.sanitizer.Sanitize(req.Message),
			CreatedAt:      now,
		}
		if err := tx.Create(&snap).Error; err != nil {
			return err
		}

		action.Status = types.ActionSubmitted
		action.PerformerID = userID
		action.SubmittedAt = &now
		if err := tx.Save(&action).Error; err != nil {
			return err
		}

		statusByStep[step] = types.ActionSubmitted
		done := true
		for _, st := range Steps {
			if statusByStep[st] == types.ActionPending || statusByStep[st] == "" {
				done = false
				break
			}
		}
		if done {
			task.Status = types.InquiryCompleted
			task.UpdatedAt = now
			if err := tx.Save(&task).Error; err != nil {
				return err
			}
		}

		return s.limits.RecordContact(tx, targetKey, task.CategoryID, userID, types.TrackLinkedIn)
	})
	if err != nil {
		return types.InquiryAction{}, err
	}

	log.Printf("linkedin step submitted task=%s step=%s user=%s", taskID, step, userID)
	_ = data.PublishEvent(ctx, s.rdb, map[string]interface{}{
		"event":  "linkedin.step_submitted",
		"taskId": taskID,
		"step":   step,
		"userId": userID,
	})
	return action, nil
}
