// Package audit applies auditor decisions to submitted work. Task rows hold
// the current state; every decision also writes one append-only
// AuditDecision row. Auditors can never decide their own submissions.
package audit

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/data"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/linkedin"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/screenshot"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DecisionRequest struct {
	TaskID   string
	Track    string // RESEARCH | INQUIRY | LINKEDIN
	ActionID string // optional; defaults to the task's latest action
	Decision string // APPROVED | REJECTED | FLAGGED
	Reason   string
}

type Processor struct {
	db          *gorm.DB
	rdb         *redis.Client
	screenshots *screenshot.Service
}

func NewProcessor(db *gorm.DB, rdb *redis.Client, shots *screenshot.Service) *Processor {
	return &Processor{db: db, rdb: rdb, screenshots: shots}
}

func validDecision(d string) bool {
	return d == types.DecisionApproved || d == types.DecisionRejected || d == types.DecisionFlagged
}

// Decide validates and applies one audit decision.
func (p *Processor) Decide(ctx context.Context, req DecisionRequest, auditorID string) (types.AuditDecision, error) {
	if !validDecision(req.Decision) {
		return types.AuditDecision{}, types.Validation("unknown decision %q", req.Decision)
	}

	var row types.AuditDecision
	var err error
	switch req.Track {
	case types.TrackResearch:
		row, err = p.decideResearch(ctx, req, auditorID)
	case types.TrackInquiry, types.TrackLinkedIn:
		row, err = p.decideInquiry(ctx, req, auditorID)
	default:
		return types.AuditDecision{}, types.Validation("unknown track %q", req.Track)
	}
	if err != nil {
		return types.AuditDecision{}, err
	}

	log.Printf("audit decision task=%s track=%s decision=%s auditor=%s",
		req.TaskID, req.Track, req.Decision, auditorID)
	_ = data.PublishEvent(ctx, p.rdb, map[string]interface{}{
		"event":    "audit.decided",
		"taskId":   req.TaskID,
		"track":    req.Track,
		"decision": req.Decision,
		"userId":   auditorID,
	})
	return row, nil
}

func (p *Processor) decideResearch(ctx context.Context, req DecisionRequest, auditorID string) (types.AuditDecision, error) {
	var row types.AuditDecision
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task types.ResearchTask
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", req.TaskID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFound("research task %s", req.TaskID)
		}
		if err != nil {
			return err
		}
		if task.Status != types.ResearchSubmitted {
			return types.InvalidState("task %s is %s, not auditable", task.ID, task.Status)
		}
		if task.AssigneeID != nil && *task.AssigneeID == auditorID {
			return types.Forbidden("cannot audit your own submission")
		}

		switch req.Decision {
		case types.DecisionApproved:
			task.Status = types.ResearchCompleted
		case types.DecisionRejected:
			task.Status = types.ResearchRejected
			if err := writeFlag(tx, task.AssigneeID, task.TargetID, task.ID, req.Reason); err != nil {
				return err
			}
		case types.DecisionFlagged:
			// flagged research goes back to the worker for rework
			task.Status = types.ResearchInProgress
		}
		task.UpdatedAt = time.Now()
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		row = newDecisionRow(req, types.TrackResearch, nil, auditorID)
		return tx.Create(&row).Error
	})
	return row, err
}

func (p *Processor) decideInquiry(ctx context.Context, req DecisionRequest, auditorID string) (types.AuditDecision, error) {
	var row types.AuditDecision
	var evidencePath string
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task types.InquiryTask
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", req.TaskID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFound("inquiry task %s", req.TaskID)
		}
		if err != nil {
			return err
		}
		if task.Status != types.InquiryCompleted {
			return types.InvalidState("task %s is %s, not auditable", task.ID, task.Status)
		}
		if task.AssigneeID != nil && *task.AssigneeID == auditorID {
			return types.Forbidden("cannot audit your own submission")
		}

		var actions []types.InquiryAction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("task_id = ?", task.ID).Find(&actions).Error; err != nil {
			return err
		}
		action, err := pickAction(actions, req.ActionID)
		if err != nil {
			return err
		}
		if action.Status != types.ActionSubmitted {
			return types.InvalidState("action %s is %s, not auditable", action.ID, action.Status)
		}

		var snap types.InquirySnapshot
		err = tx.Where("action_id = ?", action.ID).Order("created_at desc").First(&snap).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NotFound("no snapshot for action %s", action.ID)
		}
		if err != nil {
			return err
		}

		switch req.Decision {
		case types.DecisionApproved:
			if snap.IsDuplicate {
				return types.InvalidState("snapshot is a duplicate screenshot; reject with a duplicate reason instead")
			}
			action.Status = types.ActionApproved
			evidencePath = snap.ScreenshotPath
		case types.DecisionRejected:
			action.Status = types.ActionRejected
			evidencePath = snap.ScreenshotPath
			if err := writeFlag(tx, task.AssigneeID, task.TargetID, task.ID, req.Reason); err != nil {
				return err
			}
		case types.DecisionFlagged:
			task.Status = types.InquiryFlagged
		}

		if req.Decision != types.DecisionFlagged {
			// action points into actions, so the rollup sees the new status
			if err := tx.Save(action).Error; err != nil {
				return err
			}
			task.Status = linkedin.DeriveTaskStatus(actions)
		}
		task.UpdatedAt = time.Now()
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		row = newDecisionRow(req, req.Track, &action.ID, auditorID)
		return tx.Create(&row).Error
	})
	if err != nil {
		return types.AuditDecision{}, err
	}

	// resolved evidence is deleted; the hash row survives so the same image
	// can never be submitted again
	if evidencePath != "" {
		if err := p.screenshots.RemoveEvidence(evidencePath); err != nil {
			log.Printf("evidence cleanup failed path=%s: %v", evidencePath, err)
		}
	}
	return row, nil
}

// pickAction selects the addressed action, or the latest submitted one.
func pickAction(actions []types.InquiryAction, actionID string) (*types.InquiryAction, error) {
	if actionID != "" {
		for i := range actions {
			if actions[i].ID == actionID {
				return &actions[i], nil
			}
		}
		return nil, types.NotFound("action %s", actionID)
	}
	var latest *types.InquiryAction
	for i := range actions {
		if actions[i].Status != types.ActionSubmitted {
			continue
		}
		if latest == nil || actions[i].CreatedAt.After(latest.CreatedAt) {
			latest = &actions[i]
		}
	}
	if latest == nil {
		return nil, types.NotFound("no submitted action to audit")
	}
	return latest, nil
}

func newDecisionRow(req DecisionRequest, track string, actionID *string, auditorID string) types.AuditDecision {
	return types.AuditDecision{
		ID:        uuid.NewString(),
		TaskID:    req.TaskID,
		Track:     track,
		ActionID:  actionID,
		AuditorID: auditorID,
		Decision:  req.Decision,
		Reason:    req.Reason,
		CreatedAt: time.Now(),
	}
}

func writeFlag(tx *gorm.DB, assigneeID *string, targetID, taskID, reason string) error {
	uid := ""
	if assigneeID != nil {
		uid = *assigneeID
	}
	return tx.Create(&types.FlaggedAction{
		ID:        uuid.NewString(),
		UserID:    uid,
		TargetID:  targetID,
		TaskID:    taskID,
		Reason:    reason,
		CreatedAt: time.Now(),
	}).Error
}
