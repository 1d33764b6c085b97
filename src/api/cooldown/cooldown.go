// Package cooldown implements the counted-threshold cooldown: a worker may
// perform N actions against a target, after which a fixed window must fully
// elapse before the counter resets. Not a sliding window.
package cooldown

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Enforcer struct{}

func NewEnforcer() *Enforcer { return &Enforcer{} }

// decision is the outcome of the pure cooldown check.
type decision int

const (
	allow decision = iota
	allowAfterReset
	reject
)

// evaluate applies the check order from the throttle contract: missing
// config, missing history, unmet threshold and unstarted window all allow.
func evaluate(rule *types.CooldownRule, rec *types.CooldownRecord, now time.Time) (decision, time.Duration) {
	if rule == nil || rec == nil {
		return allow, 0
	}
	if rec.ActionCount < rule.ActionsRequired {
		return allow, 0
	}
	if rec.CooldownStartedAt == nil {
		return allow, 0
	}
	duration := time.Duration(rule.CooldownMinutes) * time.Minute
	elapsed := now.Sub(*rec.CooldownStartedAt)
	if elapsed >= duration {
		return allowAfterReset, 0
	}
	return reject, duration - elapsed
}

// remainingMinutes rounds a remaining wait up to whole minutes.
func remainingMinutes(d time.Duration) int {
	m := int(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}

func findRule(tx *gorm.DB, categoryID, actionType string) (*types.CooldownRule, error) {
	var rule types.CooldownRule
	err := tx.Where("category_id = ? AND action_type = ? AND active = ?", categoryID, actionType, true).
		Order("created_at desc").First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// Enforce must run before accepting a contact action. Absence of a rule or
// of history allows; an expired window resets the record and allows; an
// active window rejects with the remaining wait in whole minutes.
func (e *Enforcer) Enforce(tx *gorm.DB, userID, targetID, categoryID, actionType string) error {
	rule, err := findRule(tx, categoryID, actionType)
	if err != nil {
		return err
	}
	if rule == nil {
		return nil
	}

	var rec types.CooldownRecord
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND target_id = ? AND category_id = ? AND action_type = ?",
			userID, targetID, categoryID, actionType).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	switch d, remaining := evaluate(rule, &rec, time.Now()); d {
	case allowAfterReset:
		rec.ActionCount = 0
		rec.CooldownStartedAt = nil
		return tx.Save(&rec).Error
	case reject:
		f := types.RateLimited("cooldown active for target %s", targetID)
		f.RetryMinutes = remainingMinutes(remaining)
		return f
	default:
		return nil
	}
}

// Record must run after a successful action. It increments the counter under
// a row lock and stamps the window start the moment the threshold is reached.
func (e *Enforcer) Record(tx *gorm.DB, userID, targetID, categoryID, actionType string) error {
	rule, err := findRule(tx, categoryID, actionType)
	if err != nil {
		return err
	}
	if rule == nil {
		return nil
	}

	var rec types.CooldownRecord
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND target_id = ? AND category_id = ? AND action_type = ?",
			userID, targetID, categoryID, actionType).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec = types.CooldownRecord{
			ID:         uuid.NewString(),
			UserID:     userID,
			TargetID:   targetID,
			CategoryID: categoryID,
			ActionType: actionType,
			CreatedAt:  time.Now(),
		}
	} else if err != nil {
		return err
	}

	rec.ActionCount++
	if rec.ActionCount >= rule.ActionsRequired && rec.CooldownStartedAt == nil {
		now := time.Now()
		rec.CooldownStartedAt = &now
	}
	return tx.Save(&rec).Error
}
