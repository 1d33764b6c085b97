// Package limits enforces per-worker daily quotas and the per-target
// last-contact throttle, both driven by CategoryRule rows. This throttle is
// independent of the counted cooldown in package cooldown; the two are
// configured by different admin surfaces and both apply.
package limits

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Role buckets used when no rule matches the caller's exact role name.
const (
	BucketResearcher = "Researcher"
	BucketInquirer   = "Inquirer"
	BucketAuditor    = "Auditor"
)

// roleBuckets maps known role names to their fallback bucket. An explicit
// table, so a new role name is a visible gap here rather than a silent
// substring misclassification.
var roleBuckets = map[string]string{
	"researcher":        BucketResearcher,
	"senior researcher": BucketResearcher,
	"inquirer":          BucketInquirer,
	"website inquirer":  BucketInquirer,
	"linkedin inquirer": BucketInquirer,
	"auditor":           BucketAuditor,
	"research auditor":  BucketAuditor,
	"inquiry auditor":   BucketAuditor,
}

// Bucket returns the fallback bucket for a role name, or "" when unknown.
func Bucket(role string) string {
	return roleBuckets[strings.ToLower(strings.TrimSpace(role))]
}

type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// ResolveRule finds the applicable active rule: exact role first, then the
// role's fallback bucket. Highest priority wins; creation recency breaks
// ties. nil means no configuration, which allows unconditionally.
func ResolveRule(tx *gorm.DB, categoryID, actionType, role string) (*types.CategoryRule, error) {
	for _, r := range []string{role, Bucket(role)} {
		if r == "" {
			continue
		}
		var rule types.CategoryRule
		err := tx.Where("category_id = ? AND action_type = ? AND role = ? AND active = ?",
			categoryID, actionType, r, true).
			Order("priority desc, created_at desc").
			First(&rule).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &rule, nil
	}
	return nil, nil
}

// dayBounds returns the local calendar day containing now.
func dayBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.Add(24 * time.Hour)
}

// remainingDays rounds the remaining cooldown up to whole days.
func remainingDays(elapsed time.Duration, cooldownDays int) int {
	remaining := time.Duration(cooldownDays)*24*time.Hour - elapsed
	d := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		d++
	}
	return d
}

// dailyCount sums today's submissions by this user in this category for the
// given action type. Research lives in research_submissions; both inquiry
// families live in inquiry_actions and are counted per family and summed.
func dailyCount(tx *gorm.DB, userID, categoryID, actionType string, now time.Time) (int64, error) {
	start, end := dayBounds(now)
	var n int64
	switch actionType {
	case types.ActionTypeResearch:
		err := tx.Raw(`SELECT COUNT(*) FROM research_submissions s
			JOIN research_tasks t ON t.id = s.task_id
			WHERE s.submitter_id = ? AND t.category_id = ? AND s.created_at >= ? AND s.created_at < ?`,
			userID, categoryID, start, end).Scan(&n).Error
		return n, err
	case types.ActionTypeWebsiteInquiry:
		err := tx.Raw(`SELECT COUNT(*) FROM inquiry_actions a
			JOIN inquiry_tasks t ON t.id = a.task_id
			WHERE a.performer_id = ? AND t.category_id = ? AND a.step_type = ''
			AND a.submitted_at >= ? AND a.submitted_at < ?`,
			userID, categoryID, start, end).Scan(&n).Error
		return n, err
	case types.ActionTypeLinkedInInquiry:
		err := tx.Raw(`SELECT COUNT(*) FROM inquiry_actions a
			JOIN inquiry_tasks t ON t.id = a.task_id
			WHERE a.performer_id = ? AND t.category_id = ? AND a.step_type <> ''
			AND a.submitted_at >= ? AND a.submitted_at < ?`,
			userID, categoryID, start, end).Scan(&n).Error
		return n, err
	default:
		return 0, nil
	}
}

// ValidateSubmission blocks a submission that would exceed the worker's
// daily quota or re-contact a target inside its cooldown window. Absence of
// a rule allows unconditionally.
func (v *Validator) ValidateSubmission(tx *gorm.DB, userID, categoryID, role, actionType, targetKey string) error {
	rule, err := ResolveRule(tx, categoryID, actionType, role)
	if err != nil {
		return err
	}
	if rule == nil {
		return nil
	}

	now := time.Now()
	if rule.DailyLimit != nil {
		n, err := dailyCount(tx, userID, categoryID, actionType, now)
		if err != nil {
			return err
		}
		if n >= int64(*rule.DailyLimit) {
			return types.RateLimited("daily limit of %d reached for %s", *rule.DailyLimit, actionType)
		}
	}

	if rule.CooldownDays != nil && targetKey != "" {
		var lc types.LastContact
		err := tx.Where("target_key = ? AND category_id = ?", targetKey, categoryID).
			Order("contacted_at desc").First(&lc).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			elapsed := now.Sub(lc.ContactedAt)
			if elapsed < time.Duration(*rule.CooldownDays)*24*time.Hour {
				f := types.RateLimited("target %s contacted %d day(s) ago", targetKey, int(elapsed/(24*time.Hour)))
				f.RetryDays = remainingDays(elapsed, *rule.CooldownDays)
				return f
			}
		}
	}
	return nil
}

// RecordContact upserts the authoritative last-contact timestamp for a
// target after a successful submission.
func (v *Validator) RecordContact(tx *gorm.DB, targetKey, categoryID, userID, taskType string) error {
	var lc types.LastContact
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("target_key = ? AND category_id = ?", targetKey, categoryID).
		First(&lc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&types.LastContact{
			ID:          uuid.NewString(),
			TargetKey:   targetKey,
			CategoryID:  categoryID,
			UserID:      userID,
			TaskType:    taskType,
			ContactedAt: time.Now(),
		}).Error
	}
	if err != nil {
		return err
	}
	lc.UserID = userID
	lc.TaskType = taskType
	lc.ContactedAt = time.Now()
	return tx.Save(&lc).Error
}
