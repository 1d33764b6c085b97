package types

import "time"

// Target kinds
const (
	TargetCompany         = "COMPANY"
	TargetLinkedInProfile = "LINKEDIN_PROFILE"
)

// Research task statuses
const (
	ResearchPending    = "PENDING"
	ResearchInProgress = "IN_PROGRESS"
	ResearchSubmitted  = "SUBMITTED"
	ResearchCompleted  = "COMPLETED"
	ResearchRejected   = "REJECTED"
)

// Inquiry task statuses
const (
	InquiryPending    = "PENDING"
	InquiryInProgress = "IN_PROGRESS"
	InquiryCompleted  = "COMPLETED"
	InquiryApproved   = "APPROVED"
	InquiryRejected   = "REJECTED"
	InquiryFlagged    = "FLAGGED"
)

// Inquiry action statuses
const (
	ActionPending   = "PENDING"
	ActionSubmitted = "SUBMITTED"
	ActionApproved  = "APPROVED"
	ActionRejected  = "REJECTED"
)

// LinkedIn step types, performed strictly in this order.
const (
	StepOutreach      = "OUTREACH"
	StepAskForEmail   = "ASK_FOR_EMAIL"
	StepSendCatalogue = "SEND_CATALOGUE"
)

// Rule action types, as configured by the admin surfaces.
const (
	ActionTypeResearch        = "Research"
	ActionTypeWebsiteInquiry  = "Website Inquiry"
	ActionTypeLinkedInInquiry = "LinkedIn Inquiry"
)

// Audit decisions
const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
	DecisionFlagged  = "FLAGGED"
)

// Audit tracks
const (
	TrackResearch = "RESEARCH"
	TrackInquiry  = "INQUIRY"
	TrackLinkedIn = "LINKEDIN"
)

// Companies, keyed by normalized domain
type Company struct {
	ID        string `gorm:"primaryKey;size:36"`
	Domain    string `gorm:"size:256;uniqueIndex;not null"` // normalized
	RawInput  string `gorm:"size:512"`
	CreatedAt time.Time
}

// LinkedIn profiles, keyed by normalized URL
type LinkedInProfile struct {
	ID        string `gorm:"primaryKey;size:36"`
	URL       string `gorm:"size:512;uniqueIndex;not null"` // normalized
	RawInput  string `gorm:"size:512"`
	CreatedAt time.Time
}

// Work categories
type Category struct {
	ID     string `gorm:"primaryKey;size:36"`
	Name   string `gorm:"size:128;uniqueIndex;not null"`
	Active bool   `gorm:"default:true"`
}

// Per (category, action type, role) rule: daily limits, per-target cooldown
// days, required action count. Highest priority wins; creation recency breaks
// ties.
type CategoryRule struct {
	ID               string `gorm:"primaryKey;size:36"`
	CategoryID       string `gorm:"size:36;index;not null"`
	ActionType       string `gorm:"size:64;not null"`
	Role             string `gorm:"size:64;not null"`
	DailyLimit       *int
	CooldownDays     *int
	ActionsRequired  int  `gorm:"default:1"`
	EvidenceRequired bool `gorm:"default:true"`
	Active           bool `gorm:"default:true"`
	Priority         int  `gorm:"default:0"`
	CreatedAt        time.Time
}

// Counted-threshold cooldown configuration, per (category, action type).
// Distinct from CategoryRule.CooldownDays; the two throttles are configured
// by different admin surfaces and both apply.
type CooldownRule struct {
	ID              string `gorm:"primaryKey;size:36"`
	CategoryID      string `gorm:"size:36;index;not null"`
	ActionType      string `gorm:"size:64;not null"`
	ActionsRequired int    `gorm:"not null"`
	CooldownMinutes int    `gorm:"not null"`
	Active          bool   `gorm:"default:true"`
	CreatedAt       time.Time
}

// Research assignments
type ResearchTask struct {
	ID         string  `gorm:"primaryKey;size:36"`
	TargetID   string  `gorm:"size:36;index:idx_research_target_cat;not null"`
	TargetKind string  `gorm:"size:24;not null"` // COMPANY | LINKEDIN_PROFILE
	CategoryID string  `gorm:"size:36;index:idx_research_target_cat;not null"`
	AssigneeID *string `gorm:"size:36;index"`
	Status     string  `gorm:"size:16;index;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Immutable; the most recent row per task is authoritative for review.
type ResearchSubmission struct {
	ID           string `gorm:"primaryKey;size:36"`
	TaskID       string `gorm:"size:36;index;not null"`
	SubmitterID  string `gorm:"size:36;not null"`
	Language     string `gorm:"size:16;not null"`
	ContactName  string `gorm:"size:256"`
	ContactEmail string `gorm:"size:256"`
	ContactURL   string `gorm:"size:512"`
	Country      string `gorm:"size:64"`
	Notes        string `gorm:"type:text"`
	CreatedAt    time.Time
}

// Website/LinkedIn inquiry assignments
type InquiryTask struct {
	ID         string  `gorm:"primaryKey;size:36"`
	TargetID   string  `gorm:"size:36;index:idx_inquiry_target_cat;not null"`
	TargetKind string  `gorm:"size:24;not null"`
	CategoryID string  `gorm:"size:36;index:idx_inquiry_target_cat;not null"`
	AssigneeID *string `gorm:"size:36;index"`
	Status     string  `gorm:"size:16;index;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// One contact action inside an inquiry task. Website tasks use Ordinal;
// LinkedIn tasks use StepType.
type InquiryAction struct {
	ID          string `gorm:"primaryKey;size:36"`
	TaskID      string `gorm:"size:36;index;not null"`
	Ordinal     int    `gorm:"default:0"`
	StepType    string `gorm:"size:24"` // empty for website actions
	PerformerID string `gorm:"size:36"`
	Status      string `gorm:"size:16;not null"`
	SubmittedAt *time.Time
	CreatedAt   time.Time
}

// Denormalized copy of everything the auditor sees, written once at
// submission time. Upstream edits never change what was audited.
type InquirySnapshot struct {
	ID             string `gorm:"primaryKey;size:36"`
	ActionID       string `gorm:"size:36;uniqueIndex;not null"`
	TaskID         string `gorm:"size:36;index;not null"`
	SubmitterID    string `gorm:"size:36;not null"`
	ScreenshotPath string `gorm:"size:512"`
	ScreenshotHash string `gorm:"size:64"`
	IsDuplicate    bool   `gorm:"default:false"`
	ContactName    string `gorm:"size:256"`
	ContactURL     string `gorm:"size:512"`
	Country        string `gorm:"size:64"`
	Language       string `gorm:"size:16"`
	Message        string `gorm:"type:text"`
	CreatedAt      time.Time
}

// Per-worker, per-target action counter. The cooldown window starts once the
// counter reaches the rule threshold and clears only after the configured
// duration has fully elapsed.
type CooldownRecord struct {
	ID                string `gorm:"primaryKey;size:36"`
	UserID            string `gorm:"size:36;uniqueIndex:idx_cooldown_key;not null"`
	TargetID          string `gorm:"size:36;uniqueIndex:idx_cooldown_key;not null"`
	CategoryID        string `gorm:"size:36;uniqueIndex:idx_cooldown_key;not null"`
	ActionType        string `gorm:"size:64;uniqueIndex:idx_cooldown_key;not null"`
	ActionCount       int    `gorm:"default:0"`
	CooldownStartedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Last successful contact per (target, category); the per-target throttle
// driven by CategoryRule.CooldownDays.
type LastContact struct {
	ID          string `gorm:"primaryKey;size:36"`
	TargetKey   string `gorm:"size:256;uniqueIndex:idx_last_contact;not null"`
	CategoryID  string `gorm:"size:36;uniqueIndex:idx_last_contact;not null"`
	UserID      string `gorm:"size:36;not null"`
	TaskType    string `gorm:"size:32"`
	ContactedAt time.Time
}

// Append-only evidence hashes. Rows survive evidence file cleanup so a
// removed screenshot can never be re-submitted.
type ScreenshotHash struct {
	ID         string `gorm:"primaryKey;size:36"`
	Hash       string `gorm:"size:64;uniqueIndex;not null"`
	UploaderID string `gorm:"size:36;not null"`
	CreatedAt  time.Time
}

// Append-only decision history; the task row holds only the current state.
type AuditDecision struct {
	ID        string  `gorm:"primaryKey;size:36"`
	TaskID    string  `gorm:"size:36;index;not null"`
	Track     string  `gorm:"size:16;not null"` // RESEARCH | INQUIRY | LINKEDIN
	ActionID  *string `gorm:"size:36"`
	AuditorID string  `gorm:"size:36;not null"`
	Decision  string  `gorm:"size:16;not null"`
	Reason    string  `gorm:"size:512"`
	CreatedAt time.Time
}

// Written on every rejection; consumed by trust scoring downstream.
type FlaggedAction struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;index;not null"`
	TargetID  string `gorm:"size:36;not null"`
	TaskID    string `gorm:"size:36;not null"`
	Reason    string `gorm:"size:512"`
	CreatedAt time.Time
}
