package limits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/testhelpers"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{"Researcher", BucketResearcher},
		{"researcher", BucketResearcher},
		{"Senior Researcher", BucketResearcher},
		{"LinkedIn Inquirer", BucketInquirer},
		{"Website Inquirer", BucketInquirer},
		{"Inquiry Auditor", BucketAuditor},
		{"  auditor  ", BucketAuditor},
		{"Account Manager", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bucket(tt.role), "Bucket(%q)", tt.role)
	}
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	now := time.Date(2026, 8, 30, 23, 59, 59, 0, loc)
	start, end := dayBounds(now)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, loc), end)

	// one second later is a fresh day
	start2, _ := dayBounds(now.Add(time.Second))
	assert.Equal(t, end, start2)
}

func TestRemainingDays(t *testing.T) {
	tests := []struct {
		name         string
		elapsed      time.Duration
		cooldownDays int
		want         int
	}{
		{"48h into a 7 day window", 48 * time.Hour, 7, 5},
		{"just inside the window", 7*24*time.Hour - time.Minute, 7, 1},
		{"half a day elapsed", 12 * time.Hour, 1, 1},
		{"nothing elapsed", 0, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, remainingDays(tt.elapsed, tt.cooldownDays))
		})
	}
}

func TestResolveRulePrefersExactRoleAndPriority(t *testing.T) {
	db := testhelpers.DB(t)

	limit5, limit9, limit2 := 5, 9, 2
	require.NoError(t, db.Create(&types.CategoryRule{
		ID: "r-bucket", CategoryID: "c1", ActionType: types.ActionTypeWebsiteInquiry,
		Role: BucketInquirer, DailyLimit: &limit5, ActionsRequired: 1,
		Active: true, Priority: 10, CreatedAt: time.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&types.CategoryRule{
		ID: "r-exact-low", CategoryID: "c1", ActionType: types.ActionTypeWebsiteInquiry,
		Role: "Website Inquirer", DailyLimit: &limit9, ActionsRequired: 1,
		Active: true, Priority: 1, CreatedAt: time.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&types.CategoryRule{
		ID: "r-exact-high", CategoryID: "c1", ActionType: types.ActionTypeWebsiteInquiry,
		Role: "Website Inquirer", DailyLimit: &limit2, ActionsRequired: 1,
		Active: true, Priority: 5, CreatedAt: time.Now(),
	}).Error)

	rule, err := ResolveRule(db, "c1", types.ActionTypeWebsiteInquiry, "Website Inquirer")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "r-exact-high", rule.ID, "exact role beats bucket; priority breaks ties")

	// unknown exact role falls back to the bucket rule
	rule, err = ResolveRule(db, "c1", types.ActionTypeWebsiteInquiry, "Inquirer")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "r-bucket", rule.ID)

	// no rule at all allows
	rule, err = ResolveRule(db, "c-other", types.ActionTypeWebsiteInquiry, "Website Inquirer")
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestLastContactCooldown(t *testing.T) {
	db := testhelpers.DB(t)
	v := NewValidator()

	days := 7
	require.NoError(t, db.Create(&types.CategoryRule{
		ID: "r1", CategoryID: "c1", ActionType: types.ActionTypeWebsiteInquiry,
		Role: BucketInquirer, CooldownDays: &days, ActionsRequired: 1,
		Active: true, CreatedAt: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&types.LastContact{
		ID: "lc1", TargetKey: "acme.com", CategoryID: "c1", UserID: "u-other",
		TaskType: types.TrackInquiry, ContactedAt: time.Now().Add(-48 * time.Hour),
	}).Error)

	err := v.ValidateSubmission(db, "u1", "c1", "Website Inquirer", types.ActionTypeWebsiteInquiry, "acme.com")
	require.Error(t, err)
	f := types.AsFault(err)
	require.NotNil(t, f)
	assert.Equal(t, types.KindRateLimited, f.Kind)
	assert.Equal(t, 5, f.RetryDays, "48h into a 7 day window leaves 5 days")

	// a different target in the same category is unaffected
	require.NoError(t, v.ValidateSubmission(db, "u1", "c1", "Website Inquirer", types.ActionTypeWebsiteInquiry, "globex.com"))
}

func TestRecordContactUpserts(t *testing.T) {
	db := testhelpers.DB(t)
	v := NewValidator()

	require.NoError(t, v.RecordContact(db, "acme.com", "c1", "u1", types.TrackInquiry))
	require.NoError(t, v.RecordContact(db, "acme.com", "c1", "u2", types.TrackLinkedIn))

	var rows []types.LastContact
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1, "one row per (target, category)")
	assert.Equal(t, "u2", rows[0].UserID)
}
