package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/testhelpers"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
)

func TestValidateSubmit(t *testing.T) {
	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr bool
	}{
		{"complete", SubmitRequest{Language: "en", ContactEmail: "info@acme.com"}, false},
		{"name only contact", SubmitRequest{Language: "de", ContactName: "Max"}, false},
		{"url only contact", SubmitRequest{Language: "en", ContactURL: "acme.com/contact"}, false},
		{"missing language", SubmitRequest{ContactEmail: "info@acme.com"}, true},
		{"no contact at all", SubmitRequest{Language: "en", Notes: "nice site"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmit(tt.req)
			if tt.wantErr {
				assert.True(t, types.IsKind(err, types.KindValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBlocksCreation(t *testing.T) {
	assert.True(t, blocksCreation(types.ResearchPending))
	assert.True(t, blocksCreation(types.ResearchInProgress))
	assert.True(t, blocksCreation(types.ResearchSubmitted))
	assert.True(t, blocksCreation(types.ResearchCompleted))
	assert.False(t, blocksCreation(types.ResearchRejected))
}

func TestCreateDeduplicatesTargets(t *testing.T) {
	db := testhelpers.DB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateRequest{
		TargetKind: types.TargetCompany, RawTarget: "https://www.Acme.com/", CategoryID: "c1",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, types.ResearchPending, first.Status)

	// same target after normalization, same category: conflict
	_, err = svc.Create(ctx, CreateRequest{
		TargetKind: types.TargetCompany, RawTarget: "acme.com", CategoryID: "c1",
	}, "admin")
	assert.True(t, types.IsKind(err, types.KindConflict))

	// same target, different category: fine
	_, err = svc.Create(ctx, CreateRequest{
		TargetKind: types.TargetCompany, RawTarget: "acme.com", CategoryID: "c2",
	}, "admin")
	require.NoError(t, err)

	// a rejected task does not block recreation
	require.NoError(t, db.Model(&types.ResearchTask{}).
		Where("id = ?", first.ID).Update("status", types.ResearchRejected).Error)
	_, err = svc.Create(ctx, CreateRequest{
		TargetKind: types.TargetCompany, RawTarget: "acme.com", CategoryID: "c1",
	}, "admin")
	require.NoError(t, err)
}

func TestClaimConflictAndIdempotency(t *testing.T) {
	db := testhelpers.DB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateRequest{
		TargetKind: types.TargetCompany, RawTarget: "acme.com", CategoryID: "c1",
	}, "admin")
	require.NoError(t, err)

	claimed, err := svc.Claim(ctx, task.ID, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, types.ResearchInProgress, claimed.Status)
	require.NotNil(t, claimed.AssigneeID)
	assert.Equal(t, "worker-a", *claimed.AssigneeID)

	// same worker again: success, unchanged
	again, err := svc.Claim(ctx, task.ID, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, types.ResearchInProgress, again.Status)

	// another worker: conflict
	_, err = svc.Claim(ctx, task.ID, "worker-b")
	assert.True(t, types.IsKind(err, types.KindConflict))

	// unknown task: not found
	_, err = svc.Claim(ctx, "00000000-0000-0000-0000-000000000000", "worker-a")
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestSubmitGuards(t *testing.T) {
	db := testhelpers.DB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateRequest{
		TargetKind: types.TargetCompany, RawTarget: "acme.com", CategoryID: "c1",
	}, "admin")
	require.NoError(t, err)

	payload := SubmitRequest{Language: "en", ContactEmail: "info@acme.com"}

	// not claimed yet
	_, err = svc.Submit(ctx, task.ID, payload, "worker-a")
	assert.True(t, types.IsKind(err, types.KindForbidden))

	_, err = svc.Claim(ctx, task.ID, "worker-a")
	require.NoError(t, err)

	// wrong user
	_, err = svc.Submit(ctx, task.ID, payload, "worker-b")
	assert.True(t, types.IsKind(err, types.KindForbidden))

	sub, err := svc.Submit(ctx, task.ID, payload, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, task.ID, sub.TaskID)

	var got types.ResearchTask
	require.NoError(t, db.First(&got, "id = ?", task.ID).Error)
	assert.Equal(t, types.ResearchSubmitted, got.Status)

	// double submit: wrong state now
	_, err = svc.Submit(ctx, task.ID, payload, "worker-a")
	assert.True(t, types.IsKind(err, types.KindInvalidState))
}

func TestSubmitSanitizesFreeText(t *testing.T) {
	db := testhelpers.DB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateRequest{
		TargetKind: types.TargetCompany, RawTarget: "acme.com", CategoryID: "c1",
	}, "admin")
	require.NoError(t, err)
	_, err = svc.Claim(ctx, task.ID, "worker-a")
	require.NoError(t, err)

	sub, err := svc.Submit(ctx, task.ID, SubmitRequest{
		Language:    "en",
		ContactName: "Max",
		Notes:       `<script>alert(1)</script>plain notes`,
	}, "worker-a")
	require.NoError(t, err)

	var got types.ResearchSubmission
	require.NoError(t, db.First(&got, "id = ?", sub.ID).Error)
	assert.NotContains(t, got.Notes, "<script>")
	assert.Contains(t, got.Notes, "plain notes")
}
