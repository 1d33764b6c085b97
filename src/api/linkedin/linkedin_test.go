package linkedin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
)

func TestMissingPrior(t *testing.T) {
	pendingAll := map[string]string{
		types.StepOutreach:      types.ActionPending,
		types.StepAskForEmail:   types.ActionPending,
		types.StepSendCatalogue: types.ActionPending,
	}
	outreachDone := map[string]string{
		types.StepOutreach:      types.ActionSubmitted,
		types.StepAskForEmail:   types.ActionPending,
		types.StepSendCatalogue: types.ActionPending,
	}
	twoDone := map[string]string{
		types.StepOutreach:      types.ActionApproved,
		types.StepAskForEmail:   types.ActionSubmitted,
		types.StepSendCatalogue: types.ActionPending,
	}

	tests := []struct {
		name   string
		step   string
		status map[string]string
		want   string
	}{
		{"outreach always first", types.StepOutreach, pendingAll, ""},
		{"ask blocked by pending outreach", types.StepAskForEmail, pendingAll, types.StepOutreach},
		{"catalogue blocked by first pending step", types.StepSendCatalogue, pendingAll, types.StepOutreach},
		{"ask unblocked once outreach submitted", types.StepAskForEmail, outreachDone, ""},
		{"catalogue still blocked by ask", types.StepSendCatalogue, outreachDone, types.StepAskForEmail},
		{"catalogue unblocked once both done", types.StepSendCatalogue, twoDone, ""},
		{"missing status map entries block", types.StepAskForEmail, map[string]string{}, types.StepOutreach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MissingPrior(tt.step, tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := MissingPrior("SEND_FLOWERS", pendingAll)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindValidation))
}

func action(step, status string) types.InquiryAction {
	return types.InquiryAction{StepType: step, Status: status}
}

func TestDeriveTaskStatus(t *testing.T) {
	tests := []struct {
		name    string
		actions []types.InquiryAction
		want    string
	}{
		{
			"all approved",
			[]types.InquiryAction{
				action(types.StepOutreach, types.ActionApproved),
				action(types.StepAskForEmail, types.ActionApproved),
				action(types.StepSendCatalogue, types.ActionApproved),
			},
			types.InquiryApproved,
		},
		{
			"any rejected wins over approvals",
			[]types.InquiryAction{
				action(types.StepOutreach, types.ActionApproved),
				action(types.StepAskForEmail, types.ActionRejected),
				action(types.StepSendCatalogue, types.ActionApproved),
			},
			types.InquiryRejected,
		},
		{
			"all submitted means ready for audit",
			[]types.InquiryAction{
				action(types.StepOutreach, types.ActionSubmitted),
				action(types.StepAskForEmail, types.ActionSubmitted),
				action(types.StepSendCatalogue, types.ActionSubmitted),
			},
			types.InquiryCompleted,
		},
		{
			"mixed resolved and submitted stays completed",
			[]types.InquiryAction{
				action(types.StepOutreach, types.ActionApproved),
				action(types.StepAskForEmail, types.ActionSubmitted),
				action(types.StepSendCatalogue, types.ActionSubmitted),
			},
			types.InquiryCompleted,
		},
		{
			"anything pending keeps it in progress",
			[]types.InquiryAction{
				action(types.StepOutreach, types.ActionSubmitted),
				action(types.StepAskForEmail, types.ActionPending),
				action(types.StepSendCatalogue, types.ActionPending),
			},
			types.InquiryInProgress,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTaskStatus(tt.actions))
		})
	}
}
