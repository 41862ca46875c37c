package policy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hasinichitrada/LIBSHARE/internal/model"
	"github.com/hasinichitrada/LIBSHARE/internal/policy"
)

func TestValidTriad(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                        string
		initiator, member1, member2 int
		want                        bool
	}{
		{name: "ok", initiator: 101, member1: 102, member2: 103, want: true},
		{name: "members equal", initiator: 101, member1: 102, member2: 102, want: false},
		{name: "member1 is initiator", initiator: 101, member1: 101, member2: 103, want: false},
		{name: "member2 is initiator", initiator: 101, member1: 102, member2: 101, want: false},
		{name: "zero id", initiator: 101, member1: 0, member2: 103, want: false},
		{name: "negative id", initiator: -1, member1: 102, member2: 103, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, policy.ValidTriad(tt.initiator, tt.member1, tt.member2))
		})
	}
}

func TestHasActiveSubjectConflict(t *testing.T) {
	t.Parallel()
	issues := []model.Issue{
		{Subject: "CS", StudentIDs: []int{101, 102, 103}, Status: model.IssueStatusActive},
		{Subject: "ME", StudentIDs: []int{104, 105, 106}, Status: model.IssueStatusReturned},
	}

	require.True(t, policy.HasActiveSubjectConflict(101, "CS", issues))
	require.True(t, policy.HasActiveSubjectConflict(103, "CS", issues))
	require.False(t, policy.HasActiveSubjectConflict(101, "ME", issues))
	require.False(t, policy.HasActiveSubjectConflict(104, "ME", issues), "returned loan is no conflict")
	require.False(t, policy.HasActiveSubjectConflict(999, "CS", issues))
}

func TestIsFullyApproved(t *testing.T) {
	t.Parallel()
	req := model.BorrowRequest{
		InitiatorID: 101,
		MemberIDs:   []int{102, 103},
		Approvals:   model.NewStudentSet(),
	}
	require.False(t, policy.IsFullyApproved(req))

	req.Approvals.Add(102)
	require.False(t, policy.IsFullyApproved(req))

	req.Approvals.Add(102) // duplicate approval does not double count
	require.False(t, policy.IsFullyApproved(req))

	req.Approvals.Add(103)
	require.True(t, policy.IsFullyApproved(req))
}
