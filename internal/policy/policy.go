// Package policy holds the pure group-borrow predicates. Nothing in here
// mutates state; callers decide where and when the rules are enforced.
package policy

import (
	"github.com/hasinichitrada/LIBSHARE/internal/model"
)

// ValidTriad reports whether the initiator and the two named members form
// a valid borrow group: three well-formed, pairwise distinct student ids.
func ValidTriad(initiatorID, member1, member2 int) bool {
	if initiatorID <= 0 || member1 <= 0 || member2 <= 0 {
		return false
	}
	return member1 != member2 && member1 != initiatorID && member2 != initiatorID
}

// HasActiveSubjectConflict reports whether the student already holds an
// active loan in the given subject.
func HasActiveSubjectConflict(studentID int, subject string, issues []model.Issue) bool {
	for _, issue := range issues {
		if issue.Status != model.IssueStatusActive || issue.Subject != subject {
			continue
		}
		for _, id := range issue.StudentIDs {
			if id == studentID {
				return true
			}
		}
	}
	return false
}

// IsFullyApproved reports whether every member of the request has approved.
// The initiator's consent is implicit at creation and never counted here.
func IsFullyApproved(req model.BorrowRequest) bool {
	for _, id := range req.MemberIDs {
		if !req.Approvals.Has(id) {
			return false
		}
	}
	return true
}
