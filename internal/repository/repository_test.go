package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hasinichitrada/LIBSHARE/internal/errs"
	"github.com/hasinichitrada/LIBSHARE/internal/model"
	"github.com/hasinichitrada/LIBSHARE/internal/repository"
)

const (
	csBookUid = "6f2ff914-2a51-4b4b-b1cd-a1cbf152b483"
	eeBookUid = "de72fb9e-d3fd-41f8-8b2e-5e1e0ca7f9f0"

	borrowPeriod = 7 * 24 * time.Hour
)

func testBooks() []model.Book {
	return []model.Book{
		{BookUid: csBookUid, Title: "Data Structures and Algorithms", Subject: "CS", Author: "N. Karumanchi", TotalCopies: 5, AvailableCopies: 1},
		{BookUid: eeBookUid, Title: "Microelectronic Circuits", Subject: "EE", Author: "Sedra & Smith", TotalCopies: 4, AvailableCopies: 0},
	}
}

func newRepo(t *testing.T, now *time.Time) repository.Repository {
	t.Helper()
	repo, err := repository.NewRepository(zap.NewNop(),
		repository.WithBooks(testBooks()),
		repository.WithClock(func() time.Time { return *now }),
	)
	require.NoError(t, err)
	return repo
}

func createRequest(t *testing.T, repo repository.Repository) model.BorrowRequest {
	t.Helper()
	req, err := repo.CreateRequest(context.Background(), model.CreateBorrowRequest{
		BookUid:       csBookUid,
		MemberIDs:     []int{102, 103},
		InitiatorID:   101,
		InitiatorName: "Arjun Mehta",
	})
	require.NoError(t, err)
	return req
}

func TestRepository_ListBooks(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := newRepo(t, &now)
	ctx := context.Background()

	books, err := repo.ListBooks(ctx, "")
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.Equal(t, csBookUid, books[0].BookUid, "insertion order is kept")

	books, err = repo.ListBooks(ctx, "miCRO")
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, eeBookUid, books[0].BookUid)

	books, err = repo.ListBooks(ctx, "cs")
	require.NoError(t, err)
	require.Len(t, books, 1, "subject matches too")

	books, err = repo.ListBooks(ctx, "no such title")
	require.NoError(t, err)
	require.Empty(t, books)
}

func TestRepository_CreateRequest(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := newRepo(t, &now)
	ctx := context.Background()

	req := createRequest(t, repo)
	require.NotEmpty(t, req.RequestUid)
	require.Equal(t, model.RequestStatusPending, req.Status)
	require.Equal(t, "Data Structures and Algorithms", req.BookTitle)
	require.Empty(t, req.Approvals)

	for _, memberID := range []int{102, 103} {
		notifs, err := repo.ListNotifications(ctx, memberID)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		require.Equal(t, model.NotificationTypeRequest, notifs[0].Type)
		require.Equal(t, req.RequestUid, notifs[0].RequestUid)
		require.Contains(t, notifs[0].Message, `"Data Structures and Algorithms"`)
		require.Contains(t, notifs[0].Message, "Arjun Mehta")
	}

	// stock is untouched until issuance
	book, err := repo.GetBook(ctx, csBookUid)
	require.NoError(t, err)
	require.Equal(t, 1, book.AvailableCopies)

	_, err = repo.CreateRequest(ctx, model.CreateBorrowRequest{
		BookUid:       "bf0a1fbc-8b32-4b8a-bb45-f1d291e5c4d5",
		MemberIDs:     []int{102, 103},
		InitiatorID:   101,
		InitiatorName: "Arjun Mehta",
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRepository_ApproveRequest(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := newRepo(t, &now)
	ctx := context.Background()
	req := createRequest(t, repo)

	_, err := repo.ApproveRequest(ctx, "bf0a1fbc-8b32-4b8a-bb45-f1d291e5c4d5", 102)
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = repo.ApproveRequest(ctx, req.RequestUid, 999)
	require.ErrorIs(t, err, errs.ErrNotAMember)

	_, err = repo.ApproveRequest(ctx, req.RequestUid, 101)
	require.ErrorIs(t, err, errs.ErrNotAMember, "the initiator's consent is implicit, not an approval")

	got, err := repo.ApproveRequest(ctx, req.RequestUid, 102)
	require.NoError(t, err)
	require.Equal(t, model.RequestStatusPending, got.Status)
	require.True(t, got.Approvals.Has(102))

	// idempotent: approving twice leaves the set unchanged
	got, err = repo.ApproveRequest(ctx, req.RequestUid, 102)
	require.NoError(t, err)
	require.Equal(t, model.RequestStatusPending, got.Status)
	require.Len(t, got.Approvals, 1)

	// the member's notification is consumed by the approval
	notifs, err := repo.ListNotifications(ctx, 102)
	require.NoError(t, err)
	require.Empty(t, notifs)
	notifs, err = repo.ListNotifications(ctx, 103)
	require.NoError(t, err)
	require.Len(t, notifs, 1)

	got, err = repo.ApproveRequest(ctx, req.RequestUid, 103)
	require.NoError(t, err)
	require.Equal(t, model.RequestStatusApproved, got.Status)
	require.Len(t, got.Approvals, 2)
}

func TestRepository_IssueRequest(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	repo := newRepo(t, &now)
	ctx := context.Background()
	req := createRequest(t, repo)

	// issuing a pending request mutates nothing
	_, err := repo.IssueRequest(ctx, req.RequestUid, borrowPeriod)
	require.ErrorIs(t, err, errs.ErrInvalidState)
	book, err := repo.GetBook(ctx, csBookUid)
	require.NoError(t, err)
	require.Equal(t, 1, book.AvailableCopies)

	_, err = repo.ApproveRequest(ctx, req.RequestUid, 102)
	require.NoError(t, err)
	_, err = repo.ApproveRequest(ctx, req.RequestUid, 103)
	require.NoError(t, err)

	issue, err := repo.IssueRequest(ctx, req.RequestUid, borrowPeriod)
	require.NoError(t, err)
	require.Equal(t, model.IssueStatusActive, issue.Status)
	require.Equal(t, []int{101, 102, 103}, issue.StudentIDs)
	require.Equal(t, now, issue.IssueDate)
	require.Equal(t, now.Add(borrowPeriod), issue.DueDate)
	require.Equal(t, "CS", issue.Subject)

	book, err = repo.GetBook(ctx, csBookUid)
	require.NoError(t, err)
	require.Equal(t, 0, book.AvailableCopies)

	// issuance is terminal: a second attempt must not also succeed
	_, err = repo.IssueRequest(ctx, req.RequestUid, borrowPeriod)
	require.ErrorIs(t, err, errs.ErrInvalidState)

	// and a late approval is rejected too
	_, err = repo.ApproveRequest(ctx, req.RequestUid, 102)
	require.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestRepository_IssueRequest_OutOfStock(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := newRepo(t, &now)
	ctx := context.Background()

	req, err := repo.CreateRequest(ctx, model.CreateBorrowRequest{
		BookUid:       eeBookUid,
		MemberIDs:     []int{202, 203},
		InitiatorID:   201,
		InitiatorName: "Sneha Rao",
	})
	require.NoError(t, err)
	_, err = repo.ApproveRequest(ctx, req.RequestUid, 202)
	require.NoError(t, err)
	_, err = repo.ApproveRequest(ctx, req.RequestUid, 203)
	require.NoError(t, err)

	_, err = repo.IssueRequest(ctx, req.RequestUid, borrowPeriod)
	require.ErrorIs(t, err, errs.ErrOutOfStock)

	// nothing was mutated: the request is still in the librarian queue
	queue, err := repo.ListApprovedRequests(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
}

func TestRepository_IssueRequest_SubjectConflict(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo, err := repository.NewRepository(zap.NewNop(),
		repository.WithBooks([]model.Book{
			{BookUid: csBookUid, Title: "Data Structures and Algorithms", Subject: "CS", TotalCopies: 5, AvailableCopies: 2},
			{BookUid: eeBookUid, Title: "Algorithm Design", Subject: "CS", TotalCopies: 4, AvailableCopies: 4},
		}),
		repository.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	ctx := context.Background()

	approved := func(bookUid string, initiator, m1, m2 int) model.BorrowRequest {
		req, err := repo.CreateRequest(ctx, model.CreateBorrowRequest{
			BookUid: bookUid, MemberIDs: []int{m1, m2}, InitiatorID: initiator, InitiatorName: "x",
		})
		require.NoError(t, err)
		_, err = repo.ApproveRequest(ctx, req.RequestUid, m1)
		require.NoError(t, err)
		_, err = repo.ApproveRequest(ctx, req.RequestUid, m2)
		require.NoError(t, err)
		return req
	}

	first := approved(csBookUid, 101, 102, 103)
	_, err = repo.IssueRequest(ctx, first.RequestUid, borrowPeriod)
	require.NoError(t, err)

	// 103 already holds an active CS loan; issuance re-checks the policy
	second := approved(eeBookUid, 301, 302, 103)
	_, err = repo.IssueRequest(ctx, second.RequestUid, borrowPeriod)
	require.ErrorIs(t, err, errs.ErrPolicyViolation)

	book, err := repo.GetBook(ctx, eeBookUid)
	require.NoError(t, err)
	require.Equal(t, 4, book.AvailableCopies, "failed issuance must not consume stock")
}

func TestRepository_ReturnIssue(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	repo := newRepo(t, &now)
	ctx := context.Background()
	req := createRequest(t, repo)

	_, err := repo.ApproveRequest(ctx, req.RequestUid, 102)
	require.NoError(t, err)
	_, err = repo.ApproveRequest(ctx, req.RequestUid, 103)
	require.NoError(t, err)
	issue, err := repo.IssueRequest(ctx, req.RequestUid, borrowPeriod)
	require.NoError(t, err)

	now = now.Add(48 * time.Hour)
	returned, err := repo.ReturnIssue(ctx, issue.IssueUid)
	require.NoError(t, err)
	require.Equal(t, model.IssueStatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	require.Equal(t, now, *returned.ReturnDate)

	// availability is restored to its pre-issue value
	book, err := repo.GetBook(ctx, csBookUid)
	require.NoError(t, err)
	require.Equal(t, 1, book.AvailableCopies)

	// a second return fails and must not increment again
	_, err = repo.ReturnIssue(ctx, issue.IssueUid)
	require.ErrorIs(t, err, errs.ErrInvalidState)
	book, err = repo.GetBook(ctx, csBookUid)
	require.NoError(t, err)
	require.Equal(t, 1, book.AvailableCopies)

	_, err = repo.ReturnIssue(ctx, "bf0a1fbc-8b32-4b8a-bb45-f1d291e5c4d5")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRepository_ListRequests(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := newRepo(t, &now)
	ctx := context.Background()
	req := createRequest(t, repo)

	for _, studentID := range []int{101, 102, 103} {
		reqs, err := repo.ListRequests(ctx, studentID)
		require.NoError(t, err)
		require.Len(t, reqs, 1)
		require.Equal(t, req.RequestUid, reqs[0].RequestUid)
	}

	reqs, err := repo.ListRequests(ctx, 999)
	require.NoError(t, err)
	require.Empty(t, reqs)
}

func TestRepository_ActiveIssues(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := newRepo(t, &now)
	ctx := context.Background()
	req := createRequest(t, repo)

	_, err := repo.ApproveRequest(ctx, req.RequestUid, 102)
	require.NoError(t, err)
	_, err = repo.ApproveRequest(ctx, req.RequestUid, 103)
	require.NoError(t, err)
	issue, err := repo.IssueRequest(ctx, req.RequestUid, borrowPeriod)
	require.NoError(t, err)

	active, err := repo.ActiveIssues(ctx, 102)
	require.NoError(t, err)
	require.Len(t, active, 1)

	_, err = repo.ReturnIssue(ctx, issue.IssueUid)
	require.NoError(t, err)

	active, err = repo.ActiveIssues(ctx, 102)
	require.NoError(t, err)
	require.Empty(t, active)

	all, err := repo.ListIssues(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "returned issues stay in the ledger")
}
