package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hasinichitrada/LIBSHARE/internal/errs"
	"github.com/hasinichitrada/LIBSHARE/internal/model"
	"github.com/hasinichitrada/LIBSHARE/internal/policy"
)

type Repository interface {
	ListBooks(ctx context.Context, filter string) ([]model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)

	CreateRequest(ctx context.Context, req model.CreateBorrowRequest) (model.BorrowRequest, error)
	ApproveRequest(ctx context.Context, requestUid string, studentID int) (model.BorrowRequest, error)
	ListRequests(ctx context.Context, studentID int) ([]model.BorrowRequest, error)
	ListApprovedRequests(ctx context.Context) ([]model.BorrowRequest, error)

	ListNotifications(ctx context.Context, studentID int) ([]model.Notification, error)

	IssueRequest(ctx context.Context, requestUid string, period time.Duration) (model.Issue, error)
	ReturnIssue(ctx context.Context, issueUid string) (model.Issue, error)
	GetIssue(ctx context.Context, issueUid string) (model.Issue, error)
	ActiveIssues(ctx context.Context, studentID int) ([]model.Issue, error)
	ListIssues(ctx context.Context) ([]model.Issue, error)
}

// repository is the process-wide lending ledger. The four collections
// (catalog, requests, notifications, issues) form one transactional unit
// guarded by a single mutex: every command below either completes fully
// or leaves the ledger untouched.
type repository struct {
	mu  sync.RWMutex
	log *zap.Logger
	now func() time.Time

	books         []*model.Book
	requests      []*model.BorrowRequest
	notifications []*model.Notification
	issues        []*model.Issue
}

type Option func(*repository)

// WithBooks seeds the catalog. Books without a uid get one assigned.
func WithBooks(books []model.Book) Option {
	return func(r *repository) {
		for i := range books {
			b := books[i]
			if b.BookUid == "" {
				b.BookUid = uuid.NewString()
			}
			r.books = append(r.books, &b)
		}
	}
}

// WithClock overrides the ledger clock.
func WithClock(now func() time.Time) Option {
	return func(r *repository) {
		r.now = now
	}
}

func NewRepository(log *zap.Logger, opts ...Option) (*repository, error) {
	r := &repository{
		log: log.Named("repo"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *repository) ListBooks(_ context.Context, filter string) ([]model.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter = strings.ToLower(filter)
	books := make([]model.Book, 0, len(r.books))
	for _, b := range r.books {
		if filter != "" &&
			!strings.Contains(strings.ToLower(b.Title), filter) &&
			!strings.Contains(strings.ToLower(b.Subject), filter) {
			continue
		}
		books = append(books, *b)
	}
	return books, nil
}

func (r *repository) GetBook(_ context.Context, bookUid string) (model.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, err := r.findBook(bookUid)
	if err != nil {
		return model.Book{}, err
	}
	return *b, nil
}

func (r *repository) CreateRequest(_ context.Context, req model.CreateBorrowRequest) (model.BorrowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, err := r.findBook(req.BookUid)
	if err != nil {
		return model.BorrowRequest{}, err
	}

	now := r.now()
	borrow := &model.BorrowRequest{
		RequestUid:  uuid.NewString(),
		BookUid:     book.BookUid,
		BookTitle:   book.Title,
		InitiatorID: req.InitiatorID,
		MemberIDs:   append([]int(nil), req.MemberIDs...),
		Approvals:   model.NewStudentSet(),
		Status:      model.RequestStatusPending,
		CreatedAt:   now,
	}
	r.requests = append(r.requests, borrow)

	for _, memberID := range borrow.MemberIDs {
		r.notifications = append(r.notifications, &model.Notification{
			NotificationUid: uuid.NewString(),
			TargetID:        memberID,
			Message:         req.InitiatorName + ` added you to a group borrow for "` + book.Title + `"`,
			Type:            model.NotificationTypeRequest,
			RequestUid:      borrow.RequestUid,
			CreatedAt:       now,
		})
	}
	return copyRequest(borrow), nil
}

func (r *repository) ApproveRequest(_ context.Context, requestUid string, studentID int) (model.BorrowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, err := r.findRequest(requestUid)
	if err != nil {
		return model.BorrowRequest{}, err
	}
	if req.Status == model.RequestStatusIssued {
		return model.BorrowRequest{}, errors.Wrap(errs.ErrInvalidState, "request already issued")
	}
	member := false
	for _, id := range req.MemberIDs {
		if id == studentID {
			member = true
			break
		}
	}
	if !member {
		return model.BorrowRequest{}, errs.ErrNotAMember
	}

	req.Approvals.Add(studentID)
	if policy.IsFullyApproved(*req) {
		req.Status = model.RequestStatusApproved
	}
	r.removeNotifications(requestUid, studentID)

	return copyRequest(req), nil
}

func (r *repository) ListRequests(_ context.Context, studentID int) ([]model.BorrowRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.BorrowRequest
	for _, req := range r.requests {
		if req.InitiatorID == studentID {
			out = append(out, copyRequest(req))
			continue
		}
		for _, id := range req.MemberIDs {
			if id == studentID {
				out = append(out, copyRequest(req))
				break
			}
		}
	}
	return out, nil
}

func (r *repository) ListApprovedRequests(_ context.Context) ([]model.BorrowRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.BorrowRequest
	for _, req := range r.requests {
		if req.Status == model.RequestStatusApproved {
			out = append(out, copyRequest(req))
		}
	}
	return out, nil
}

func (r *repository) ListNotifications(_ context.Context, studentID int) ([]model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Notification
	for _, n := range r.notifications {
		if n.TargetID == studentID {
			out = append(out, *n)
		}
	}
	return out, nil
}

// IssueRequest converts an approved request into an active issue. Status,
// stock and the subject-conflict policy are all checked under the ledger
// lock, so two issuance attempts racing on the same request or the same
// student/subject pair cannot both succeed.
func (r *repository) IssueRequest(_ context.Context, requestUid string, period time.Duration) (model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, err := r.findRequest(requestUid)
	if err != nil {
		return model.Issue{}, err
	}
	if req.Status != model.RequestStatusApproved {
		return model.Issue{}, errors.Wrapf(errs.ErrInvalidState, "request is %s", req.Status)
	}
	book, err := r.findBook(req.BookUid)
	if err != nil {
		return model.Issue{}, err
	}
	if book.AvailableCopies == 0 {
		return model.Issue{}, errs.ErrOutOfStock
	}

	studentIDs := append([]int{req.InitiatorID}, req.MemberIDs...)
	active := r.activeIssuesLocked()
	for _, id := range studentIDs {
		if policy.HasActiveSubjectConflict(id, book.Subject, active) {
			return model.Issue{}, errors.Wrapf(errs.ErrPolicyViolation,
				"student %d already holds an active %s loan", id, book.Subject)
		}
	}

	now := r.now()
	issue := &model.Issue{
		IssueUid:   uuid.NewString(),
		BookUid:    book.BookUid,
		BookTitle:  book.Title,
		Subject:    book.Subject,
		StudentIDs: studentIDs,
		IssueDate:  now,
		DueDate:    now.Add(period),
		Status:     model.IssueStatusActive,
	}
	r.issues = append(r.issues, issue)
	book.AvailableCopies--
	req.Status = model.RequestStatusIssued

	return copyIssue(issue), nil
}

func (r *repository) ReturnIssue(_ context.Context, issueUid string) (model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, err := r.findIssue(issueUid)
	if err != nil {
		return model.Issue{}, err
	}
	if issue.Status == model.IssueStatusReturned {
		return model.Issue{}, errors.Wrap(errs.ErrInvalidState, "issue already returned")
	}
	book, err := r.findBook(issue.BookUid)
	if err != nil {
		return model.Issue{}, err
	}
	if book.AvailableCopies >= book.TotalCopies {
		r.log.DPanic("availableCopies would exceed totalCopies",
			zap.String("bookUid", book.BookUid),
			zap.Int("totalCopies", book.TotalCopies))
		return model.Issue{}, errors.Wrapf(errs.ErrInvalidState,
			"book %s has all %d copies in stock", book.BookUid, book.TotalCopies)
	}

	now := r.now()
	issue.ReturnDate = &now
	issue.Status = model.IssueStatusReturned
	book.AvailableCopies++

	return copyIssue(issue), nil
}

func (r *repository) GetIssue(_ context.Context, issueUid string) (model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, err := r.findIssue(issueUid)
	if err != nil {
		return model.Issue{}, err
	}
	return copyIssue(issue), nil
}

func (r *repository) ActiveIssues(_ context.Context, studentID int) ([]model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Issue
	for _, issue := range r.issues {
		if issue.Status != model.IssueStatusActive {
			continue
		}
		for _, id := range issue.StudentIDs {
			if id == studentID {
				out = append(out, copyIssue(issue))
				break
			}
		}
	}
	return out, nil
}

func (r *repository) ListIssues(_ context.Context) ([]model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		out = append(out, copyIssue(issue))
	}
	return out, nil
}

func (r *repository) findBook(bookUid string) (*model.Book, error) {
	for _, b := range r.books {
		if b.BookUid == bookUid {
			return b, nil
		}
	}
	return nil, errors.Wrapf(errs.ErrNotFound, "book %s", bookUid)
}

func (r *repository) findRequest(requestUid string) (*model.BorrowRequest, error) {
	for _, req := range r.requests {
		if req.RequestUid == requestUid {
			return req, nil
		}
	}
	return nil, errors.Wrapf(errs.ErrNotFound, "request %s", requestUid)
}

func (r *repository) findIssue(issueUid string) (*model.Issue, error) {
	for _, issue := range r.issues {
		if issue.IssueUid == issueUid {
			return issue, nil
		}
	}
	return nil, errors.Wrapf(errs.ErrNotFound, "issue %s", issueUid)
}

func (r *repository) activeIssuesLocked() []model.Issue {
	var out []model.Issue
	for _, issue := range r.issues {
		if issue.Status == model.IssueStatusActive {
			out = append(out, *issue)
		}
	}
	return out
}

func (r *repository) removeNotifications(requestUid string, studentID int) {
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if n.RequestUid == requestUid && n.TargetID == studentID {
			continue
		}
		kept = append(kept, n)
	}
	r.notifications = kept
}

func copyRequest(req *model.BorrowRequest) model.BorrowRequest {
	out := *req
	out.MemberIDs = append([]int(nil), req.MemberIDs...)
	out.Approvals = req.Approvals.Clone()
	return out
}

func copyIssue(issue *model.Issue) model.Issue {
	out := *issue
	out.StudentIDs = append([]int(nil), issue.StudentIDs...)
	if issue.ReturnDate != nil {
		t := *issue.ReturnDate
		out.ReturnDate = &t
	}
	return out
}
