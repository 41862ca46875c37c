package request

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hasinichitrada/LIBSHARE/internal/errs"
	"github.com/hasinichitrada/LIBSHARE/internal/model"
	"github.com/hasinichitrada/LIBSHARE/internal/policy"
	"github.com/hasinichitrada/LIBSHARE/internal/repository"
)

type Service struct {
	log  *zap.Logger
	repo repository.Repository
}

func NewService(repo repository.Repository, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
	}
}

// CreateRequest opens a pending group-borrow request and notifies both
// named members. The triad and the one-book-per-subject policy are checked
// here, at initiation; stock is only consumed at issuance.
func (s *Service) CreateRequest(ctx context.Context, req model.CreateBorrowRequest) (model.BorrowRequest, error) {
	if len(req.MemberIDs) != 2 || !policy.ValidTriad(req.InitiatorID, req.MemberIDs[0], req.MemberIDs[1]) {
		return model.BorrowRequest{}, errors.Wrap(errs.ErrPolicyViolation,
			"a borrow group needs three distinct student ids")
	}
	book, err := s.repo.GetBook(ctx, req.BookUid)
	if err != nil {
		return model.BorrowRequest{}, err
	}
	issues, err := s.repo.ActiveIssues(ctx, req.InitiatorID)
	if err != nil {
		return model.BorrowRequest{}, err
	}
	if policy.HasActiveSubjectConflict(req.InitiatorID, book.Subject, issues) {
		return model.BorrowRequest{}, errors.Wrapf(errs.ErrPolicyViolation,
			"student %d already holds an active %s loan", req.InitiatorID, book.Subject)
	}
	return s.repo.CreateRequest(ctx, req)
}

func (s *Service) Approve(ctx context.Context, requestUid string, studentID int) (model.BorrowRequest, error) {
	return s.repo.ApproveRequest(ctx, requestUid, studentID)
}

func (s *Service) ListRequests(ctx context.Context, studentID int) ([]model.BorrowRequest, error) {
	return s.repo.ListRequests(ctx, studentID)
}

func (s *Service) ListApproved(ctx context.Context) ([]model.BorrowRequest, error) {
	return s.repo.ListApprovedRequests(ctx)
}

func (s *Service) ListNotifications(ctx context.Context, studentID int) ([]model.Notification, error) {
	return s.repo.ListNotifications(ctx, studentID)
}
