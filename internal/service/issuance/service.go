package issuance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hasinichitrada/LIBSHARE/config"
	"github.com/hasinichitrada/LIBSHARE/internal/model"
	"github.com/hasinichitrada/LIBSHARE/internal/repository"
)

type Service struct {
	log  *zap.Logger
	repo repository.Repository
	cfg  config.Lending
}

func NewService(repo repository.Repository, cfg config.Lending, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
		cfg:  cfg,
	}
}

func (s *Service) Issue(ctx context.Context, requestUid string) (model.Issue, error) {
	period := time.Duration(s.cfg.BorrowDays) * 24 * time.Hour
	return s.repo.IssueRequest(ctx, requestUid, period)
}

// Return closes an active issue and reports the fine owed at the moment
// of return. Collecting the fine is the librarian's business; nothing is
// persisted about it.
func (s *Service) Return(ctx context.Context, issueUid string) (model.ReturnResponse, error) {
	issue, err := s.repo.ReturnIssue(ctx, issueUid)
	if err != nil {
		return model.ReturnResponse{}, err
	}
	return model.ReturnResponse{
		Issue: issue,
		Fine:  overdueDays(issue.DueDate, *issue.ReturnDate) * s.cfg.FinePerDay,
	}, nil
}

func (s *Service) ActiveIssues(ctx context.Context, studentID int) ([]model.IssueView, error) {
	issues, err := s.repo.ActiveIssues(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.withFines(issues), nil
}

func (s *Service) ListIssues(ctx context.Context) ([]model.IssueView, error) {
	issues, err := s.repo.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	return s.withFines(issues), nil
}

func (s *Service) Fine(issue model.Issue, now time.Time) int {
	return CalculateFine(issue, now, s.cfg.FinePerDay)
}

func (s *Service) withFines(issues []model.Issue) []model.IssueView {
	now := time.Now()
	views := make([]model.IssueView, 0, len(issues))
	for _, issue := range issues {
		views = append(views, model.IssueView{
			Issue: issue,
			Fine:  CalculateFine(issue, now, s.cfg.FinePerDay),
		})
	}
	return views
}

// CalculateFine is the fine accrued by an issue as of now: zero once the
// book is back or while the due date has not passed, otherwise finePerDay
// per started day overdue.
func CalculateFine(issue model.Issue, now time.Time, finePerDay int) int {
	if issue.Status == model.IssueStatusReturned {
		return 0
	}
	return overdueDays(issue.DueDate, now) * finePerDay
}

func overdueDays(dueDate, at time.Time) int {
	if !at.After(dueDate) {
		return 0
	}
	const day = 24 * time.Hour
	late := at.Sub(dueDate)
	days := int(late / day)
	if late%day != 0 {
		days++
	}
	return days
}
