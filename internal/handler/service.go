package handler

import (
	"context"

	"github.com/hasinichitrada/LIBSHARE/internal/model"
	"github.com/hasinichitrada/LIBSHARE/internal/service/catalog"
	"github.com/hasinichitrada/LIBSHARE/internal/service/issuance"
	"github.com/hasinichitrada/LIBSHARE/internal/service/request"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CatalogService interface {
	ListBooks(ctx context.Context, filter string) ([]model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
}

type RequestService interface {
	CreateRequest(ctx context.Context, req model.CreateBorrowRequest) (model.BorrowRequest, error)
	Approve(ctx context.Context, requestUid string, studentID int) (model.BorrowRequest, error)
	ListRequests(ctx context.Context, studentID int) ([]model.BorrowRequest, error)
	ListApproved(ctx context.Context) ([]model.BorrowRequest, error)
	ListNotifications(ctx context.Context, studentID int) ([]model.Notification, error)
}

type IssuanceService interface {
	Issue(ctx context.Context, requestUid string) (model.Issue, error)
	Return(ctx context.Context, issueUid string) (model.ReturnResponse, error)
	ActiveIssues(ctx context.Context, studentID int) ([]model.IssueView, error)
	ListIssues(ctx context.Context) ([]model.IssueView, error)
}

var (
	_ CatalogService  = (*catalog.Service)(nil)
	_ RequestService  = (*request.Service)(nil)
	_ IssuanceService = (*issuance.Service)(nil)
)
