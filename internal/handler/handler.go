package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hasinichitrada/LIBSHARE/internal/errs"
	"github.com/hasinichitrada/LIBSHARE/internal/model"
	"github.com/hasinichitrada/LIBSHARE/pkg/kafka"
	md "github.com/hasinichitrada/LIBSHARE/pkg/middleware"
	"github.com/hasinichitrada/LIBSHARE/pkg/validate"
)

type Handler struct {
	catalogSvc  CatalogService
	requestSvc  RequestService
	issuanceSvc IssuanceService
	statsLog    StatsLog
	log         *zap.Logger
}

func New(catalogSvc CatalogService, requestSvc RequestService, issuanceSvc IssuanceService, statsLog StatsLog, log *zap.Logger) *Handler {
	h := &Handler{
		catalogSvc:  catalogSvc,
		requestSvc:  requestSvc,
		issuanceSvc: issuanceSvc,
		statsLog:    statsLog,
		log:         log,
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/books", h.GetBooks)
	api.GET("/books/:bookUid", h.GetBook)

	student := api.Group("", studentAuthMW)
	student.POST("/requests", h.CreateRequest)
	student.GET("/requests", h.GetRequests)
	student.POST("/requests/:requestUid/approve", h.ApproveRequest)
	student.GET("/notifications", h.GetNotifications)
	student.GET("/issues", h.GetMyIssues)

	librarian := api.Group("/librarian", librarianAuthMW)
	librarian.GET("/requests", h.GetApprovedRequests)
	librarian.GET("/issues", h.GetIssues)
	librarian.GET("/stats", h.GetStats)
	librarian.POST("/requests/:requestUid/issue", h.IssueBook)
	librarian.POST("/issues/:issueUid/return", h.ReturnBook)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) GetBooks(c echo.Context) error {
	ctx := c.Request().Context()

	books, err := h.catalogSvc.ListBooks(ctx, c.QueryParam("filter"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookUid := c.Param("bookUid")
	book, err := h.catalogSvc.GetBook(c.Request().Context(), bookUid)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var req model.CreateBorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userName, err := extractUserName(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	studentID, err := extractStudentID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	req.InitiatorID = studentID
	req.InitiatorName = userName

	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	resp, err := h.requestSvc.CreateRequest(ctx, req)
	if err != nil {
		if errors.Is(err, errs.ErrPolicyViolation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.statsLog.Log(kafka.EventLending{
		Action:     kafka.ActionRequestCreated,
		RequestUid: resp.RequestUid,
		BookUid:    resp.BookUid,
		StudentIDs: append([]int{resp.InitiatorID}, resp.MemberIDs...),
		Timestamp:  time.Now(),
	}); err != nil {
		h.log.Warn("statsLog", zap.Error(err))
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetRequests(c echo.Context) error {
	studentID, err := extractStudentID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	reqs, err := h.requestSvc.ListRequests(c.Request().Context(), studentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, reqs)
}

func (h *Handler) ApproveRequest(c echo.Context) error {
	requestUid := c.Param("requestUid")
	if requestUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "requestUid is empty")
	}
	studentID, err := extractStudentID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	resp, err := h.requestSvc.Approve(c.Request().Context(), requestUid, studentID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, errs.ErrNotAMember) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		if errors.Is(err, errs.ErrInvalidState) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if resp.Status == model.RequestStatusApproved {
		if err := h.statsLog.Log(kafka.EventLending{
			Action:     kafka.ActionRequestApproved,
			RequestUid: resp.RequestUid,
			BookUid:    resp.BookUid,
			Timestamp:  time.Now(),
		}); err != nil {
			h.log.Warn("statsLog", zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetNotifications(c echo.Context) error {
	studentID, err := extractStudentID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	notifs, err := h.requestSvc.ListNotifications(c.Request().Context(), studentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, notifs)
}

func (h *Handler) GetMyIssues(c echo.Context) error {
	studentID, err := extractStudentID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	issues, err := h.issuanceSvc.ActiveIssues(c.Request().Context(), studentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, issues)
}

func (h *Handler) GetApprovedRequests(c echo.Context) error {
	reqs, err := h.requestSvc.ListApproved(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, reqs)
}

func (h *Handler) GetIssues(c echo.Context) error {
	issues, err := h.issuanceSvc.ListIssues(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, issues)
}

func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		books  []model.Book
		issues []model.IssueView
		queue  []model.BorrowRequest
	)
	gg, ctxCancel := errgroup.WithContext(ctx)
	gg.Go(func() error {
		var err error
		books, err = h.catalogSvc.ListBooks(ctxCancel, "")
		return err
	})
	gg.Go(func() error {
		var err error
		issues, err = h.issuanceSvc.ListIssues(ctxCancel)
		return err
	})
	gg.Go(func() error {
		var err error
		queue, err = h.requestSvc.ListApproved(ctxCancel)
		return err
	})
	if err := gg.Wait(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	stats := model.LibrarianStats{
		Titles:       len(books),
		PendingQueue: len(queue),
	}
	for _, b := range books {
		stats.CopiesOut += b.TotalCopies - b.AvailableCopies
	}
	for _, issue := range issues {
		if issue.Status != model.IssueStatusActive {
			continue
		}
		stats.ActiveIssues++
		if issue.Fine > 0 {
			stats.OverdueIssues++
		}
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) IssueBook(c echo.Context) error {
	requestUid := c.Param("requestUid")
	if requestUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "requestUid is empty")
	}

	issue, err := h.issuanceSvc.Issue(c.Request().Context(), requestUid)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, errs.ErrInvalidState) || errors.Is(err, errs.ErrOutOfStock) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		if errors.Is(err, errs.ErrPolicyViolation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.statsLog.Log(kafka.EventLending{
		Action:     kafka.ActionBookIssued,
		IssueUid:   issue.IssueUid,
		RequestUid: requestUid,
		BookUid:    issue.BookUid,
		StudentIDs: issue.StudentIDs,
		Timestamp:  time.Now(),
	}); err != nil {
		h.log.Warn("statsLog", zap.Error(err))
	}

	return c.JSON(http.StatusOK, issue)
}

func (h *Handler) ReturnBook(c echo.Context) error {
	issueUid := c.Param("issueUid")
	if issueUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "issueUid is empty")
	}

	resp, err := h.issuanceSvc.Return(c.Request().Context(), issueUid)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, errs.ErrInvalidState) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.statsLog.Log(kafka.EventLending{
		Action:     kafka.ActionBookReturned,
		IssueUid:   resp.Issue.IssueUid,
		BookUid:    resp.Issue.BookUid,
		StudentIDs: resp.Issue.StudentIDs,
		Fine:       resp.Fine,
		Timestamp:  time.Now(),
	}); err != nil {
		h.log.Warn("statsLog", zap.Error(err))
	}

	return c.JSON(http.StatusOK, resp)
}
