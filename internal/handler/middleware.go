package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Identity is claimed, not verified: whoever the caller says they are is
// accepted as-is. Only the shape of the claim is checked.
const (
	XUserName  = "X-User-Name"
	XStudentID = "X-Student-Id"
	XUserRole  = "X-User-Role"

	RoleLibrarian = "LIBRARIAN"

	userNameKey  = "userNameKey"
	studentIDKey = "studentIDKey"
)

func studentAuthMW(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		userName := req.Header.Get(XUserName)
		if userName == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "user-name is empty")
		}
		studentID, err := strconv.Atoi(req.Header.Get(XStudentID))
		if err != nil || studentID <= 0 {
			return echo.NewHTTPError(http.StatusUnauthorized, "student-id must be a positive number")
		}
		c.Set(userNameKey, userName)
		c.Set(studentIDKey, studentID)
		return next(c)
	}
}

func librarianAuthMW(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		userName := req.Header.Get(XUserName)
		if userName == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "user-name is empty")
		}
		if req.Header.Get(XUserRole) != RoleLibrarian {
			return echo.NewHTTPError(http.StatusForbidden, "librarian role required")
		}
		c.Set(userNameKey, userName)
		return next(c)
	}
}

func extractUserName(c echo.Context) (string, error) {
	userName, ok := c.Get(userNameKey).(string)
	if !ok {
		return "", errors.New("invalid userNameKey")
	}
	return userName, nil
}

func extractStudentID(c echo.Context) (int, error) {
	studentID, ok := c.Get(studentIDKey).(int)
	if !ok {
		return 0, errors.New("invalid studentIDKey")
	}
	return studentID, nil
}
