package model

import (
	"encoding/json"
	"sort"
	"time"
)

type Book struct {
	BookUid         string `json:"bookUid"`
	Title           string `json:"title"`
	Subject         string `json:"subject"`
	Author          string `json:"author"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusIssued   RequestStatus = "ISSUED"
)

// StudentSet is a set of student ids. Membership is what matters:
// adding an id twice leaves the set unchanged.
type StudentSet map[int]struct{}

func NewStudentSet(ids ...int) StudentSet {
	s := make(StudentSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s StudentSet) Add(id int) {
	s[id] = struct{}{}
}

func (s StudentSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s StudentSet) Clone() StudentSet {
	c := make(StudentSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// MarshalJSON renders the set as a sorted array of ids.
func (s StudentSet) MarshalJSON() ([]byte, error) {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return json.Marshal(ids)
}

func (s *StudentSet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewStudentSet(ids...)
	return nil
}

type BorrowRequest struct {
	RequestUid  string        `json:"requestUid"`
	BookUid     string        `json:"bookUid"`
	BookTitle   string        `json:"bookTitle"`
	InitiatorID int           `json:"initiatorId"`
	MemberIDs   []int         `json:"memberIds"`
	Approvals   StudentSet    `json:"approvals"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type CreateBorrowRequest struct {
	BookUid       string `json:"bookUid" validate:"required"`
	MemberIDs     []int  `json:"memberIds" validate:"required,len=2,dive,gt=0"`
	InitiatorID   int    `validate:"gt=0"`
	InitiatorName string `validate:"required"`
}

type NotificationType string

const (
	NotificationTypeRequest NotificationType = "REQUEST"
	NotificationTypeInfo    NotificationType = "INFO"
)

type Notification struct {
	NotificationUid string           `json:"notificationUid"`
	TargetID        int              `json:"targetId"`
	Message         string           `json:"message"`
	Type            NotificationType `json:"type"`
	RequestUid      string           `json:"requestUid,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

type IssueStatus string

const (
	IssueStatusActive   IssueStatus = "ACTIVE"
	IssueStatusReturned IssueStatus = "RETURNED"
)

type Issue struct {
	IssueUid   string      `json:"issueUid"`
	BookUid    string      `json:"bookUid"`
	BookTitle  string      `json:"bookTitle"`
	Subject    string      `json:"subject"`
	StudentIDs []int       `json:"studentIds"`
	IssueDate  time.Time   `json:"issueDate"`
	DueDate    time.Time   `json:"dueDate"`
	ReturnDate *time.Time  `json:"returnDate,omitempty"`
	Status     IssueStatus `json:"status"`
}

// IssueView decorates an Issue with the fine accrued up to the moment
// the view was built. Rendered in the student and librarian tables.
type IssueView struct {
	Issue `json:",inline"`
	Fine  int `json:"fine"`
}

// ReturnResponse carries the fine owed at the moment of return. The fine
// is computed, surfaced to the librarian and not persisted anywhere.
type ReturnResponse struct {
	Issue Issue `json:"issue"`
	Fine  int   `json:"fine"`
}

// LibrarianStats are the dashboard counters.
type LibrarianStats struct {
	Titles        int `json:"titles"`
	CopiesOut     int `json:"copiesOut"`
	ActiveIssues  int `json:"activeIssues"`
	OverdueIssues int `json:"overdueIssues"`
	PendingQueue  int `json:"pendingQueue"`
}
