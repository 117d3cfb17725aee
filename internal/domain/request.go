package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Request struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	EmployeeID       uuid.UUID       `json:"employee_id" db:"employee_id"`
	ApproverID       *uuid.UUID      `json:"approver_id,omitempty" db:"approver_id"`
	RequestType      RequestType     `json:"request_type" db:"request_type"`
	Project          *string         `json:"project,omitempty" db:"project"`
	Details          json.RawMessage `json:"details" db:"details"`
	Status           RequestStatus   `json:"status" db:"status"`
	ApproverComments *string         `json:"approver_comments,omitempty" db:"approver_comments"`
	CheckerComments  *string         `json:"checker_comments,omitempty" db:"checker_comments"`
	FinanceComments  *string         `json:"finance_comments,omitempty" db:"finance_comments"`
	TotalAmount      float64         `json:"total_amount" db:"total_amount"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`

	Employee     *User         `json:"employee,omitempty" db:"-"`
	ExpenseItems []ExpenseItem `json:"expense_items,omitempty" db:"-"`
}

type RequestType string

const (
	RequestNormal    RequestType = "normal"
	RequestAdvance   RequestType = "advance"
	RequestEmergency RequestType = "emergency"
	RequestInValley  RequestType = "in-valley"
	RequestGroup     RequestType = "group"
)

func (t RequestType) IsValid() bool {
	switch t {
	case RequestNormal, RequestAdvance, RequestEmergency, RequestInValley, RequestGroup:
		return true
	}
	return false
}

// Flow is the approval shape a request follows.
type Flow string

const (
	FlowAny         Flow = ""
	FlowSinglePhase Flow = "single_phase"
	FlowTwoPhase    Flow = "two_phase"
)

// Flow derives the approval shape from the request type: in-valley requests
// are approved in two phases, every other type in one.
func (t RequestType) Flow() Flow {
	if t == RequestInValley {
		return FlowTwoPhase
	}
	return FlowSinglePhase
}

type RequestStatus string

const (
	StatusPending             RequestStatus = "pending"
	StatusTravelApproved      RequestStatus = "travel_approved"
	StatusPendingVerification RequestStatus = "pending_verification"
	StatusApproved            RequestStatus = "approved"
	StatusRejected            RequestStatus = "rejected"
	StatusRejectedByChecker   RequestStatus = "rejected_by_checker"
)

var AllStatuses = []RequestStatus{
	StatusPending,
	StatusTravelApproved,
	StatusPendingVerification,
	StatusApproved,
	StatusRejected,
	StatusRejectedByChecker,
}

func (s RequestStatus) IsValid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusRejectedByChecker
}

type Decision string

const (
	DecisionApproved       Decision = "approved"
	DecisionRejected       Decision = "rejected"
	DecisionSubmitExpenses Decision = "submit_expenses"
)

type TravelDetails struct {
	Purpose       string    `json:"purpose" validate:"required,max=500"`
	Origin        string    `json:"origin" validate:"required,max=200"`
	Destination   string    `json:"destination" validate:"required,max=200"`
	DepartureDate time.Time `json:"departure_date" validate:"required"`
	ReturnDate    time.Time `json:"return_date" validate:"required,gtefield=DepartureDate"`
	TransportMode string    `json:"transport_mode,omitempty" validate:"omitempty,max=50"`
	Accommodation *string   `json:"accommodation,omitempty" validate:"omitempty,max=200"`
	AdvanceAmount *float64  `json:"advance_amount,omitempty" validate:"omitempty,gt=0"`
	Travellers    []string  `json:"travellers,omitempty" validate:"omitempty,dive,max=100"`
}

type InValleyDetails struct {
	Purpose       string    `json:"purpose" validate:"required,max=500"`
	Location      string    `json:"location" validate:"required,max=200"`
	TripDate      time.Time `json:"trip_date" validate:"required"`
	TransportMode string    `json:"transport_mode,omitempty" validate:"omitempty,max=50"`
}

type CreateRequestInput struct {
	RequestType RequestType        `json:"request_type" validate:"required,oneof=normal advance emergency in-valley group"`
	ApproverID  *uuid.UUID         `json:"approver_id,omitempty"`
	Project     *string            `json:"project,omitempty" validate:"omitempty,max=200"`
	Travel      *TravelDetails     `json:"travel,omitempty"`
	InValley    *InValleyDetails   `json:"in_valley,omitempty"`
	Expenses    []ExpenseItemInput `json:"expenses,omitempty" validate:"omitempty,dive"`
}

type TransitionInput struct {
	Decision Decision `json:"decision" validate:"required,oneof=approved rejected"`
	Role     UserRole `json:"role,omitempty"`
	Comments *string  `json:"comments,omitempty" validate:"omitempty,max=1000"`
}

type SubmitExpensesInput struct {
	Items []ExpenseItemInput `json:"items" validate:"dive"`
}

type FinanceCommentsInput struct {
	Comments string `json:"comments" validate:"required,max=1000"`
}

type RequestFilter struct {
	Status      *RequestStatus
	RequestType *RequestType
	EmployeeID  *uuid.UUID
	// ApproverID restricts to requests assigned to the approver or unassigned.
	ApproverID *uuid.UUID
}

// StatusUpdate is the set of workflow fields written by one transition.
type StatusUpdate struct {
	Status           RequestStatus
	ApproverComments *string
	CheckerComments  *string
}
