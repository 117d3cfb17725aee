package repository

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert or update hits a unique index.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

func translateUnique(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Project      ProjectRepository
	Budget       BudgetRepository
	Request      RequestRepository
	Expense      ExpenseRepository
	Receipt      ReceiptRepository
	Notification NotificationRepository
	AuditLog     AuditLogRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Project:      NewProjectRepository(db),
		Budget:       NewBudgetRepository(db),
		Request:      NewRequestRepository(db),
		Expense:      NewExpenseRepository(db),
		Receipt:      NewReceiptRepository(db),
		Notification: NewNotificationRepository(db),
		AuditLog:     NewAuditLogRepository(db),
	}
}
