package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExpenseItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	RequestID   uuid.UUID `json:"request_id" db:"request_id"`
	Category    string    `json:"category" db:"category"`
	Amount      float64   `json:"amount" db:"amount"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Receipts []Receipt `json:"receipts,omitempty" db:"-"`
}

type ExpenseItemInput struct {
	Category    string  `json:"category" validate:"required,oneof=transport accommodation meals fuel communication other"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

const (
	CategoryTransport     = "transport"
	CategoryAccommodation = "accommodation"
	CategoryMeals         = "meals"
	CategoryFuel          = "fuel"
	CategoryCommunication = "communication"
	CategoryOther         = "other"
)

func IsValidExpenseCategory(category string) bool {
	switch category {
	case CategoryTransport, CategoryAccommodation, CategoryMeals, CategoryFuel, CategoryCommunication, CategoryOther:
		return true
	}
	return false
}

type Receipt struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ExpenseItemID uuid.UUID `json:"expense_item_id" db:"expense_item_id"`
	UploadedBy    uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	FileName      string    `json:"file_name" db:"file_name"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	MimeType      string    `json:"mime_type" db:"mime_type"`
	StoragePath   string    `json:"-" db:"storage_path"`
	URL           string    `json:"url" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
