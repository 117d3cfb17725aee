package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"travel-expense/internal/domain"
)

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   domain.PaginationParams
		want domain.PaginationParams
	}{
		{"zero values", domain.PaginationParams{}, domain.PaginationParams{Page: 1, PageSize: 20}},
		{"negative page", domain.PaginationParams{Page: -3, PageSize: 5}, domain.PaginationParams{Page: 1, PageSize: 5}},
		{"clamped size", domain.PaginationParams{Page: 2, PageSize: 500}, domain.PaginationParams{Page: 2, PageSize: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Validate()
			assert.Equal(t, tt.want, p)
		})
	}

	p := domain.PaginationParams{Page: 3, PageSize: 10}
	assert.Equal(t, 20, p.Offset())
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := domain.NewPaginatedResponse[int](nil, 2, 10, 21)

	assert.NotNil(t, resp.Data)
	assert.Equal(t, 3, resp.TotalPages)
	assert.True(t, resp.HasNext)
	assert.True(t, resp.HasPrev)

	last := domain.NewPaginatedResponse([]int{1}, 3, 10, 21)
	assert.False(t, last.HasNext)

	empty := domain.NewPaginatedResponse([]int{}, 1, 0, 0)
	assert.Equal(t, 20, empty.PageSize)
	assert.Zero(t, empty.TotalPages)
	assert.False(t, empty.HasNext)
}

func TestRequestType_Flow(t *testing.T) {
	assert.Equal(t, domain.FlowTwoPhase, domain.RequestInValley.Flow())
	for _, rt := range []domain.RequestType{domain.RequestNormal, domain.RequestAdvance, domain.RequestEmergency, domain.RequestGroup} {
		assert.Equal(t, domain.FlowSinglePhase, rt.Flow(), rt)
		assert.True(t, rt.IsValid())
	}
	assert.False(t, domain.RequestType("overseas").IsValid())
}

func TestRequestStatus(t *testing.T) {
	terminal := map[domain.RequestStatus]bool{
		domain.StatusApproved:          true,
		domain.StatusRejected:          true,
		domain.StatusRejectedByChecker: true,
	}
	for _, s := range domain.AllStatuses {
		assert.True(t, s.IsValid(), s)
		assert.Equal(t, terminal[s], s.IsTerminal(), s)
	}
	assert.False(t, domain.RequestStatus("draft").IsValid())
}

func TestErrorHelpers(t *testing.T) {
	assert.ErrorIs(t, domain.NotFoundf("request %d", 7), domain.ErrNotFound)
	assert.EqualError(t, domain.NotFoundf("request %d", 7), "not found: request 7")

	assert.ErrorIs(t, domain.Validationf("bad %s", "amount"), domain.ErrValidation)

	err := domain.StoreError("load request", errors.New("dial tcp: refused"))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "load request")

	assert.ErrorIs(t, domain.ErrNoExpenses, domain.ErrInvalidTransition)
}
