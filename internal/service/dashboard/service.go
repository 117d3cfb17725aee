package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"travel-expense/internal/domain"
	"travel-expense/internal/repository"
)

const statsCacheKey = "dashboard:stats"

// StatsCacheTTL is how long a computed snapshot is served from Redis.
const StatsCacheTTL = 5 * time.Minute

type Stats struct {
	TotalRequests       int64                          `json:"total_requests"`
	ByStatus            map[domain.RequestStatus]int64 `json:"by_status"`
	AwaitingDecision    int64                          `json:"awaiting_decision"`
	ApprovedAmount      float64                        `json:"approved_amount"`
	PendingVerification float64                        `json:"pending_verification_amount"`
	TotalBudget         float64                        `json:"total_budget"`
	BudgetUtilization   float64                        `json:"budget_utilization"`
	GeneratedAt         time.Time                      `json:"generated_at"`
}

type Service interface {
	GetStats(ctx context.Context) (*Stats, error)
	// Refresh recomputes the snapshot from the store and replaces the cached copy.
	Refresh(ctx context.Context) (*Stats, error)
}

type service struct {
	requestRepo repository.RequestRepository
	budgetRepo  repository.BudgetRepository
	redis       *redis.Client
}

func NewService(requestRepo repository.RequestRepository, budgetRepo repository.BudgetRepository, redis *redis.Client) Service {
	return &service{
		requestRepo: requestRepo,
		budgetRepo:  budgetRepo,
		redis:       redis,
	}
}

func (s *service) GetStats(ctx context.Context) (*Stats, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats Stats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}
	return s.Refresh(ctx)
}

func (s *service) Refresh(ctx context.Context) (*Stats, error) {
	counts, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, domain.StoreError("count requests", err)
	}

	approved, err := s.requestRepo.SumByStatus(ctx, domain.StatusApproved)
	if err != nil {
		return nil, domain.StoreError("sum approved requests", err)
	}

	pending, err := s.requestRepo.SumByStatus(ctx, domain.StatusPendingVerification)
	if err != nil {
		return nil, domain.StoreError("sum requests pending verification", err)
	}

	budget, err := s.budgetRepo.Total(ctx)
	if err != nil {
		return nil, domain.StoreError("sum budgets", err)
	}

	stats := &Stats{
		ByStatus:            make(map[domain.RequestStatus]int64, len(domain.AllStatuses)),
		ApprovedAmount:      approved,
		PendingVerification: pending,
		TotalBudget:         budget,
		GeneratedAt:         time.Now().UTC(),
	}
	for _, status := range domain.AllStatuses {
		n := counts[status]
		stats.ByStatus[status] = n
		stats.TotalRequests += n
		if !status.IsTerminal() {
			stats.AwaitingDecision += n
		}
	}
	if budget > 0 {
		stats.BudgetUtilization = approved / budget * 100
	}

	if s.redis != nil {
		if statsJSON, err := json.Marshal(stats); err == nil {
			_ = s.redis.Set(ctx, statsCacheKey, statsJSON, StatsCacheTTL).Err()
		}
	}

	return stats, nil
}
