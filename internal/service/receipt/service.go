package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"travel-expense/internal/config"
	"travel-expense/internal/domain"
	"travel-expense/internal/repository"
	"travel-expense/internal/service/request"
)

var errStorageDisabled = errors.New("object storage not configured")

var allowedMimeTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ObjectStore is the subset of *minio.Client the service writes through.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type UploadInput struct {
	ExpenseItemID uuid.UUID
	FileName      string
	FileSize      int64
	MimeType      string
	Reader        io.Reader
}

type Service interface {
	Upload(ctx context.Context, actor domain.Actor, input UploadInput) (*domain.Receipt, error)
	ListByExpense(ctx context.Context, actor domain.Actor, expenseItemID uuid.UUID) ([]domain.Receipt, error)
	// ListRequestExpenses returns the request's expense items with their receipts attached.
	ListRequestExpenses(ctx context.Context, actor domain.Actor, requestID uuid.UUID) ([]domain.ExpenseItem, error)
}

type service struct {
	receiptRepo repository.ReceiptRepository
	expenseRepo repository.ExpenseRepository
	requestRepo repository.RequestRepository
	store       ObjectStore
	cfg         *config.Config
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(
	receiptRepo repository.ReceiptRepository,
	expenseRepo repository.ExpenseRepository,
	requestRepo repository.RequestRepository,
	store ObjectStore,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		receiptRepo: receiptRepo,
		expenseRepo: expenseRepo,
		requestRepo: requestRepo,
		store:       store,
		cfg:         cfg,
		logger:      logger.Named("receipt"),
		now:         time.Now,
	}
}

func (s *service) Upload(ctx context.Context, actor domain.Actor, input UploadInput) (*domain.Receipt, error) {
	if input.FileSize <= 0 {
		return nil, domain.Validationf("receipt file is empty")
	}
	if input.FileSize > s.cfg.ReceiptMaxSize {
		return nil, domain.Validationf("receipt exceeds %d bytes", s.cfg.ReceiptMaxSize)
	}
	mimeType := strings.ToLower(strings.TrimSpace(strings.Split(input.MimeType, ";")[0]))
	ext, ok := allowedMimeTypes[mimeType]
	if !ok {
		return nil, domain.Validationf("unsupported receipt type %q", input.MimeType)
	}

	expense, req, err := s.loadExpense(ctx, input.ExpenseItemID)
	if err != nil {
		return nil, err
	}
	if req.EmployeeID != actor.UserID {
		return nil, fmt.Errorf("%w: only the requesting employee may attach receipts", domain.ErrUnauthorized)
	}
	if req.Status.IsTerminal() {
		return nil, domain.Validationf("request %s is closed", req.ID)
	}

	if s.store == nil {
		return nil, domain.StoreError("upload receipt", errStorageDisabled)
	}

	receiptID := uuid.New()
	storagePath := fmt.Sprintf("%s%s/%s%s", config.ReceiptPrefix, s.now().Format("2006/01"), receiptID.String(), ext)

	_, err = s.store.PutObject(ctx, s.cfg.MinIOBucket, storagePath, input.Reader, input.FileSize, minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return nil, domain.StoreError("upload receipt", err)
	}

	receipt := &domain.Receipt{
		ID:            receiptID,
		ExpenseItemID: expense.ID,
		UploadedBy:    actor.UserID,
		FileName:      path.Base(input.FileName),
		FileSize:      input.FileSize,
		MimeType:      mimeType,
		StoragePath:   storagePath,
	}

	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		if rmErr := s.store.RemoveObject(ctx, s.cfg.MinIOBucket, storagePath, minio.RemoveObjectOptions{}); rmErr != nil {
			s.logger.Warn("failed to remove orphaned receipt object", zap.String("path", storagePath), zap.Error(rmErr))
		}
		return nil, domain.StoreError("create receipt", err)
	}

	s.logger.Info("receipt uploaded",
		zap.String("receipt_id", receiptID.String()),
		zap.String("expense_item_id", expense.ID.String()),
		zap.Int64("size", input.FileSize),
	)

	receipt.URL = s.publicURL(storagePath)
	return receipt, nil
}

func (s *service) ListByExpense(ctx context.Context, actor domain.Actor, expenseItemID uuid.UUID) ([]domain.Receipt, error) {
	_, req, err := s.loadExpense(ctx, expenseItemID)
	if err != nil {
		return nil, err
	}
	if !request.CanRead(actor, req) {
		return nil, domain.ErrUnauthorized
	}

	receipts, err := s.receiptRepo.ListByExpense(ctx, expenseItemID)
	if err != nil {
		return nil, domain.StoreError("list receipts", err)
	}
	for i := range receipts {
		receipts[i].URL = s.publicURL(receipts[i].StoragePath)
	}
	return receipts, nil
}

func (s *service) ListRequestExpenses(ctx context.Context, actor domain.Actor, requestID uuid.UUID) ([]domain.ExpenseItem, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, domain.StoreError("get request", err)
	}
	if req == nil {
		return nil, domain.NotFoundf("request %s", requestID)
	}
	if !request.CanRead(actor, req) {
		return nil, domain.ErrUnauthorized
	}

	items, err := s.expenseRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, domain.StoreError("list expense items", err)
	}
	receipts, err := s.receiptRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, domain.StoreError("list receipts", err)
	}

	byExpense := make(map[uuid.UUID][]domain.Receipt, len(items))
	for _, rc := range receipts {
		rc.URL = s.publicURL(rc.StoragePath)
		byExpense[rc.ExpenseItemID] = append(byExpense[rc.ExpenseItemID], rc)
	}
	for i := range items {
		items[i].Receipts = byExpense[items[i].ID]
	}
	return items, nil
}

func (s *service) loadExpense(ctx context.Context, expenseItemID uuid.UUID) (*domain.ExpenseItem, *domain.Request, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseItemID)
	if err != nil {
		return nil, nil, domain.StoreError("get expense item", err)
	}
	if expense == nil {
		return nil, nil, domain.NotFoundf("expense item %s", expenseItemID)
	}

	req, err := s.requestRepo.GetByID(ctx, expense.RequestID)
	if err != nil {
		return nil, nil, domain.StoreError("get request", err)
	}
	if req == nil {
		return nil, nil, domain.NotFoundf("request %s", expense.RequestID)
	}
	return expense, req, nil
}

func (s *service) publicURL(storagePath string) string {
	scheme := "http"
	if s.cfg.MinIOPublicUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.MinIOPublicEndpoint, s.cfg.MinIOBucket, url.PathEscape(storagePath))
}
