package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"travel-expense/internal/domain"
	"travel-expense/internal/middleware"
	"travel-expense/internal/service"
)

type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Request      *RequestHandler
	Receipt      *ReceiptHandler
	Project      *ProjectHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
	Audit        *AuditHandler
}

func NewHandlers(services *service.Services, logger *zap.Logger) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(services.Auth),
		User:         NewUserHandler(services.User),
		Request:      NewRequestHandler(services.Request, services.Lifecycle, services.Receipt, services.Audit),
		Receipt:      NewReceiptHandler(services.Receipt),
		Project:      NewProjectHandler(services.Project),
		Notification: NewNotificationHandler(services.Notification),
		Dashboard:    NewDashboardHandler(services.Dashboard, logger),
		Audit:        NewAuditHandler(services.Audit, logger),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseBody decodes the JSON body into dst and runs its validate tags.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return middleware.UnprocessableEntity(strings.Join(fields, "; "))
		}
		return middleware.BadRequest(err.Error())
	}
	return nil
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.BadRequest(fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.DefaultPagination()

	if page := c.QueryInt("page", 1); page > 0 {
		params.Page = page
	}
	if pageSize := c.QueryInt("page_size", 20); pageSize > 0 {
		params.PageSize = pageSize
	}

	params.Validate()
	return params
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.RequestIDContextKey).(string)
	return id
}
