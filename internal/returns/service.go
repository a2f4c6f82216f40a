package returns

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/internal/orders"
	"github.com/fitlinehq/fitline-backend/pkg/config"
	"github.com/fitlinehq/fitline-backend/pkg/db"
	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/outbox"
	"github.com/fitlinehq/fitline-backend/pkg/outbox/payloads"
	"github.com/fitlinehq/fitline-backend/pkg/pagination"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

const receiptKindReturn = "return"

// ReturnInput files a return against a completed order. PickupDate is
// required for the pickup method, Carrier for dropoff.
type ReturnInput struct {
	UserID      uuid.UUID
	OrderID     uuid.UUID
	Reason      enums.ReturnReason
	Description string
	Method      enums.ReturnMethod
	PickupDate  *time.Time
	Carrier     *string
	Address     types.ShippingAddress
	Token       string
}

// ReturnPage is one cursor page of return requests.
type ReturnPage struct {
	Requests   []models.ReturnRequest `json:"requests"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// ServiceParams groups dependencies for the returns service.
type ServiceParams struct {
	DB        *gorm.DB
	Repo      *Repository
	OrderRepo *orders.Repository
	Outbox    *outbox.Service
	Logger    *logger.Logger
	Config    config.ReturnsConfig
}

// Service files and lists return requests. Settlement is external;
// requests stay pending here.
type Service interface {
	Request(ctx context.Context, input ReturnInput) ([]models.ReturnRequest, error)
	CancelRequest(ctx context.Context, userID, requestID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (ReturnPage, error)
}

type service struct {
	db        *gorm.DB
	repo      *Repository
	orderRepo *orders.Repository
	outbox    *outbox.Service
	logg      *logger.Logger
	cfg       config.ReturnsConfig
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db is required")
	}
	if params.Repo == nil || params.OrderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repositories are required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.Config.MinDescriptionLen <= 0 || params.Config.PickupWindowDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "returns config is incomplete")
	}
	return &service{
		db:        params.DB,
		repo:      params.Repo,
		orderRepo: params.OrderRepo,
		outbox:    params.Outbox,
		logg:      params.Logger,
		cfg:       params.Config,
		now:       time.Now,
	}, nil
}

// Request files one pending return per line of a completed order. The
// completed projection is consumed in the same transaction, so an
// order cannot be returned twice.
func (s *service) Request(ctx context.Context, input ReturnInput) ([]models.ReturnRequest, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	if receipt, err := s.orderRepo.FindReceipt(ctx, input.Token); err == nil {
		if receipt.UserID != input.UserID || receipt.Kind != receiptKindReturn {
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "token was already used for a different request")
		}
		return s.requestsForOrder(ctx, input.UserID, input.OrderID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up transition receipt")
	}

	now := s.now().UTC()
	var created []models.ReturnRequest
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		completed, err := orderRepo.FindCompleted(ctx, input.UserID, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "completed order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed order")
		}

		repo := s.repo.WithTx(tx)
		for _, line := range completed.Items {
			refund := decimal.NewFromInt(int64(line.UnitPriceCents)).
				Mul(decimal.NewFromInt(int64(line.Qty)))
			request := models.ReturnRequest{
				UserID:      input.UserID,
				OrderID:     completed.OrderID,
				OrderNumber: completed.OrderNumber,
				Line:        line,
				Reason:      input.Reason,
				Description: strings.TrimSpace(input.Description),
				Method:      input.Method,
				PickupDate:  input.PickupDate,
				Carrier:     input.Carrier,
				Address:     input.Address,
				RefundCents: int(refund.IntPart()),
				Status:      enums.ReturnStatusPending,
			}
			if err := repo.Create(ctx, &request); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return request")
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventReturnRequested,
				AggregateType: enums.AggregateReturnRequest,
				AggregateID:   request.ID,
				Actor:         &outbox.ActorRef{UserID: input.UserID},
				Data: payloads.ReturnRequestedEvent{
					ReturnID:    request.ID,
					OrderID:     completed.OrderID,
					OrderNumber: completed.OrderNumber,
					UserID:      input.UserID,
					Reason:      input.Reason,
					Method:      input.Method,
					RefundCents: refund.IntPart(),
					RequestedAt: now,
				},
				OccurredAt: now,
			}); err != nil {
				return err
			}
			created = append(created, request)
		}

		if err := orderRepo.DeleteCompleted(ctx, completed.OrderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume completed projection")
		}
		return orderRepo.InsertReceipt(ctx, &models.TransitionReceipt{
			Token:        input.Token,
			Kind:         receiptKindReturn,
			UserID:       input.UserID,
			OrderNumbers: []string{completed.OrderNumber},
		})
	})
	if txErr != nil {
		if db.IsUniqueViolation(txErr, "ux_transition_receipts_token") {
			return s.requestsForOrder(ctx, input.UserID, input.OrderID)
		}
		return nil, txErr
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":      input.UserID.String(),
		"order_id":     input.OrderID.String(),
		"return_count": len(created),
	}), "return requests filed")
	return created, nil
}

// CancelRequest withdraws a pending request. Stock is not restored:
// the goods never re-entered the warehouse, so the sold units stay
// sold.
func (s *service) CancelRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	if userID == uuid.Nil || requestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and request id are required")
	}
	err := s.repo.DeletePending(ctx, userID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "pending return request not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete return request")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (ReturnPage, error) {
	if userID == uuid.Nil {
		return ReturnPage{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return ReturnPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var after *time.Time
	var afterID *uuid.UUID
	if cursor != nil {
		after, afterID = &cursor.CreatedAt, &cursor.ID
	}

	rows, err := s.repo.List(ctx, userID, pagination.LimitWithBuffer(params.Limit), after, afterID)
	if err != nil {
		return ReturnPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list return requests")
	}
	visible, next := pagination.Page(rows, params.Limit, func(row models.ReturnRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return ReturnPage{Requests: visible, NextCursor: next}, nil
}

func (s *service) validate(input ReturnInput) error {
	if input.UserID == uuid.Nil || input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	if input.Token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency token is required")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown return reason")
	}
	if len(strings.TrimSpace(input.Description)) < s.cfg.MinDescriptionLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is too short").
			WithDetails(map[string]any{"min_length": s.cfg.MinDescriptionLen})
	}
	switch input.Method {
	case enums.ReturnMethodPickup:
		if input.PickupDate == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "pickup date is required for pickup returns")
		}
		today := s.now().UTC().Truncate(24 * time.Hour)
		pickup := input.PickupDate.UTC().Truncate(24 * time.Hour)
		latest := today.AddDate(0, 0, s.cfg.PickupWindowDays)
		if pickup.Before(today) || pickup.After(latest) {
			return pkgerrors.New(pkgerrors.CodeValidation, "pickup date is outside the allowed window").
				WithDetails(map[string]any{"window_days": s.cfg.PickupWindowDays})
		}
	case enums.ReturnMethodDropoff:
		if input.Carrier == nil || strings.TrimSpace(*input.Carrier) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "carrier is required for dropoff returns")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown return method")
	}
	if err := input.Address.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return address")
	}
	return nil
}

func (s *service) requestsForOrder(ctx context.Context, userID, orderID uuid.UUID) ([]models.ReturnRequest, error) {
	var rows []models.ReturnRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND order_id = ?", userID, orderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return requests")
	}
	return rows, nil
}
