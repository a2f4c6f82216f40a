package orders

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/internal/cart"
	"github.com/fitlinehq/fitline-backend/internal/inventory"
	"github.com/fitlinehq/fitline-backend/internal/products"
	"github.com/fitlinehq/fitline-backend/pkg/db"
	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/metrics"
	"github.com/fitlinehq/fitline-backend/pkg/outbox"
	"github.com/fitlinehq/fitline-backend/pkg/outbox/payloads"
	"github.com/fitlinehq/fitline-backend/pkg/pagination"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

const (
	receiptKindCheckout = "checkout"
	receiptKindCancel   = "cancel"
	receiptKindReceive  = "receive"
	receiptKindRepeat   = "repeat"
)

// ShippingResolver narrows the address service to the one call
// checkout needs.
type ShippingResolver interface {
	ResolveShipping(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (types.ShippingAddress, error)
}

// NumberSource issues order numbers.
type NumberSource interface {
	Next() (string, error)
}

// ServiceParams groups dependencies for the order lifecycle service.
type ServiceParams struct {
	DB               *gorm.DB
	OrderRepo        *Repository
	CartRepo         *cart.Repository
	ProductRepo      *products.Repository
	Shipping         ShippingResolver
	Outbox           *outbox.Service
	Numbers          NumberSource
	Metrics          *metrics.LifecycleMetrics
	Logger           *logger.Logger
	DeliveryFeeCents int
}

// Service drives orders through pending → to_ship → to_receive and
// into the terminal projections.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) ([]PlacedOrder, error)
	Advance(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) error
	Cancel(ctx context.Context, input CancelInput) (*OrderDTO, error)
	MarkReceived(ctx context.Context, input ReceiveInput) (*OrderDTO, error)
	BuyAgain(ctx context.Context, userID, orderID uuid.UUID) (RepeatDraft, error)
	Repeat(ctx context.Context, input RepeatInput) ([]PlacedOrder, error)
	ListByStatus(ctx context.Context, userID uuid.UUID, status enums.OrderStatus, params pagination.Params) (OrderPage, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	db          *gorm.DB
	repo        *Repository
	cartRepo    *cart.Repository
	productRepo *products.Repository
	shipping    ShippingResolver
	outbox      *outbox.Service
	numbers     NumberSource
	metrics     *metrics.LifecycleMetrics
	logg        *logger.Logger
	deliveryFee int
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db is required")
	}
	if params.OrderRepo == nil || params.CartRepo == nil || params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repositories are required")
	}
	if params.Shipping == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping resolver is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	if params.Numbers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number source is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.DeliveryFeeCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must not be negative")
	}
	m := params.Metrics
	if m == nil {
		m = metrics.NewLifecycleMetrics(nil)
	}
	return &service{
		db:          params.DB,
		repo:        params.OrderRepo,
		cartRepo:    params.CartRepo,
		productRepo: params.ProductRepo,
		shipping:    params.Shipping,
		outbox:      params.Outbox,
		numbers:     params.Numbers,
		metrics:     m,
		logg:        params.Logger,
		deliveryFee: params.DeliveryFeeCents,
	}, nil
}

// placementGroup is one (product, size) group about to become an order.
type placementGroup struct {
	productID uuid.UUID
	name      string
	imageURL  *string
	sizeLabel string
	qty       int
	unitCents int
}

// Checkout places one order per selected (product, size) cart group in
// a single transaction. Reservation, order rows, cart cleanup, the
// transition receipt and the outbox events commit or roll back
// together.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) ([]PlacedOrder, error) {
	start := time.Now()
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency token is required")
	}

	if placed, ok, err := s.replayPlacement(ctx, input.UserID, input.Token, receiptKindCheckout); err != nil {
		return nil, err
	} else if ok {
		return placed, nil
	}

	address, err := s.shipping.ResolveShipping(ctx, input.UserID, input.AddressID)
	if err != nil {
		return nil, err
	}

	var placed []PlacedOrder
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.cartRepo.WithTx(tx).ListSelected(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list selected cart lines")
		}
		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no cart items selected for checkout")
		}

		groups, err := s.groupCartRows(ctx, tx, rows)
		if err != nil {
			return err
		}

		placed, err = s.placeGroups(ctx, tx, input.UserID, address, groups)
		if err != nil {
			return err
		}

		itemIDs := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			itemIDs = append(itemIDs, row.ID)
		}
		if err := s.cartRepo.WithTx(tx).DeleteByIDs(ctx, input.UserID, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear checked out cart lines")
		}

		return s.insertReceipt(ctx, tx, input.UserID, input.Token, receiptKindCheckout, placed)
	})
	if txErr != nil {
		if db.IsUniqueViolation(txErr, "ux_transition_receipts_token") {
			// lost the race against a concurrent retry; serve its result
			placed, _, err := s.replayPlacement(ctx, input.UserID, input.Token, receiptKindCheckout)
			return placed, err
		}
		s.metrics.IncFailure("checkout")
		return nil, txErr
	}

	s.metrics.IncTransition("checkout")
	s.metrics.ObserveCheckout(time.Since(start))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":     input.UserID.String(),
		"order_count": len(placed),
	}), "checkout placed orders")
	return placed, nil
}

// Advance moves an order one step along the fulfillment path. The
// status change is a guarded UPDATE, so a stale caller loses cleanly.
func (s *service) Advance(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var from enums.OrderStatus
	var stampCol string
	switch to {
	case enums.OrderStatusToShip:
		from, stampCol = enums.OrderStatusPending, "packed_at"
	case enums.OrderStatusToReceive:
		from, stampCol = enums.OrderStatusToShip, "shipped_at"
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "unsupported status transition").
			WithDetails(map[string]any{"to": to.String()})
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.AdvanceStatus(ctx, orderID, from, to, stampCol, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in the expected state").
				WithDetails(map[string]any{"expected": from.String(), "to": to.String()})
		}
		if to != enums.OrderStatusToReceive {
			return nil
		}

		var order models.Order
		if err := tx.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipped order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderShipped,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderShippedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				ShippedAt:   now,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		s.metrics.IncFailure(to.String())
		return err
	}
	s.metrics.IncTransition(to.String())
	return nil
}

// Cancel moves a pre-shipment order into the cancelled projection,
// restores the reserved stock and deletes the live row, all in one
// transaction. The projection copy and the deletion are the atomic
// pair: an order is never visible in both tables.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*OrderDTO, error) {
	if input.UserID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	if input.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency token is required")
	}

	if _, err := s.repo.FindReceipt(ctx, input.Token); err == nil {
		return s.cancelledDTO(ctx, input.UserID, input.OrderID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up transition receipt")
	}

	now := time.Now().UTC()
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOwned(ctx, input.UserID, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.Status.Cancellable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		projection := models.CancelledOrder{
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			UserID:           order.UserID,
			ShippingAddress:  order.ShippingAddress,
			DeliveryFeeCents: order.DeliveryFeeCents,
			SubtotalCents:    order.SubtotalCents,
			TotalCents:       order.TotalCents,
			Items:            snapshotLines(order.Items),
			PlacedAt:         order.PlacedAt,
			CancelledAt:      now,
		}
		if err := repo.InsertCancelled(ctx, &projection); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cancelled projection")
		}
		if err := inventory.Release(ctx, tx, movements(order.Items)); err != nil {
			return err
		}
		if err := repo.Delete(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cancelled order")
		}
		if err := repo.InsertReceipt(ctx, &models.TransitionReceipt{
			Token:        input.Token,
			Kind:         receiptKindCancel,
			UserID:       input.UserID,
			OrderNumbers: []string{order.OrderNumber},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write transition receipt")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				CancelledAt: now,
			},
			OccurredAt: now,
		})
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			// already cancelled through another session?
			if dto, err := s.cancelledDTO(ctx, input.UserID, input.OrderID); err == nil {
				return dto, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, txErr, "order not found")
		}
		if db.IsUniqueViolation(txErr, "ux_transition_receipts_token") {
			return s.cancelledDTO(ctx, input.UserID, input.OrderID)
		}
		s.metrics.IncFailure("cancel")
		return nil, txErr
	}

	s.metrics.IncTransition("cancel")
	return s.cancelledDTO(ctx, input.UserID, input.OrderID)
}

// MarkReceived confirms delivery: the order is copied into the
// completed projection, reserved stock burns into sold count, and the
// live row goes away. A second confirm finds the projection and
// returns it without a second sold increment.
func (s *service) MarkReceived(ctx context.Context, input ReceiveInput) (*OrderDTO, error) {
	if input.UserID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	if input.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency token is required")
	}

	if _, err := s.repo.FindReceipt(ctx, input.Token); err == nil {
		return s.completedDTO(ctx, input.UserID, input.OrderID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up transition receipt")
	}

	now := time.Now().UTC()
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOwned(ctx, input.UserID, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusToReceive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has not shipped yet").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		projection := models.CompletedOrder{
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			UserID:           order.UserID,
			ShippingAddress:  order.ShippingAddress,
			DeliveryFeeCents: order.DeliveryFeeCents,
			SubtotalCents:    order.SubtotalCents,
			TotalCents:       order.TotalCents,
			Items:            snapshotLines(order.Items),
			PlacedAt:         order.PlacedAt,
			ReceivedAt:       now,
		}
		if err := repo.InsertCompleted(ctx, &projection); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write completed projection")
		}
		if err := inventory.CommitSold(ctx, tx, movements(order.Items)); err != nil {
			return err
		}
		if err := repo.Delete(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete completed order")
		}
		if err := repo.InsertReceipt(ctx, &models.TransitionReceipt{
			Token:        input.Token,
			Kind:         receiptKindReceive,
			UserID:       input.UserID,
			OrderNumbers: []string{order.OrderNumber},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write transition receipt")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.OrderCompletedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				ReceivedAt:  now,
			},
			OccurredAt: now,
		})
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			// double confirm: the live row is gone but the projection exists
			if dto, err := s.completedDTO(ctx, input.UserID, input.OrderID); err == nil {
				return dto, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, txErr, "order not found")
		}
		if db.IsUniqueViolation(txErr, "ux_transition_receipts_token") {
			return s.completedDTO(ctx, input.UserID, input.OrderID)
		}
		s.metrics.IncFailure("receive")
		return nil, txErr
	}

	s.metrics.IncTransition("receive")
	return s.completedDTO(ctx, input.UserID, input.OrderID)
}

// BuyAgain previews a re-purchase of a terminal order: the frozen
// lines annotated with today's price and stock, plus the current
// default address.
func (s *service) BuyAgain(ctx context.Context, userID, orderID uuid.UUID) (RepeatDraft, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return RepeatDraft{}, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}

	number, lines, err := s.terminalLines(ctx, userID, orderID)
	if err != nil {
		return RepeatDraft{}, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	byID, err := s.productRepo.FindManyByIDs(ctx, ids)
	if err != nil {
		return RepeatDraft{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current products")
	}

	draft := RepeatDraft{OrderID: orderID, OrderNumber: number}
	for _, line := range lines {
		repeat := RepeatLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			ImageURL:  line.ImageURL,
			SizeLabel: line.SizeLabel,
			Qty:       line.Qty,
			PaidUnit:  types.NewMoney(line.UnitPriceCents),
		}
		if product, ok := byID[line.ProductID]; ok {
			repeat.CurrentUnit = types.NewMoney(product.PriceCents)
			for _, size := range product.Sizes {
				if size.SizeLabel == line.SizeLabel {
					repeat.AvailableQty = size.AvailableQty
					repeat.InStock = size.AvailableQty >= line.Qty
					break
				}
			}
		}
		draft.Lines = append(draft.Lines, repeat)
	}

	if address, err := s.shipping.ResolveShipping(ctx, userID, nil); err == nil {
		draft.Address = address
	} else if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		return RepeatDraft{}, err
	}
	return draft, nil
}

// Repeat re-places a terminal order's lines as new orders at current
// prices, through the same all-or-nothing placement path as checkout.
func (s *service) Repeat(ctx context.Context, input RepeatInput) ([]PlacedOrder, error) {
	if input.UserID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	if input.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency token is required")
	}

	if placed, ok, err := s.replayPlacement(ctx, input.UserID, input.Token, receiptKindRepeat); err != nil {
		return nil, err
	} else if ok {
		return placed, nil
	}

	_, lines, err := s.terminalLines(ctx, input.UserID, input.OrderID)
	if err != nil {
		return nil, err
	}
	address, err := s.shipping.ResolveShipping(ctx, input.UserID, input.AddressID)
	if err != nil {
		return nil, err
	}

	var placed []PlacedOrder
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups, err := s.groupSnapshotLines(ctx, tx, lines)
		if err != nil {
			return err
		}
		placed, err = s.placeGroups(ctx, tx, input.UserID, address, groups)
		if err != nil {
			return err
		}
		return s.insertReceipt(ctx, tx, input.UserID, input.Token, receiptKindRepeat, placed)
	})
	if txErr != nil {
		if db.IsUniqueViolation(txErr, "ux_transition_receipts_token") {
			placed, _, err := s.replayPlacement(ctx, input.UserID, input.Token, receiptKindRepeat)
			return placed, err
		}
		s.metrics.IncFailure("repeat")
		return nil, txErr
	}
	s.metrics.IncTransition("repeat")
	return placed, nil
}

// ListByStatus pages one status. Active statuses read the live table;
// completed and cancelled read their projections.
func (s *service) ListByStatus(ctx context.Context, userID uuid.UUID, status enums.OrderStatus, params pagination.Params) (OrderPage, error) {
	if userID == uuid.Nil {
		return OrderPage{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !status.IsValid() {
		return OrderPage{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return OrderPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var after *time.Time
	var afterID *uuid.UUID
	if cursor != nil {
		after, afterID = &cursor.CreatedAt, &cursor.ID
	}
	limit := pagination.LimitWithBuffer(params.Limit)

	switch status {
	case enums.OrderStatusCancelled:
		rows, err := s.repo.ListCancelled(ctx, userID, limit, after, afterID)
		if err != nil {
			return OrderPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cancelled orders")
		}
		visible, next := pagination.Page(rows, params.Limit, func(row models.CancelledOrder) pagination.Cursor {
			return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
		})
		page := OrderPage{Orders: make([]OrderDTO, 0, len(visible)), NextCursor: next}
		for _, row := range visible {
			page.Orders = append(page.Orders, cancelledToDTO(row))
		}
		return page, nil
	case enums.OrderStatusCompleted:
		rows, err := s.repo.ListCompleted(ctx, userID, limit, after, afterID)
		if err != nil {
			return OrderPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list completed orders")
		}
		visible, next := pagination.Page(rows, params.Limit, func(row models.CompletedOrder) pagination.Cursor {
			return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
		})
		page := OrderPage{Orders: make([]OrderDTO, 0, len(visible)), NextCursor: next}
		for _, row := range visible {
			page.Orders = append(page.Orders, completedToDTO(row))
		}
		return page, nil
	default:
		rows, err := s.repo.ListByStatus(ctx, userID, status, limit, after, afterID)
		if err != nil {
			return OrderPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
		}
		visible, next := pagination.Page(rows, params.Limit, func(row models.Order) pagination.Cursor {
			return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
		})
		page := OrderPage{Orders: make([]OrderDTO, 0, len(visible)), NextCursor: next}
		for _, row := range visible {
			page.Orders = append(page.Orders, liveToDTO(row))
		}
		return page, nil
	}
}

// Get looks up one order across the live table and both projections.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}

	order, err := s.repo.FindOwned(ctx, userID, orderID)
	if err == nil {
		dto := liveToDTO(*order)
		return &dto, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if dto, err := s.completedDTO(ctx, userID, orderID); err == nil {
		return dto, nil
	}
	if dto, err := s.cancelledDTO(ctx, userID, orderID); err == nil {
		return dto, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

// placeGroups reserves stock and creates one order per group. Any
// reservation failure aborts the whole placement so a multi-item
// checkout never half-succeeds.
func (s *service) placeGroups(ctx context.Context, tx *gorm.DB, userID uuid.UUID, address types.ShippingAddress, groups []placementGroup) ([]PlacedOrder, error) {
	requests := make([]inventory.ReservationRequest, 0, len(groups))
	for _, group := range groups {
		requests = append(requests, inventory.ReservationRequest{
			ProductID: group.productID,
			SizeLabel: group.sizeLabel,
			Qty:       group.qty,
		})
	}
	results, err := inventory.Reserve(ctx, tx, requests)
	if err != nil {
		return nil, err
	}
	var failed []map[string]any
	for i, result := range results {
		if !result.Reserved {
			failed = append(failed, map[string]any{
				"product_id": result.ProductID,
				"name":       groups[i].name,
				"size":       result.SizeLabel,
				"reason":     result.Reason,
			})
		}
	}
	if len(failed) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "some items are no longer available").
			WithDetails(map[string]any{"items": failed})
	}

	now := time.Now().UTC()
	repo := s.repo.WithTx(tx)
	placed := make([]PlacedOrder, 0, len(groups))
	for _, group := range groups {
		number, err := s.numbers.Next()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		subtotal := group.qty * group.unitCents
		order := models.Order{
			OrderNumber:      number,
			UserID:           userID,
			Status:           enums.OrderStatusPending,
			ShippingAddress:  address,
			DeliveryFeeCents: s.deliveryFee,
			SubtotalCents:    subtotal,
			TotalCents:       subtotal + s.deliveryFee,
			PlacedAt:         now,
			Items: []models.OrderLineItem{{
				ProductID:      group.productID,
				Name:           group.name,
				ImageURL:       group.imageURL,
				SizeLabel:      group.sizeLabel,
				Qty:            group.qty,
				UnitPriceCents: group.unitCents,
				TotalCents:     subtotal,
			}},
		}
		if err := repo.Create(ctx, &order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderPlacedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      userID,
				TotalCents:  int64(order.TotalCents),
				ItemCount:   group.qty,
				PlacedAt:    now,
			},
			OccurredAt: now,
		}); err != nil {
			return nil, err
		}
		placed = append(placed, PlacedOrder{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Total:       types.NewMoney(order.TotalCents),
			ItemCount:   group.qty,
		})
	}
	return placed, nil
}

// groupCartRows merges selected cart rows by (product, size) and
// attaches the live product name and image. Prices stay as snapshotted
// on the cart row.
func (s *service) groupCartRows(ctx context.Context, tx *gorm.DB, rows []models.CartItem) ([]placementGroup, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	byID, err := s.productRepo.WithTx(tx).FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	type key struct {
		productID uuid.UUID
		size      string
	}
	merged := map[key]*placementGroup{}
	order := make([]key, 0, len(rows))
	for _, row := range rows {
		product, ok := byID[row.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a cart item refers to a retired product").
				WithDetails(map[string]any{"product_id": row.ProductID})
		}
		k := key{row.ProductID, row.SizeLabel}
		if group, ok := merged[k]; ok {
			group.qty += row.Quantity
			continue
		}
		merged[k] = &placementGroup{
			productID: row.ProductID,
			name:      product.Name,
			imageURL:  product.ImageURL,
			sizeLabel: row.SizeLabel,
			qty:       row.Quantity,
			unitCents: row.UnitPriceCents,
		}
		order = append(order, k)
	}

	groups := make([]placementGroup, 0, len(order))
	for _, k := range order {
		groups = append(groups, *merged[k])
	}
	return groups, nil
}

// groupSnapshotLines turns frozen projection lines into placement
// groups at current prices.
func (s *service) groupSnapshotLines(ctx context.Context, tx *gorm.DB, lines types.OrderLineSnapshots) ([]placementGroup, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	byID, err := s.productRepo.WithTx(tx).FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current products")
	}

	groups := make([]placementGroup, 0, len(lines))
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a line refers to a retired product").
				WithDetails(map[string]any{"product_id": line.ProductID, "name": line.Name})
		}
		groups = append(groups, placementGroup{
			productID: line.ProductID,
			name:      product.Name,
			imageURL:  product.ImageURL,
			sizeLabel: line.SizeLabel,
			qty:       line.Qty,
			unitCents: product.PriceCents,
		})
	}
	return groups, nil
}

func (s *service) insertReceipt(ctx context.Context, tx *gorm.DB, userID uuid.UUID, token, kind string, placed []PlacedOrder) error {
	numbers := make([]string, 0, len(placed))
	for _, order := range placed {
		numbers = append(numbers, order.OrderNumber)
	}
	err := s.repo.WithTx(tx).InsertReceipt(ctx, &models.TransitionReceipt{
		Token:        token,
		Kind:         kind,
		UserID:       userID,
		OrderNumbers: numbers,
	})
	if err != nil && !db.IsUniqueViolation(err, "ux_transition_receipts_token") {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write transition receipt")
	}
	return err
}

// replayPlacement serves a repeated placement token from its receipt.
func (s *service) replayPlacement(ctx context.Context, userID uuid.UUID, token, kind string) ([]PlacedOrder, bool, error) {
	receipt, err := s.repo.FindReceipt(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up transition receipt")
	}
	if receipt.UserID != userID || receipt.Kind != kind {
		return nil, false, pkgerrors.New(pkgerrors.CodeIdempotency, "token was already used for a different request")
	}

	rows, err := s.repo.FindByNumbers(ctx, userID, receipt.OrderNumbers)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load placed orders")
	}
	byNumber := make(map[string]models.Order, len(rows))
	for _, row := range rows {
		byNumber[row.OrderNumber] = row
	}
	placed := make([]PlacedOrder, 0, len(receipt.OrderNumbers))
	for _, number := range receipt.OrderNumbers {
		entry := PlacedOrder{OrderNumber: number}
		if row, ok := byNumber[number]; ok {
			entry.OrderID = row.ID
			entry.Total = types.NewMoney(row.TotalCents)
			for _, item := range row.Items {
				entry.ItemCount += item.Qty
			}
		}
		placed = append(placed, entry)
	}
	return placed, true, nil
}

func (s *service) terminalLines(ctx context.Context, userID, orderID uuid.UUID) (string, types.OrderLineSnapshots, error) {
	if completed, err := s.repo.FindCompleted(ctx, userID, orderID); err == nil {
		return completed.OrderNumber, completed.Items, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed order")
	}
	if cancelled, err := s.repo.FindCancelled(ctx, userID, orderID); err == nil {
		return cancelled.OrderNumber, cancelled.Items, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancelled order")
	}
	return "", nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *service) cancelledDTO(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	row, err := s.repo.FindCancelled(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cancelled order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancelled order")
	}
	dto := cancelledToDTO(*row)
	return &dto, nil
}

func (s *service) completedDTO(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	row, err := s.repo.FindCompleted(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "completed order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed order")
	}
	dto := completedToDTO(*row)
	return &dto, nil
}

func snapshotLines(items []models.OrderLineItem) types.OrderLineSnapshots {
	snapshots := make(types.OrderLineSnapshots, 0, len(items))
	for _, item := range items {
		snapshots = append(snapshots, item.Snapshot())
	}
	return snapshots
}

func movements(items []models.OrderLineItem) []inventory.Movement {
	moves := make([]inventory.Movement, 0, len(items))
	for _, item := range items {
		moves = append(moves, inventory.Movement{
			ProductID: item.ProductID,
			SizeLabel: item.SizeLabel,
			Qty:       item.Qty,
		})
	}
	return moves
}

func liveToDTO(order models.Order) OrderDTO {
	sort.Slice(order.Items, func(i, j int) bool {
		return order.Items[i].Name < order.Items[j].Name
	})
	dto := OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		Items:           make([]OrderLineDTO, 0, len(order.Items)),
		ShippingAddress: order.ShippingAddress,
		DeliveryFee:     types.NewMoney(order.DeliveryFeeCents),
		Subtotal:        types.NewMoney(order.SubtotalCents),
		Total:           types.NewMoney(order.TotalCents),
		PlacedAt:        order.PlacedAt,
		PackedAt:        order.PackedAt,
		ShippedAt:       order.ShippedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderLineDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			SizeLabel: item.SizeLabel,
			Qty:       item.Qty,
			UnitPrice: types.NewMoney(item.UnitPriceCents),
			LineTotal: types.NewMoney(item.TotalCents),
		})
	}
	return dto
}

func snapshotToLineDTOs(lines types.OrderLineSnapshots) []OrderLineDTO {
	dtos := make([]OrderLineDTO, 0, len(lines))
	for _, line := range lines {
		dtos = append(dtos, OrderLineDTO{
			ProductID: line.ProductID,
			Name:      line.Name,
			ImageURL:  line.ImageURL,
			SizeLabel: line.SizeLabel,
			Qty:       line.Qty,
			UnitPrice: types.NewMoney(line.UnitPriceCents),
			LineTotal: types.NewMoney(line.TotalCents),
		})
	}
	return dtos
}

func cancelledToDTO(row models.CancelledOrder) OrderDTO {
	cancelledAt := row.CancelledAt
	return OrderDTO{
		ID:              row.OrderID,
		OrderNumber:     row.OrderNumber,
		Status:          enums.OrderStatusCancelled,
		Items:           snapshotToLineDTOs(row.Items),
		ShippingAddress: row.ShippingAddress,
		DeliveryFee:     types.NewMoney(row.DeliveryFeeCents),
		Subtotal:        types.NewMoney(row.SubtotalCents),
		Total:           types.NewMoney(row.TotalCents),
		PlacedAt:        row.PlacedAt,
		CancelledAt:     &cancelledAt,
	}
}

func completedToDTO(row models.CompletedOrder) OrderDTO {
	receivedAt := row.ReceivedAt
	return OrderDTO{
		ID:              row.OrderID,
		OrderNumber:     row.OrderNumber,
		Status:          enums.OrderStatusCompleted,
		Items:           snapshotToLineDTOs(row.Items),
		ShippingAddress: row.ShippingAddress,
		DeliveryFee:     types.NewMoney(row.DeliveryFeeCents),
		Subtotal:        types.NewMoney(row.SubtotalCents),
		Total:           types.NewMoney(row.TotalCents),
		PlacedAt:        row.PlacedAt,
		ReceivedAt:      &receivedAt,
	}
}
