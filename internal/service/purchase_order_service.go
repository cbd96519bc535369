package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplytrack/internal/dto"
	"supplytrack/internal/infra"
	"supplytrack/internal/model"
	"supplytrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// orderNumberAttempts bounds the retries when a generated order number is taken.
const orderNumberAttempts = 5

// OrderMailer delivers a rendered purchase order. *infra.Mailer implements it.
type OrderMailer interface {
	SendPurchaseOrder(to, subject, body, fileName string, pdf []byte) error
}

type PurchaseOrderService interface {
	Create(ctx context.Context, actor Actor, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseOrderResponse, error)
	List(ctx context.Context, filter dto.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error)

	// Item edits recompute total_amount and are rejected unless the order is PENDING.
	AddItem(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.PurchaseOrderItemRequest) (*dto.PurchaseOrderResponse, error)
	UpdateItem(ctx context.Context, actor Actor, orderID, itemID uuid.UUID, req dto.UpdatePurchaseOrderItemRequest) (*dto.PurchaseOrderResponse, error)
	RemoveItem(ctx context.Context, actor Actor, orderID, itemID uuid.UUID) (*dto.PurchaseOrderResponse, error)

	// UpdateStatus applies one lifecycle transition. Moving to RECEIVED credits
	// the ordered quantities to their supplies in the same transaction.
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, next model.OrderStatus) (*dto.PurchaseOrderResponse, error)
	UpdatePaymentStatus(ctx context.Context, actor Actor, id uuid.UUID, next model.PaymentStatus) (*dto.PurchaseOrderResponse, error)

	RenderPDF(ctx context.Context, id uuid.UUID) (pdf []byte, fileName string, err error)
	// Send emails the PDF to `to`, or to the supplier's address when to is empty.
	Send(ctx context.Context, actor Actor, id uuid.UUID, to string) error
}

type purchaseOrderService struct {
	repo        repository.PurchaseOrderRepository
	suppliers   repository.SupplierRepository
	supplies    repository.SupplyRepository
	audit       repository.AuditLogRepository
	mailer      OrderMailer
	companyName string

	newNumber func(now time.Time) string
	now       func() time.Time
}

// NewPurchaseOrderService accepts a nil mailer; Send then fails with ErrMailDisabled.
func NewPurchaseOrderService(
	repo repository.PurchaseOrderRepository,
	suppliers repository.SupplierRepository,
	supplies repository.SupplyRepository,
	audit repository.AuditLogRepository,
	mailer OrderMailer,
	companyName string,
) PurchaseOrderService {
	return &purchaseOrderService{
		repo:        repo,
		suppliers:   suppliers,
		supplies:    supplies,
		audit:       audit,
		mailer:      mailer,
		companyName: companyName,
		newNumber:   NewOrderNumber,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// NewOrderNumber returns PO-YYYYMMDD-XXXXXX with six random hex digits.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "PO-" + now.Format("20060102") + "-" + suffix
}

func poToResponse(o *model.PurchaseOrder) *dto.PurchaseOrderResponse {
	resp := &dto.PurchaseOrderResponse{
		ID:            o.ID.String(),
		OrderNumber:   o.OrderNumber,
		Supplier:      dto.LookupItem{ID: o.SupplierID.String()},
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TotalAmount:   o.TotalAmount,
		OrderDate:     o.OrderDate,
		ReceivedDate:  o.ReceivedDate,
		Notes:         o.Notes,
		CreatedByID:   uuidString(o.CreatedByID),
		Items:         make([]dto.PurchaseOrderItemResponse, len(o.Items)),
	}
	if o.Supplier != nil {
		resp.Supplier.Name = o.Supplier.Name
	}
	if o.ExpectedDate != nil {
		d := o.ExpectedDate.Format(time.DateOnly)
		resp.ExpectedDate = &d
	}
	for i, it := range o.Items {
		resp.Items[i] = dto.PurchaseOrderItemResponse{
			ID:         it.ID.String(),
			SupplyID:   uuidString(it.SupplyID),
			SupplyName: it.SupplyName,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		}
	}
	return resp
}

// newItemTx builds a line for an existing supply. The unit price defaults to the
// supply's current price.
func (s *purchaseOrderService) newItemTx(tx *gorm.DB, field string, req dto.PurchaseOrderItemRequest) (*model.PurchaseOrderItem, error) {
	supplyID, err := uuid.Parse(req.SupplyID)
	if err != nil {
		return nil, invalid(field+".supply_id", "uuid")
	}
	if req.Quantity <= 0 {
		return nil, invalid(field+".quantity", "must be greater than zero")
	}
	sup, err := s.supplies.FindByIDTx(tx, supplyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid(field+".supply_id", "not found")
	}
	if err != nil {
		return nil, err
	}
	price := sup.Price
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, invalid(field+".unit_price", "must not be negative")
		}
		price = req.UnitPrice.Round(2)
	}
	return &model.PurchaseOrderItem{
		SupplyID:   &sup.ID,
		SupplyName: sup.Name,
		Quantity:   req.Quantity,
		UnitPrice:  price,
	}, nil
}

func (s *purchaseOrderService) Create(ctx context.Context, actor Actor, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, invalid("supplier_id", "uuid")
	}
	if _, err := s.suppliers.FindByID(ctx, supplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("supplier_id", "not found")
		}
		return nil, err
	}
	var expected *time.Time
	if req.ExpectedDate != "" {
		d, err := time.ParseInLocation(time.DateOnly, req.ExpectedDate, time.UTC)
		if err != nil {
			return nil, invalid("expected_date", "datetime")
		}
		expected = &d
	}

	order := &model.PurchaseOrder{
		SupplierID:    supplierID,
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentUnpaid,
		OrderDate:     s.now(),
		ExpectedDate:  expected,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedByID:   actor.userRef(),
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for i, itemReq := range req.Items {
			item, err := s.newItemTx(tx, fmt.Sprintf("items[%d]", i), itemReq)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, *item)
		}
		order.RecalculateTotal()

		if err := s.insertWithNumberTx(tx, order); err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].PurchaseOrderID = order.ID
			if err := s.repo.CreateItemTx(tx, &order.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("order", order.OrderNumber).Str("user", actor.Username).Msg("purchase order created")
	return s.Get(ctx, order.ID)
}

// insertWithNumberTx assigns a fresh order number and inserts the order. A
// number that exists already, or loses an insert race on the unique index, is
// replaced by a new one; an existing order is never overwritten.
func (s *purchaseOrderService) insertWithNumberTx(tx *gorm.DB, order *model.PurchaseOrder) error {
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		number := s.newNumber(order.OrderDate)
		taken, err := s.repo.NumberExistsTx(tx, number)
		if err != nil {
			return err
		}
		if taken {
			log.Warn().Str("order", number).Int("attempt", attempt).Msg("order number collision")
			continue
		}

		order.OrderNumber = number
		// The savepoint keeps the transaction usable after a unique violation.
		if err := tx.SavePoint("order_number").Error; err != nil {
			return err
		}
		err = s.repo.CreateTx(tx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		if rbErr := tx.RollbackTo("order_number").Error; rbErr != nil {
			return rbErr
		}
		order.ID = uuid.Nil
		log.Warn().Str("order", number).Int("attempt", attempt).Msg("order number collision on insert")
	}
	return fmt.Errorf("no unique order number after %d attempts", orderNumberAttempts)
}

func (s *purchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseOrderResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("purchase order", err)
	}
	return poToResponse(o), nil
}

func (s *purchaseOrderService) List(ctx context.Context, filter dto.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error) {
	if filter.Status != "" && !model.OrderStatus(filter.Status).Valid() {
		return nil, invalid("status", "oneof")
	}
	orders, page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.PurchaseOrderListResponse{Data: make([]dto.PurchaseOrderResponse, len(orders)), Pagination: page}
	for i := range orders {
		resp.Data[i] = *poToResponse(&orders[i])
	}
	return resp, nil
}

// editItemsTx loads a PENDING order, applies fn to it and stores the recomputed
// total.
func (s *purchaseOrderService) editItemsTx(tx *gorm.DB, orderID uuid.UUID, fn func(o *model.PurchaseOrder) error) error {
	o, err := s.repo.FindByIDTx(tx, orderID)
	if err != nil {
		return notFound("purchase order", err)
	}
	if o.Status != model.OrderPending {
		return fmt.Errorf("%w (order %s is %s)", ErrOrderLocked, o.OrderNumber, o.Status)
	}
	if err := fn(o); err != nil {
		return err
	}
	o.RecalculateTotal()
	return s.repo.UpdateTx(tx, o)
}

func (s *purchaseOrderService) AddItem(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.PurchaseOrderItemRequest) (*dto.PurchaseOrderResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.editItemsTx(tx, orderID, func(o *model.PurchaseOrder) error {
			item, err := s.newItemTx(tx, "item", req)
			if err != nil {
				return err
			}
			item.PurchaseOrderID = o.ID
			if err := s.repo.CreateItemTx(tx, item); err != nil {
				return err
			}
			o.Items = append(o.Items, *item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func (s *purchaseOrderService) UpdateItem(ctx context.Context, actor Actor, orderID, itemID uuid.UUID, req dto.UpdatePurchaseOrderItemRequest) (*dto.PurchaseOrderResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, invalid("quantity", "must be greater than zero")
	}
	if req.UnitPrice.IsNegative() {
		return nil, invalid("unit_price", "must not be negative")
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.editItemsTx(tx, orderID, func(o *model.PurchaseOrder) error {
			for i := range o.Items {
				if o.Items[i].ID != itemID {
					continue
				}
				o.Items[i].Quantity = req.Quantity
				o.Items[i].UnitPrice = req.UnitPrice.Round(2)
				return s.repo.SaveItemTx(tx, &o.Items[i])
			}
			return fmt.Errorf("purchase order item %w", ErrNotFound)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func (s *purchaseOrderService) RemoveItem(ctx context.Context, actor Actor, orderID, itemID uuid.UUID) (*dto.PurchaseOrderResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.editItemsTx(tx, orderID, func(o *model.PurchaseOrder) error {
			if err := s.repo.DeleteItemTx(tx, orderID, itemID); err != nil {
				return notFound("purchase order item", err)
			}
			kept := o.Items[:0]
			for _, it := range o.Items {
				if it.ID != itemID {
					kept = append(kept, it)
				}
			}
			o.Items = kept
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func (s *purchaseOrderService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, next model.OrderStatus) (*dto.PurchaseOrderResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, invalid("status", "oneof")
	}

	var order *model.PurchaseOrder
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		o, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return notFound("purchase order", err)
		}
		if !o.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
		}

		var receivedAt *time.Time
		if next == model.OrderReceived {
			t := s.now()
			receivedAt = &t
		}
		// Status moves first: a concurrent transition of the same order blocks on
		// the row and then finds the status changed.
		moved, err := s.repo.SetStatusTx(tx, id, o.Status, next, receivedAt)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: order %s changed concurrently", ErrInvalidTransition, o.OrderNumber)
		}
		if next == model.OrderReceived {
			if err := s.receiveItemsTx(tx, actor, o); err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("order", order.OrderNumber).Str("status", string(next)).Str("user", actor.Username).
		Msg("purchase order status changed")
	return s.Get(ctx, id)
}

// receiveItemsTx credits every item that still points at a supply and writes one
// RECEIVE audit row per credited item.
func (s *purchaseOrderService) receiveItemsTx(tx *gorm.DB, actor Actor, o *model.PurchaseOrder) error {
	for _, item := range o.Items {
		if item.SupplyID == nil {
			continue
		}
		newQty, err := s.supplies.AdjustQuantityTx(tx, *item.SupplyID, item.Quantity)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("credit %s: %w", item.SupplyName, err)
		}
		details := fmt.Sprintf("Received %d units on purchase order %s (quantity %d -> %d)",
			item.Quantity, o.OrderNumber, newQty-item.Quantity, newQty)
		if err := recordAudit(tx, s.audit, actor, item.SupplyID, "", model.ActionReceive, details); err != nil {
			return err
		}
	}
	return nil
}

func (s *purchaseOrderService) UpdatePaymentStatus(ctx context.Context, actor Actor, id uuid.UUID, next model.PaymentStatus) (*dto.PurchaseOrderResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, invalid("payment_status", "oneof")
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		o, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return notFound("purchase order", err)
		}
		if o.Status == model.OrderCancelled {
			return fmt.Errorf("%w: payment status of cancelled order %s is frozen", ErrInvalidTransition, o.OrderNumber)
		}
		o.PaymentStatus = next
		return s.repo.UpdateTx(tx, o)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *purchaseOrderService) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", notFound("purchase order", err)
	}
	pdf, err := infra.RenderPurchaseOrderPDF(o, s.companyName)
	if err != nil {
		return nil, "", fmt.Errorf("render %s: %w", o.OrderNumber, err)
	}
	return pdf, o.OrderNumber + ".pdf", nil
}

func (s *purchaseOrderService) Send(ctx context.Context, actor Actor, id uuid.UUID, to string) error {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return err
	}
	if s.mailer == nil {
		return ErrMailDisabled
	}
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound("purchase order", err)
	}
	to = strings.TrimSpace(to)
	if to == "" && o.Supplier != nil {
		to = o.Supplier.Email
	}
	if to == "" {
		return invalid("to", "supplier has no email address")
	}

	pdf, err := infra.RenderPurchaseOrderPDF(o, s.companyName)
	if err != nil {
		return fmt.Errorf("render %s: %w", o.OrderNumber, err)
	}
	subject := fmt.Sprintf("Purchase Order %s from %s", o.OrderNumber, s.companyName)
	body := fmt.Sprintf("Please find attached purchase order %s (%d items, total %s).",
		o.OrderNumber, len(o.Items), o.TotalAmount.StringFixed(2))
	if err := s.mailer.SendPurchaseOrder(to, subject, body, o.OrderNumber+".pdf", pdf); err != nil {
		return fmt.Errorf("send %s: %w", o.OrderNumber, err)
	}
	log.Info().Str("order", o.OrderNumber).Str("to", to).Str("user", actor.Username).Msg("purchase order sent")
	return nil
}
