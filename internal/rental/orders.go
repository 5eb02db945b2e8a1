package rental

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/pkg/common"
)

// Notifier delivers best-effort outbound messages. Implementations must
// swallow their own failures; callers never see them.
type Notifier interface {
	OrderConfirmed(user *domain.SysUser, order *domain.Order, products []domain.Product, komplets []domain.Komplet)
	ReturnReminder(user *domain.SysUser, order *domain.Order)
}

// Orders coordinates reservations: one order row per transaction, item
// transitions delegated to the lifecycle engine.
type Orders struct {
	db       *gorm.DB
	engine   *Engine
	notifier Notifier // may be nil
}

func NewOrders(db *gorm.DB, engine *Engine, notifier Notifier) *Orders {
	return &Orders{db: db, engine: engine, notifier: notifier}
}

type CreateOrderInput struct {
	UserID         int64
	ConferenceCode string
	ProductIDs     []int64
	KompletIDs     []int64
	PickupDate     *time.Time
	ReturnDate     *time.Time
}

func (in CreateOrderInput) refs() []ItemRef {
	refs := make([]ItemRef, 0, len(in.ProductIDs)+len(in.KompletIDs))
	for _, id := range in.ProductIDs {
		refs = append(refs, ProductRef(id))
	}
	for _, id := range in.KompletIDs {
		refs = append(refs, KompletRef(id))
	}
	return refs
}

// CreateOrder validates the input, checks out every item and persists the
// order in a single transaction. Availability is re-validated at commit time
// inside the transaction, not at form-render time. On success a confirmation
// is sent off the transaction path.
func (s *Orders) CreateOrder(in CreateOrderInput) (*domain.Order, error) {
	if strings.TrimSpace(in.ConferenceCode) == "" {
		return nil, &ValidationError{Field: "conference_code", Message: "conference code is required"}
	}
	if len(in.ProductIDs)+len(in.KompletIDs) == 0 {
		return nil, &ValidationError{Field: "items", Message: "at least one product or komplet is required"}
	}

	order := &domain.Order{
		ID:             common.UUIDint64(),
		UserID:         in.UserID,
		ConferenceCode: strings.TrimSpace(in.ConferenceCode),
		Status:         domain.OrderStatusReserved,
		ReservedAt:     s.engine.now(),
		PickupDate:     in.PickupDate,
		ReturnDate:     in.ReturnDate,
	}
	for _, id := range in.ProductIDs {
		order.Products = append(order.Products, domain.Product{ID: id})
	}
	for _, id := range in.KompletIDs {
		order.Komplets = append(order.Komplets, domain.Komplet{ID: id})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.engine.CheckOut(tx, in.UserID, in.refs()); err != nil {
			return err
		}
		// write the order and its join rows without touching the item rows
		if err := tx.Omit("Products.*", "Komplets.*").Create(order).Error; err != nil {
			return errors.Wrap(err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", in.UserID),
		zap.String("conference_code", order.ConferenceCode),
		zap.Int("products", len(in.ProductIDs)),
		zap.Int("komplets", len(in.KompletIDs)))

	s.notifyConfirmed(order)
	return order, nil
}

// notifyConfirmed sends the confirmation mail outside the transaction; the
// outcome is discarded.
func (s *Orders) notifyConfirmed(order *domain.Order) {
	if s.notifier == nil {
		return
	}
	var user domain.SysUser
	if err := s.db.Where("id = ?", order.UserID).First(&user).Error; err != nil {
		zap.L().Warn("order confirmation skipped, user not found",
			zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}
	var products []domain.Product
	var komplets []domain.Komplet
	_ = s.db.Model(order).Association("Products").Find(&products)
	_ = s.db.Model(order).Association("Komplets").Find(&komplets)
	go s.notifier.OrderConfirmed(&user, order, products, komplets)
}

// MarkOngoing records the pickup of a reserved order.
func (s *Orders) MarkOngoing(orderID int64) error {
	res := s.db.Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, domain.OrderStatusReserved).
		Update("status", domain.OrderStatusOngoing)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return s.transitionConflict(orderID, "only reserved orders can be picked up")
	}
	return nil
}

// MarkReturned completes an ongoing order and checks every associated item
// back in.
func (s *Orders) MarkReturned(orderID int64) error {
	return s.closeOrder(orderID, domain.OrderStatusOngoing, domain.OrderStatusReturned,
		"only ongoing orders can be returned")
}

// Cancel aborts a reserved or ongoing order and releases its items; without
// the release the items would stay checked out forever.
func (s *Orders) Cancel(orderID int64) error {
	return s.closeOrder(orderID, "", domain.OrderStatusCanceled,
		"only reserved or ongoing orders can be canceled")
}

func (s *Orders) closeOrder(orderID int64, fromStatus, toStatus, conflictMsg string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&domain.Order{}).Where("id = ?", orderID)
		if fromStatus != "" {
			q = q.Where("status = ?", fromStatus)
		} else {
			q = q.Where("status IN ?", []string{domain.OrderStatusReserved, domain.OrderStatusOngoing})
		}
		res := q.Update("status", toStatus)
		if res.Error != nil {
			return errors.Wrap(res.Error, "update order status")
		}
		if res.RowsAffected == 0 {
			return s.transitionConflict(orderID, conflictMsg)
		}

		var order domain.Order
		if err := tx.Preload("Products").Preload("Komplets").Where("id = ?", orderID).First(&order).Error; err != nil {
			return errors.Wrap(err, "load order items")
		}
		for _, p := range order.Products {
			if err := s.engine.CheckIn(tx, ProductRef(p.ID)); err != nil {
				return err
			}
		}
		for _, k := range order.Komplets {
			if err := s.engine.CheckIn(tx, KompletRef(k.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Orders) transitionConflict(orderID int64, msg string) error {
	var count int64
	if err := s.db.Model(&domain.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return errors.Wrap(err, "query order")
	}
	if count == 0 {
		return &NotFoundError{Entity: "order"}
	}
	return &ConflictError{Message: msg}
}

// ActiveFor returns a user's orders that are not yet returned, newest first.
func (s *Orders) ActiveFor(userID int64) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.Preload("Products").Preload("Komplets").
		Where("user_id = ? AND status <> ?", userID, domain.OrderStatusReturned).
		Order("reserved_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "query active orders")
	}
	return orders, nil
}

// HistoryFor returns a user's completed orders by planned return date,
// newest first.
func (s *Orders) HistoryFor(userID int64) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.Preload("Products").Preload("Komplets").
		Where("user_id = ? AND status = ?", userID, domain.OrderStatusReturned).
		Order("return_date DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "query order history")
	}
	return orders, nil
}

// Overdue returns ongoing orders whose planned return date is in the past;
// used by the reminder job.
func (s *Orders) Overdue(asOf time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.
		Where("status = ? AND return_date IS NOT NULL AND return_date < ?", domain.OrderStatusOngoing, asOf).
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "query overdue orders")
	}
	return orders, nil
}
