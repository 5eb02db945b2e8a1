package rental

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talkincode/toughrent/internal/domain"
)

// Engine owns the item lifecycle state machine:
//
//	magazyn -> wyjazd -> magazyn   (rental cycle)
//	magazyn -> serwis -> magazyn   (repair cycle)
//	magazyn -> odrzucone           (terminal, administrative)
//
// All transitions run inside the caller's transaction and are written as
// status-guarded updates, so under concurrent requests exactly one writer
// wins; the loser sees zero affected rows and the transaction rolls back.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// WithClock overrides the engine clock (used in tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// lockForUpdate takes row locks where the dialect supports them. SQLite
// serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// CheckOut flips every referenced item from magazyn to wyjazd and appends one
// borrow-history row per item, all or nothing. Any item not in stock aborts
// the whole call with an AvailabilityError naming the offenders.
func (e *Engine) CheckOut(tx *gorm.DB, userID int64, items []ItemRef) error {
	if len(items) == 0 {
		return &ValidationError{Field: "items", Message: "at least one product or komplet is required"}
	}
	productIDs, kompletIDs := splitRefs(items)

	var products []domain.Product
	if len(productIDs) > 0 {
		if err := lockForUpdate(tx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return errors.Wrap(err, "query products for checkout")
		}
		if len(products) != len(productIDs) {
			return &NotFoundError{Entity: "product"}
		}
	}
	var komplets []domain.Komplet
	if len(kompletIDs) > 0 {
		if err := lockForUpdate(tx).Where("id IN ?", kompletIDs).Find(&komplets).Error; err != nil {
			return errors.Wrap(err, "query komplets for checkout")
		}
		if len(komplets) != len(kompletIDs) {
			return &NotFoundError{Entity: "komplet"}
		}
	}

	var unavailable []string
	for _, p := range products {
		if p.Status != domain.ItemStatusInStock {
			unavailable = append(unavailable, p.Label())
		}
	}
	for _, k := range komplets {
		if k.Status != domain.ItemStatusInStock {
			unavailable = append(unavailable, k.Name)
		}
	}
	if len(unavailable) > 0 {
		return &AvailabilityError{Items: unavailable}
	}

	now := e.now()
	for _, p := range products {
		res := tx.Model(&domain.Product{}).
			Where("id = ? AND status = ?", p.ID, domain.ItemStatusInStock).
			Update("status", domain.ItemStatusCheckedOut)
		if res.Error != nil {
			return errors.Wrap(res.Error, "update product status")
		}
		if res.RowsAffected == 0 {
			// lost the race between read and write
			return &AvailabilityError{Items: []string{p.Label()}}
		}
		pid := p.ID
		if err := tx.Create(&domain.BorrowHistory{
			UserID:     userID,
			ProductID:  &pid,
			BorrowDate: now,
		}).Error; err != nil {
			return errors.Wrap(err, "create borrow history")
		}
	}
	for _, k := range komplets {
		res := tx.Model(&domain.Komplet{}).
			Where("id = ? AND status = ?", k.ID, domain.ItemStatusInStock).
			Update("status", domain.ItemStatusCheckedOut)
		if res.Error != nil {
			return errors.Wrap(res.Error, "update komplet status")
		}
		if res.RowsAffected == 0 {
			return &AvailabilityError{Items: []string{k.Name}}
		}
		kid := k.ID
		if err := tx.Create(&domain.BorrowHistory{
			UserID:     userID,
			KompletID:  &kid,
			BorrowDate: now,
		}).Error; err != nil {
			return errors.Wrap(err, "create borrow history")
		}
	}
	return nil
}

// CheckIn puts a checked-out item back in stock and stamps the return date on
// its open borrow-history row. An item that meanwhile went to serwis keeps
// that status; the history row is still closed.
func (e *Engine) CheckIn(tx *gorm.DB, item ItemRef) error {
	res := tx.Model(item.model()).
		Where("id = ? AND status = ?", item.ID, domain.ItemStatusCheckedOut).
		Update("status", domain.ItemStatusInStock)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update item status")
	}

	var hist domain.BorrowHistory
	err := tx.Where(item.historyColumn()+" = ? AND return_date IS NULL", item.ID).
		Order("borrow_date DESC").
		First(&hist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // no open loan to close
	}
	if err != nil {
		return errors.Wrap(err, "query open borrow history")
	}
	if err := tx.Model(&hist).Update("return_date", e.now()).Error; err != nil {
		return errors.Wrap(err, "close borrow history")
	}
	return nil
}

// FlagForService creates an unresolved repair ticket and forces the item into
// serwis, overriding whichever workflow owned it. Retired items are rejected.
func (e *Engine) FlagForService(tx *gorm.DB, item ItemRef, description string, vendorID *int64) (*domain.Service, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &ValidationError{Field: "description", Message: "description is required"}
	}

	res := tx.Model(item.model()).
		Where("id = ? AND status <> ?", item.ID, domain.ItemStatusRetired).
		Update("status", domain.ItemStatusInRepair)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update item status")
	}
	if res.RowsAffected == 0 {
		// either missing or retired; tell them apart
		var count int64
		if err := tx.Model(item.model()).Where("id = ?", item.ID).Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "query item")
		}
		if count == 0 {
			return nil, &NotFoundError{Entity: string(item.Kind)}
		}
		return nil, &ConflictError{Message: "retired items cannot be sent to service"}
	}

	ticket := &domain.Service{
		Description: strings.TrimSpace(description),
		ReportedAt:  e.now(),
		Resolved:    false,
		SerwisID:    vendorID,
	}
	id := item.ID
	if item.Kind == KindKomplet {
		ticket.KompletID = &id
	} else {
		ticket.ProductID = &id
	}
	if err := tx.Create(ticket).Error; err != nil {
		return nil, errors.Wrap(err, "create service ticket")
	}
	zap.L().Info("item flagged for service",
		zap.String("kind", string(item.Kind)),
		zap.Int64("item_id", item.ID),
		zap.Int64("ticket_id", ticket.ID))
	return ticket, nil
}

// ResolveService closes a repair ticket. The underlying item stays in serwis;
// ReturnToStock is the explicit action that makes it rentable again.
func (e *Engine) ResolveService(tx *gorm.DB, ticketID int64) (*domain.Service, error) {
	var ticket domain.Service
	err := lockForUpdate(tx).Where("id = ?", ticketID).First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "service ticket"}
	}
	if err != nil {
		return nil, errors.Wrap(err, "query service ticket")
	}
	if ticket.Resolved {
		return nil, &ConflictError{Message: "service ticket is already resolved"}
	}
	now := e.now()
	if err := tx.Model(&ticket).Updates(map[string]interface{}{
		"resolved":    true,
		"resolved_at": now,
	}).Error; err != nil {
		return nil, errors.Wrap(err, "resolve service ticket")
	}
	ticket.Resolved = true
	ticket.ResolvedAt = &now
	return &ticket, nil
}

// ReturnToStock moves an item from serwis back to magazyn.
func (e *Engine) ReturnToStock(tx *gorm.DB, item ItemRef) error {
	res := tx.Model(item.model()).
		Where("id = ? AND status = ?", item.ID, domain.ItemStatusInRepair).
		Update("status", domain.ItemStatusInStock)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update item status")
	}
	if res.RowsAffected == 0 {
		return &ConflictError{Message: "item is not in repair"}
	}
	return nil
}
