package rental

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
)

// Identity is the authenticated caller as seen by the workflow layer.
type Identity struct {
	ID       int64
	Username string
	Level    string
}

// Staff reports whether the caller may run the repair workflow.
func (i Identity) Staff() bool {
	return i.Level == domain.LevelStaff || i.Level == domain.LevelAdmin
}

// Admin reports whether the caller may manage vendors and accounts.
func (i Identity) Admin() bool {
	return i.Level == domain.LevelAdmin
}

// FaultDesk is the staff-only fault reporting workflow over the lifecycle
// engine. Capability checks run before any state is touched.
type FaultDesk struct {
	db     *gorm.DB
	engine *Engine
}

func NewFaultDesk(db *gorm.DB, engine *Engine) *FaultDesk {
	return &FaultDesk{db: db, engine: engine}
}

// Report opens a repair ticket for the item and forces it into serwis.
func (d *FaultDesk) Report(ident Identity, item ItemRef, description string, vendorID *int64) (*domain.Service, error) {
	if !ident.Staff() {
		return nil, &AuthorizationError{Capability: "staff"}
	}
	if vendorID != nil {
		var count int64
		if err := d.db.Model(&domain.Serwis{}).Where("id = ?", *vendorID).Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "query vendor")
		}
		if count == 0 {
			return nil, &ValidationError{Field: "serwis_id", Message: "unknown repair vendor"}
		}
	}
	var ticket *domain.Service
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var err error
		ticket, err = d.engine.FlagForService(tx, item, description, vendorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Resolve closes a ticket; the item stays in serwis until ReturnToStock.
func (d *FaultDesk) Resolve(ident Identity, ticketID int64) (*domain.Service, error) {
	if !ident.Staff() {
		return nil, &AuthorizationError{Capability: "staff"}
	}
	var ticket *domain.Service
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var err error
		ticket, err = d.engine.ResolveService(tx, ticketID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// ReturnToStock makes a repaired item rentable again.
func (d *FaultDesk) ReturnToStock(ident Identity, item ItemRef) error {
	if !ident.Staff() {
		return &AuthorizationError{Capability: "staff"}
	}
	return d.db.Transaction(func(tx *gorm.DB) error {
		return d.engine.ReturnToStock(tx, item)
	})
}
