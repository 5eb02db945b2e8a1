package rental

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
)

func TestCheckOutMovesItemsAndWritesHistory(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	k := seedKomplet(t, db, "Scena A", domain.ItemStatusInStock)
	user := seedUser(t, db, "alice", domain.LevelUser)

	err := db.Transaction(func(tx *gorm.DB) error {
		return engine.CheckOut(tx, user.ID, []ItemRef{ProductRef(p.ID), KompletRef(k.ID)})
	})
	require.NoError(t, err)

	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusCheckedOut, got.Status)

	var gotK domain.Komplet
	require.NoError(t, db.First(&gotK, k.ID).Error)
	assert.Equal(t, domain.ItemStatusCheckedOut, gotK.Status)

	var hist []domain.BorrowHistory
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&hist).Error)
	require.Len(t, hist, 2)
	for _, h := range hist {
		assert.Nil(t, h.ReturnDate)
	}
}

func TestCheckOutRejectsUnavailableItems(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	cat := seedCategory(t, db, "audio")
	p1 := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	p2 := seedProduct(t, db, cat.ID, "Sennheiser", "e935", domain.ItemStatusInRepair)
	user := seedUser(t, db, "alice", domain.LevelUser)

	err := db.Transaction(func(tx *gorm.DB) error {
		return engine.CheckOut(tx, user.ID, []ItemRef{ProductRef(p1.ID), ProductRef(p2.ID)})
	})
	var availErr *AvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, []string{p2.Label()}, availErr.Items)

	// all or nothing: the available item must stay untouched
	var got domain.Product
	require.NoError(t, db.First(&got, p1.ID).Error)
	assert.Equal(t, domain.ItemStatusInStock, got.Status)

	var histCount int64
	db.Model(&domain.BorrowHistory{}).Count(&histCount)
	assert.Zero(t, histCount)
}

func TestCheckOutUnknownItem(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	user := seedUser(t, db, "alice", domain.LevelUser)

	err := db.Transaction(func(tx *gorm.DB) error {
		return engine.CheckOut(tx, user.ID, []ItemRef{ProductRef(9999)})
	})
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestSecondCheckOutLoses(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	alice := seedUser(t, db, "alice", domain.LevelUser)
	bob := seedUser(t, db, "bob", domain.LevelUser)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return engine.CheckOut(tx, alice.ID, []ItemRef{ProductRef(p.ID)})
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		return engine.CheckOut(tx, bob.ID, []ItemRef{ProductRef(p.ID)})
	})
	var availErr *AvailabilityError
	require.ErrorAs(t, err, &availErr)

	var histCount int64
	db.Model(&domain.BorrowHistory{}).Where("user_id = ?", bob.ID).Count(&histCount)
	assert.Zero(t, histCount)
}

func TestCheckInClosesHistoryAndRestocks(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	engine := NewEngine().WithClock(func() time.Time { return now })
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	user := seedUser(t, db, "alice", domain.LevelUser)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return engine.CheckOut(tx, user.ID, []ItemRef{ProductRef(p.ID)})
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return engine.CheckIn(tx, ProductRef(p.ID))
	}))

	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInStock, got.Status)

	var hist domain.BorrowHistory
	require.NoError(t, db.Where("product_id = ?", p.ID).First(&hist).Error)
	require.NotNil(t, hist.ReturnDate)
	assert.True(t, hist.ReturnDate.Equal(now))
}

func TestCheckInKeepsRepairStatus(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	user := seedUser(t, db, "alice", domain.LevelUser)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return engine.CheckOut(tx, user.ID, []ItemRef{ProductRef(p.ID)})
	}))
	// a fault report overrides the rental workflow
	_, err := NewFaultDesk(db, engine).Report(
		Identity{ID: 1, Username: "staff", Level: domain.LevelStaff},
		ProductRef(p.ID), "broken switch", nil)
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return engine.CheckIn(tx, ProductRef(p.ID))
	}))

	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInRepair, got.Status)

	// the open loan is still closed
	var hist domain.BorrowHistory
	require.NoError(t, db.Where("product_id = ?", p.ID).First(&hist).Error)
	assert.NotNil(t, hist.ReturnDate)
}

func TestFlagForServiceValidation(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := engine.FlagForService(tx, ProductRef(p.ID), "   ", nil)
		return err
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "description", valErr.Field)
}

func TestFlagForServiceRejectsRetired(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusRetired)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := engine.FlagForService(tx, ProductRef(p.ID), "cracked grille", nil)
		return err
	})
	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := engine.FlagForService(tx, ProductRef(12345), "missing", nil)
		return err
	})
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestResolveServiceIsIdempotentConflict(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusCheckedOut)

	var ticketID int64
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		ticket, err := engine.FlagForService(tx, ProductRef(p.ID), "rattles", nil)
		if err != nil {
			return err
		}
		ticketID = ticket.ID
		return nil
	}))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		ticket, err := engine.ResolveService(tx, ticketID)
		if err != nil {
			return err
		}
		assert.True(t, ticket.Resolved)
		assert.NotNil(t, ticket.ResolvedAt)
		return nil
	}))

	// resolving keeps the item blocked
	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInRepair, got.Status)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := engine.ResolveService(tx, ticketID)
		return err
	})
	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)
}

func TestReturnToStock(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInRepair)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return engine.ReturnToStock(tx, ProductRef(p.ID))
	}))
	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInStock, got.Status)

	err := db.Transaction(func(tx *gorm.DB) error {
		return engine.ReturnToStock(tx, ProductRef(p.ID))
	})
	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)
}
