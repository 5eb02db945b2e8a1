package rental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/toughrent/internal/domain"
)

func TestReportRequiresStaff(t *testing.T) {
	db := newTestDB(t)
	desk := NewFaultDesk(db, NewEngine())
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)

	ident := Identity{ID: 1, Username: "alice", Level: domain.LevelUser}
	_, err := desk.Report(ident, ProductRef(p.ID), "no sound", nil)
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)

	// the item must be untouched
	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInStock, got.Status)
}

func TestReportOpensTicketAndBlocksItem(t *testing.T) {
	db := newTestDB(t)
	desk := NewFaultDesk(db, NewEngine())
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusCheckedOut)
	vendor := &domain.Serwis{Name: "NaprawTo", City: "Kraków"}
	require.NoError(t, db.Create(vendor).Error)

	staff := Identity{ID: 2, Username: "staffer", Level: domain.LevelStaff}
	ticket, err := desk.Report(staff, ProductRef(p.ID), "no sound", &vendor.ID)
	require.NoError(t, err)
	require.NotNil(t, ticket.ProductID)
	assert.Equal(t, p.ID, *ticket.ProductID)
	assert.Nil(t, ticket.KompletID)
	require.NotNil(t, ticket.SerwisID)
	assert.False(t, ticket.Resolved)

	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInRepair, got.Status)
}

func TestReportUnknownVendor(t *testing.T) {
	db := newTestDB(t)
	desk := NewFaultDesk(db, NewEngine())
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)

	staff := Identity{ID: 2, Username: "staffer", Level: domain.LevelStaff}
	badVendor := int64(777777)
	_, err := desk.Report(staff, ProductRef(p.ID), "no sound", &badVendor)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "serwis_id", valErr.Field)
}

func TestRepairCycle(t *testing.T) {
	db := newTestDB(t)
	desk := NewFaultDesk(db, NewEngine())
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)

	admin := Identity{ID: 3, Username: "boss", Level: domain.LevelAdmin}
	ticket, err := desk.Report(admin, ProductRef(p.ID), "crackling", nil)
	require.NoError(t, err)

	resolved, err := desk.Resolve(admin, ticket.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)

	// resolution alone does not restock the item
	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInRepair, got.Status)

	require.NoError(t, desk.ReturnToStock(admin, ProductRef(p.ID)))
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInStock, got.Status)
}

func TestResolveRequiresStaff(t *testing.T) {
	db := newTestDB(t)
	desk := NewFaultDesk(db, NewEngine())

	ident := Identity{ID: 1, Username: "alice", Level: domain.LevelUser}
	_, err := desk.Resolve(ident, 1)
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)

	err = desk.ReturnToStock(ident, ProductRef(1))
	require.ErrorAs(t, err, &authErr)
}
