package rental

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/toughrent/internal/domain"
)

type captureNotifier struct {
	confirmed chan int64
	reminded  chan int64
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{
		confirmed: make(chan int64, 4),
		reminded:  make(chan int64, 4),
	}
}

func (n *captureNotifier) OrderConfirmed(user *domain.SysUser, order *domain.Order,
	products []domain.Product, komplets []domain.Komplet) {
	n.confirmed <- order.ID
}

func (n *captureNotifier) ReturnReminder(user *domain.SysUser, order *domain.Order) {
	n.reminded <- order.ID
}

func TestCreateOrderReservesItems(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine()
	notifier := newCaptureNotifier()
	orders := NewOrders(db, engine, notifier)
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	k := seedKomplet(t, db, "Scena A", domain.ItemStatusInStock)
	user := seedUser(t, db, "alice", domain.LevelUser)

	ret := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	order, err := orders.CreateOrder(CreateOrderInput{
		UserID:         user.ID,
		ConferenceCode: "KRK-2026",
		ProductIDs:     []int64{p.ID},
		KompletIDs:     []int64{k.ID},
		ReturnDate:     &ret,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReserved, order.Status)

	var stored domain.Order
	require.NoError(t, db.Preload("Products").Preload("Komplets").First(&stored, order.ID).Error)
	require.Len(t, stored.Products, 1)
	require.Len(t, stored.Komplets, 1)
	assert.Equal(t, domain.ItemStatusCheckedOut, stored.Products[0].Status)

	select {
	case id := <-notifier.confirmed:
		assert.Equal(t, order.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation was not sent")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrders(db, NewEngine(), nil)
	user := seedUser(t, db, "alice", domain.LevelUser)

	_, err := orders.CreateOrder(CreateOrderInput{UserID: user.ID, ProductIDs: []int64{1}})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "conference_code", valErr.Field)

	_, err = orders.CreateOrder(CreateOrderInput{UserID: user.ID, ConferenceCode: "KRK-2026"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "items", valErr.Field)
}

func TestCreateOrderRollsBackOnUnavailable(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrders(db, NewEngine(), nil)
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	alice := seedUser(t, db, "alice", domain.LevelUser)
	bob := seedUser(t, db, "bob", domain.LevelUser)

	_, err := orders.CreateOrder(CreateOrderInput{
		UserID: alice.ID, ConferenceCode: "KRK-2026", ProductIDs: []int64{p.ID},
	})
	require.NoError(t, err)

	_, err = orders.CreateOrder(CreateOrderInput{
		UserID: bob.ID, ConferenceCode: "WAW-2026", ProductIDs: []int64{p.ID},
	})
	var availErr *AvailabilityError
	require.ErrorAs(t, err, &availErr)

	var count int64
	db.Model(&domain.Order{}).Where("user_id = ?", bob.ID).Count(&count)
	assert.Zero(t, count)
}

func TestOrderLifecycle(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrders(db, NewEngine(), nil)
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	user := seedUser(t, db, "alice", domain.LevelUser)

	ret := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	order, err := orders.CreateOrder(CreateOrderInput{
		UserID: user.ID, ConferenceCode: "KRK-2026", ProductIDs: []int64{p.ID}, ReturnDate: &ret,
	})
	require.NoError(t, err)

	// reserved orders cannot be returned directly
	err = orders.MarkReturned(order.ID)
	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)

	require.NoError(t, orders.MarkOngoing(order.ID))
	require.NoError(t, orders.MarkReturned(order.ID))

	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInStock, got.Status)

	var hist domain.BorrowHistory
	require.NoError(t, db.Where("product_id = ?", p.ID).First(&hist).Error)
	assert.NotNil(t, hist.ReturnDate)

	active, err := orders.ActiveFor(user.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	history, err := orders.HistoryFor(user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)
}

func TestCancelReleasesItems(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrders(db, NewEngine(), nil)
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	user := seedUser(t, db, "alice", domain.LevelUser)

	order, err := orders.CreateOrder(CreateOrderInput{
		UserID: user.ID, ConferenceCode: "KRK-2026", ProductIDs: []int64{p.ID},
	})
	require.NoError(t, err)

	require.NoError(t, orders.Cancel(order.ID))

	var got domain.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.ItemStatusInStock, got.Status)

	var stored domain.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, domain.OrderStatusCanceled, stored.Status)

	// canceled orders cannot be canceled again
	err = orders.Cancel(order.ID)
	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)
}

func TestCancelUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrders(db, NewEngine(), nil)

	err := orders.Cancel(424242)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestOverdue(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrders(db, NewEngine(), nil)
	cat := seedCategory(t, db, "audio")
	p := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	user := seedUser(t, db, "alice", domain.LevelUser)

	ret := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	order, err := orders.CreateOrder(CreateOrderInput{
		UserID: user.ID, ConferenceCode: "KRK-2026", ProductIDs: []int64{p.ID}, ReturnDate: &ret,
	})
	require.NoError(t, err)
	require.NoError(t, orders.MarkOngoing(order.ID))

	overdue, err := orders.Overdue(ret.Add(24 * time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, order.ID, overdue[0].ID)

	overdue, err = orders.Overdue(ret.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Empty(t, overdue)
}
