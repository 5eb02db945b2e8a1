package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/internal/rental"
	"github.com/talkincode/toughrent/internal/webserver"
)

type orderPayload struct {
	ConferenceCode string  `json:"conference_code" validate:"required,min=1,max=50"`
	ProductIDs     []int64 `json:"product_ids"`
	KompletIDs     []int64 `json:"komplet_ids"`
	PickupDate     string  `json:"pickup_date" validate:"omitempty,datetime=2006-01-02"`
	ReturnDate     string  `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
}

// registerOrderRoutes registers reservation routes
func registerOrderRoutes() {
	webserver.ApiGET("/rental/orders", listOrders)
	webserver.ApiGET("/rental/orders/active", listActiveOrders)
	webserver.ApiGET("/rental/orders/history", listOrderHistory)
	webserver.ApiGET("/rental/orders/:id", getOrder)
	webserver.ApiPOST("/rental/orders", createOrder)
	webserver.ApiPUT("/rental/orders/:id/pickup", markOrderOngoing)
	webserver.ApiPUT("/rental/orders/:id/return", markOrderReturned)
	webserver.ApiPUT("/rental/orders/:id/cancel", cancelOrder)
}

// listOrders is the staff-wide listing across all users.
func listOrders(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Order{})
	db = likeFilter(db, c.QueryParam("q"), "conference_code")
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("status = ?", status)
	}
	if uid := c.QueryParam("user_id"); uid != "" {
		db = db.Where("user_id = ?", uid)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	var orders []domain.Order
	if err := db.Preload("Products").Preload("Komplets").Order("reserved_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	return paged(c, orders, total, page, pageSize)
}

func listActiveOrders(c echo.Context) error {
	ident := GetIdentity(c)
	orders, err := GetApp(c).Orders().ActiveFor(ident.ID)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, orders)
}

func listOrderHistory(c echo.Context) error {
	ident := GetIdentity(c)
	orders, err := GetApp(c).Orders().HistoryFor(ident.ID)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, orders)
}

func getOrder(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	var order domain.Order
	if err := GetDB(c).Preload("Products").Preload("Komplets").
		Where("id = ?", id).First(&order).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}

	ident := GetIdentity(c)
	if order.UserID != ident.ID && !ident.Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Not your order", nil)
	}

	return ok(c, order)
}

func createOrder(c echo.Context) error {
	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	in := rental.CreateOrderInput{
		UserID:         GetIdentity(c).ID,
		ConferenceCode: payload.ConferenceCode,
		ProductIDs:     payload.ProductIDs,
		KompletIDs:     payload.KompletIDs,
	}
	if payload.PickupDate != "" {
		t, _ := time.ParseInLocation("2006-01-02", payload.PickupDate, time.Local)
		in.PickupDate = &t
	}
	if payload.ReturnDate != "" {
		t, _ := time.ParseInLocation("2006-01-02", payload.ReturnDate, time.Local)
		in.ReturnDate = &t
	}

	order, err := GetApp(c).Orders().CreateOrder(in)
	if err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "create_order", fmt.Sprintf("created order %d for %s", order.ID, order.ConferenceCode))
	return ok(c, order)
}

func markOrderOngoing(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	if err := GetApp(c).Orders().MarkOngoing(id); err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "order_pickup", fmt.Sprintf("order %d picked up", id))
	return ok(c, map[string]interface{}{"id": id, "status": domain.OrderStatusOngoing})
}

func markOrderReturned(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	if err := GetApp(c).Orders().MarkReturned(id); err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "order_return", fmt.Sprintf("order %d returned", id))
	return ok(c, map[string]interface{}{"id": id, "status": domain.OrderStatusReturned})
}

// cancelOrder is allowed for the order's owner and for staff.
func cancelOrder(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	var order domain.Order
	if err := GetDB(c).Where("id = ?", id).First(&order).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}

	ident := GetIdentity(c)
	if order.UserID != ident.ID && !ident.Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Not your order", nil)
	}

	if err := GetApp(c).Orders().Cancel(id); err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "order_cancel", fmt.Sprintf("order %d canceled", id))
	return ok(c, map[string]interface{}{"id": id, "status": domain.OrderStatusCanceled})
}
