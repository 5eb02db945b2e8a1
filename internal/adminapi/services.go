package adminapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/internal/rental"
	"github.com/talkincode/toughrent/internal/webserver"
)

type servicePayload struct {
	Kind        string `json:"kind" validate:"required,oneof=product komplet"`
	ItemID      int64  `json:"item_id" validate:"required"`
	Description string `json:"description" validate:"required,min=1,max=2000"`
	SerwisID    *int64 `json:"serwis_id"`
}

type returnToStockPayload struct {
	Kind   string `json:"kind" validate:"required,oneof=product komplet"`
	ItemID int64  `json:"item_id" validate:"required"`
}

// registerServiceRoutes registers repair ticket routes
func registerServiceRoutes() {
	webserver.ApiGET("/rental/services", listServices)
	webserver.ApiGET("/rental/services/:id", getService)
	webserver.ApiPOST("/rental/services", createService)
	webserver.ApiPUT("/rental/services/:id/resolve", resolveService)
	webserver.ApiPUT("/rental/services/return-to-stock", returnItemToStock)
}

func listServices(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Service{})
	if resolved := c.QueryParam("resolved"); resolved != "" {
		db = db.Where("resolved = ?", resolved == "true")
	}
	if sid := c.QueryParam("serwis_id"); sid != "" {
		db = db.Where("serwis_id = ?", sid)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query service tickets", err.Error())
	}

	var tickets []domain.Service
	if err := db.Order("reported_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&tickets).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query service tickets", err.Error())
	}

	return paged(c, tickets, total, page, pageSize)
}

func getService(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid ticket ID", nil)
	}

	var ticket domain.Service
	if err := GetDB(c).Where("id = ?", id).First(&ticket).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query service ticket", err.Error())
	}

	return ok(c, ticket)
}

func createService(c echo.Context) error {
	var payload servicePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse ticket parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	item := rental.ItemRef{Kind: rental.ItemKind(payload.Kind), ID: payload.ItemID}
	ticket, err := GetApp(c).FaultDesk().Report(GetIdentity(c), item, payload.Description, payload.SerwisID)
	if err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "create_service", fmt.Sprintf("opened ticket %d for %s %d", ticket.ID, payload.Kind, payload.ItemID))
	return ok(c, ticket)
}

func resolveService(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid ticket ID", nil)
	}

	ticket, err := GetApp(c).FaultDesk().Resolve(GetIdentity(c), id)
	if err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "resolve_service", fmt.Sprintf("resolved ticket %d", id))
	return ok(c, ticket)
}

func returnItemToStock(c echo.Context) error {
	var payload returnToStockPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	item := rental.ItemRef{Kind: rental.ItemKind(payload.Kind), ID: payload.ItemID}
	if err := GetApp(c).FaultDesk().ReturnToStock(GetIdentity(c), item); err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "return_to_stock", fmt.Sprintf("%s %d returned to stock", payload.Kind, payload.ItemID))
	return ok(c, map[string]interface{}{"kind": payload.Kind, "item_id": payload.ItemID, "status": domain.ItemStatusInStock})
}
