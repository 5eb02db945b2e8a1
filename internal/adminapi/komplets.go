package adminapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/internal/webserver"
)

type kompletPayload struct {
	Name       string  `json:"name" validate:"required,min=1,max=100"`
	ProductIDs []int64 `json:"product_ids"`
}

type kompletMembersPayload struct {
	ProductIDs []int64 `json:"product_ids"`
}

// registerKompletRoutes registers komplet CRUD routes
func registerKompletRoutes() {
	webserver.ApiGET("/rental/komplets", listKomplets)
	webserver.ApiGET("/rental/komplets/:id", getKomplet)
	webserver.ApiPOST("/rental/komplets", createKomplet)
	webserver.ApiPUT("/rental/komplets/:id/products", setKompletProducts)
	webserver.ApiDELETE("/rental/komplets/:id", deleteKomplet)
}

func listKomplets(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Komplet{})
	db = likeFilter(db, c.QueryParam("q"), "name")
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query komplets", err.Error())
	}

	var komplets []domain.Komplet
	if err := db.Preload("Products").Order("name").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&komplets).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query komplets", err.Error())
	}

	return paged(c, komplets, total, page, pageSize)
}

func getKomplet(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid komplet ID", nil)
	}

	var k domain.Komplet
	if err := GetDB(c).Preload("Products").Where("id = ?", id).First(&k).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "KOMPLET_NOT_FOUND", "Komplet not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query komplet", err.Error())
	}

	return ok(c, k)
}

func createKomplet(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	var payload kompletPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse komplet parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	komplet, err := GetApp(c).Catalog().CreateKomplet(payload.Name, payload.ProductIDs)
	if err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "create_komplet", "created komplet "+komplet.Name)
	return ok(c, komplet)
}

func setKompletProducts(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid komplet ID", nil)
	}

	var payload kompletMembersPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse komplet parameters", nil)
	}

	if err := GetApp(c).Catalog().SetKompletProducts(id, payload.ProductIDs); err != nil {
		return failDomain(c, err)
	}

	var k domain.Komplet
	if err := GetDB(c).Preload("Products").Where("id = ?", id).First(&k).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to reload komplet", err.Error())
	}
	return ok(c, k)
}

func deleteKomplet(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid komplet ID", nil)
	}

	var k domain.Komplet
	if err := GetDB(c).Where("id = ?", id).First(&k).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "KOMPLET_NOT_FOUND", "Komplet not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query komplet", err.Error())
	}

	if k.Status == domain.ItemStatusCheckedOut {
		return fail(c, http.StatusConflict, "KOMPLET_IN_USE", "Checked-out komplets cannot be deleted", nil)
	}

	if err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&k).Association("Products").Clear(); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Komplet{}).Error
	}); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete komplet", err.Error())
	}

	writeOprLog(c, "delete_komplet", "deleted komplet "+k.Name)
	return ok(c, map[string]interface{}{"id": id})
}
