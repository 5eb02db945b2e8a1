package adminapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/internal/webserver"
)

type vendorPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=15"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Street      string `json:"street" validate:"omitempty,max=255"`
	Number      string `json:"number" validate:"omitempty,max=10"`
	PostalCode  string `json:"postal_code" validate:"omitempty,max=10"`
	City        string `json:"city" validate:"omitempty,max=100"`
	Country     string `json:"country" validate:"omitempty,max=100"`
}

// registerVendorRoutes registers repair vendor CRUD routes
func registerVendorRoutes() {
	webserver.ApiGET("/rental/vendors", listVendors)
	webserver.ApiGET("/rental/vendors/:id", getVendor)
	webserver.ApiPOST("/rental/vendors", createVendor)
	webserver.ApiPUT("/rental/vendors/:id", updateVendor)
	webserver.ApiDELETE("/rental/vendors/:id", deleteVendor)
}

func listVendors(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Serwis{})
	db = likeFilter(db, c.QueryParam("q"), "name", "city", "email")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query vendors", err.Error())
	}

	var vendors []domain.Serwis
	if err := db.Order("name").Offset((page - 1) * pageSize).Limit(pageSize).Find(&vendors).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query vendors", err.Error())
	}

	return paged(c, vendors, total, page, pageSize)
}

func getVendor(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid vendor ID", nil)
	}

	var v domain.Serwis
	if err := GetDB(c).Where("id = ?", id).First(&v).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "VENDOR_NOT_FOUND", "Vendor not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query vendor", err.Error())
	}

	return ok(c, v)
}

func createVendor(c echo.Context) error {
	if !GetIdentity(c).Admin() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin level required", nil)
	}
	var payload vendorPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse vendor parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	if payload.Country == "" {
		payload.Country = "Polska"
	}
	vendor := domain.Serwis{
		Name:        strings.TrimSpace(payload.Name),
		PhoneNumber: payload.PhoneNumber,
		Email:       payload.Email,
		Street:      payload.Street,
		Number:      payload.Number,
		PostalCode:  payload.PostalCode,
		City:        payload.City,
		Country:     payload.Country,
	}

	if err := GetDB(c).Create(&vendor).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create vendor", err.Error())
	}

	writeOprLog(c, "create_vendor", "created vendor "+vendor.Name)
	return ok(c, vendor)
}

func updateVendor(c echo.Context) error {
	if !GetIdentity(c).Admin() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid vendor ID", nil)
	}

	var payload vendorPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse vendor parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var v domain.Serwis
	if err := GetDB(c).Where("id = ?", id).First(&v).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "VENDOR_NOT_FOUND", "Vendor not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query vendor", err.Error())
	}

	v.Name = strings.TrimSpace(payload.Name)
	v.PhoneNumber = payload.PhoneNumber
	v.Email = payload.Email
	v.Street = payload.Street
	v.Number = payload.Number
	v.PostalCode = payload.PostalCode
	v.City = payload.City
	if payload.Country != "" {
		v.Country = payload.Country
	}

	if err := GetDB(c).Save(&v).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update vendor", err.Error())
	}

	return ok(c, v)
}

// deleteVendor removes the vendor; existing tickets keep their history with
// the vendor reference cleared.
func deleteVendor(c echo.Context) error {
	if !GetIdentity(c).Admin() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid vendor ID", nil)
	}

	var v domain.Serwis
	if err := GetDB(c).Where("id = ?", id).First(&v).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "VENDOR_NOT_FOUND", "Vendor not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query vendor", err.Error())
	}

	if err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Service{}).
			Where("serwis_id = ?", id).
			Update("serwis_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Serwis{}).Error
	}); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete vendor", err.Error())
	}

	writeOprLog(c, "delete_vendor", "deleted vendor "+v.Name)
	return ok(c, map[string]interface{}{"id": id})
}
