package adminapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/internal/webserver"
)

type productPayload struct {
	Brand        string   `json:"brand" validate:"required,min=1,max=100"`
	Model        string   `json:"model" validate:"required,min=1,max=100"`
	SerialNumber string   `json:"serial_number" validate:"omitempty,max=100"`
	Description  string   `json:"description" validate:"omitempty,max=2000"`
	CategoryID   int64    `json:"category_id" validate:"required"`
	Quantity     int      `json:"quantity" validate:"gte=0"`
	Weight       *float64 `json:"weight" validate:"omitempty,gte=0"`
	EanCode      string   `json:"ean_code" validate:"omitempty,max=13"`
	Image        string   `json:"image" validate:"omitempty,max=1024"`
}

type productUpdatePayload struct {
	Brand        *string  `json:"brand" validate:"omitempty,min=1,max=100"`
	Model        *string  `json:"model" validate:"omitempty,min=1,max=100"`
	SerialNumber *string  `json:"serial_number" validate:"omitempty,max=100"`
	Description  *string  `json:"description" validate:"omitempty,max=2000"`
	CategoryID   *int64   `json:"category_id"`
	Quantity     *int     `json:"quantity" validate:"omitempty,gte=0"`
	Weight       *float64 `json:"weight" validate:"omitempty,gte=0"`
	EanCode      *string  `json:"ean_code" validate:"omitempty,max=13"`
	Image        *string  `json:"image" validate:"omitempty,max=1024"`
}

var productSortColumns = map[string]string{
	"id":      "id",
	"brand":   "brand",
	"model":   "model",
	"status":  "status",
	"created": "created_at",
}

// registerProductRoutes registers product CRUD routes
func registerProductRoutes() {
	webserver.ApiGET("/rental/products", listProducts)
	webserver.ApiGET("/rental/products/:id", getProduct)
	webserver.ApiPOST("/rental/products", createProduct)
	webserver.ApiPUT("/rental/products/:id", updateProduct)
	webserver.ApiPUT("/rental/products/:id/retire", retireProduct)
	webserver.ApiDELETE("/rental/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Product{})
	db = likeFilter(db, c.QueryParam("q"), "brand", "model", "code", "serial_number")
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("status = ?", status)
	}
	if cid := c.QueryParam("category_id"); cid != "" {
		db = db.Where("category_id = ?", cid)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	order := "id DESC"
	if col, okk := productSortColumns[c.QueryParam("sort")]; okk {
		order = col
		if c.QueryParam("dir") == "desc" {
			order += " DESC"
		}
	}

	var products []domain.Product
	if err := db.Order(order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	return paged(c, products, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}

	return ok(c, p)
}

func createProduct(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	product := &domain.Product{
		Brand:        payload.Brand,
		Model:        payload.Model,
		SerialNumber: payload.SerialNumber,
		Description:  payload.Description,
		CategoryID:   payload.CategoryID,
		Quantity:     payload.Quantity,
		Weight:       payload.Weight,
		EanCode:      payload.EanCode,
		Image:        payload.Image,
	}
	product, err := GetApp(c).Catalog().CreateProduct(product)
	if err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "create_product", "created product "+product.Label())
	return ok(c, product)
}

func updateProduct(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var payload productUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if payload.Brand != nil {
		updates["brand"] = *payload.Brand
	}
	if payload.Model != nil {
		updates["model"] = *payload.Model
	}
	if payload.SerialNumber != nil {
		updates["serial_number"] = *payload.SerialNumber
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.CategoryID != nil {
		updates["category_id"] = *payload.CategoryID
	}
	if payload.Quantity != nil {
		updates["quantity"] = *payload.Quantity
	}
	if payload.Weight != nil {
		updates["weight"] = *payload.Weight
	}
	if payload.EanCode != nil {
		updates["ean_code"] = *payload.EanCode
	}
	if payload.Image != nil {
		updates["image"] = *payload.Image
	}

	product, err := GetApp(c).Catalog().UpdateProduct(id, updates)
	if err != nil {
		return failDomain(c, err)
	}

	return ok(c, product)
}

// retireProduct withdraws an in-stock product from use permanently.
func retireProduct(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	res := GetDB(c).Model(&domain.Product{}).
		Where("id = ? AND status = ?", id, domain.ItemStatusInStock).
		Update("status", domain.ItemStatusRetired)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retire product", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		var count int64
		GetDB(c).Model(&domain.Product{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
		}
		return fail(c, http.StatusConflict, "CONFLICT", "Only in-stock products can be retired", nil)
	}

	writeOprLog(c, "retire_product", fmt.Sprintf("retired product %d", id))
	return ok(c, map[string]interface{}{"id": id, "status": domain.ItemStatusRetired})
}

func deleteProduct(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}

	if p.Status == domain.ItemStatusCheckedOut {
		return fail(c, http.StatusConflict, "PRODUCT_IN_USE", "Checked-out products cannot be deleted", nil)
	}
	var open int64
	GetDB(c).Model(&domain.BorrowHistory{}).Where("product_id = ? AND return_date IS NULL", id).Count(&open)
	if open > 0 {
		return fail(c, http.StatusConflict, "PRODUCT_IN_USE", "Product has an open loan and cannot be deleted",
			map[string]interface{}{"open_loans": open})
	}

	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}

	writeOprLog(c, "delete_product", "deleted product "+p.Label())
	return ok(c, map[string]interface{}{"id": id})
}
