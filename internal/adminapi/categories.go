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

type categoryPayload struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// registerCategoryRoutes registers category CRUD routes
func registerCategoryRoutes() {
	webserver.ApiGET("/rental/categories", listCategories)
	webserver.ApiGET("/rental/categories/:id", getCategory)
	webserver.ApiPOST("/rental/categories", createCategory)
	webserver.ApiPUT("/rental/categories/:id", updateCategory)
	webserver.ApiDELETE("/rental/categories/:id", deleteCategory)
}

func listCategories(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Category{})
	db = likeFilter(db, c.QueryParam("q"), "name")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}

	var categories []domain.Category
	if err := db.Order("name").Offset((page - 1) * pageSize).Limit(pageSize).Find(&categories).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}

	return paged(c, categories, total, page, pageSize)
}

func getCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}

	var cat domain.Category
	if err := GetDB(c).Where("id = ?", id).First(&cat).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query category", err.Error())
	}

	return ok(c, cat)
}

func createCategory(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	cat, err := GetApp(c).Catalog().CreateCategory(payload.Name)
	if err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "create_category", "created category "+cat.Name)
	return ok(c, cat)
}

func updateCategory(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}

	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var cat domain.Category
	if err := GetDB(c).Where("id = ?", id).First(&cat).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query category", err.Error())
	}

	name := strings.TrimSpace(payload.Name)
	if name != cat.Name {
		var exists int64
		GetDB(c).Model(&domain.Category{}).Where("name = ? AND id != ?", name, id).Count(&exists)
		if exists > 0 {
			return fail(c, http.StatusConflict, "CATEGORY_EXISTS", "Category name already exists", nil)
		}
		if err := GetDB(c).Model(&cat).Update("name", name).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update category", err.Error())
		}
		cat.Name = name
	}

	return ok(c, cat)
}

func deleteCategory(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}

	if err := GetApp(c).Catalog().DeleteCategory(id); err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "delete_category", "deleted category")
	return ok(c, map[string]interface{}{"id": id})
}
