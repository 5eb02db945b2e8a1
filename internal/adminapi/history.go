package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/internal/webserver"
)

// registerHistoryRoutes registers the read-only borrow audit routes
func registerHistoryRoutes() {
	webserver.ApiGET("/rental/history", listMyHistory)
	webserver.ApiGET("/rental/history/all", listAllHistory)
}

func listMyHistory(c echo.Context) error {
	page, pageSize := parsePagination(c)
	ident := GetIdentity(c)

	db := GetDB(c).Model(&domain.BorrowHistory{}).Where("user_id = ?", ident.ID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query borrow history", err.Error())
	}

	var rows []domain.BorrowHistory
	if err := db.Order("borrow_date DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query borrow history", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func listAllHistory(c echo.Context) error {
	if !GetIdentity(c).Staff() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Staff level required", nil)
	}
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.BorrowHistory{})
	if uid := c.QueryParam("user_id"); uid != "" {
		db = db.Where("user_id = ?", uid)
	}
	if pid := c.QueryParam("product_id"); pid != "" {
		db = db.Where("product_id = ?", pid)
	}
	if kid := c.QueryParam("komplet_id"); kid != "" {
		db = db.Where("komplet_id = ?", kid)
	}
	if c.QueryParam("open") == "true" {
		db = db.Where("return_date IS NULL")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query borrow history", err.Error())
	}

	var rows []domain.BorrowHistory
	if err := db.Order("borrow_date DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query borrow history", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}
