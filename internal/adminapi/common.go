package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/app"
	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/internal/rental"
	"github.com/talkincode/toughrent/internal/webserver"
	"github.com/talkincode/toughrent/pkg/common"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Init registers every admin API route group.
func Init() {
	registerAuthRoutes()
	registerCategoryRoutes()
	registerProductRoutes()
	registerKompletRoutes()
	registerOrderRoutes()
	registerServiceRoutes()
	registerVendorRoutes()
	registerHistoryRoutes()
	registerUserRoutes()
}

// GetApp extracts the application from the request context.
func GetApp(c echo.Context) *app.Application {
	return c.Get(webserver.ContextKeyApp).(*app.Application)
}

// GetDB extracts the gorm handle from the request context.
func GetDB(c echo.Context) *gorm.DB {
	return GetApp(c).DB()
}

// GetIdentity extracts the authenticated caller; zero value when absent.
func GetIdentity(c echo.Context) rental.Identity {
	if ident, ok := c.Get(webserver.ContextKeyIdentity).(rental.Identity); ok {
		return ident
	}
	return rental.Identity{}
}

type apiResponse struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

type pagedData struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, apiResponse{Code: 0, Data: data})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, apiResponse{Code: 1, Error: code, Message: message, Detail: detail})
}

func paged(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, apiResponse{Code: 0, Data: pagedData{
		Items: items, Total: total, Page: page, PageSize: pageSize,
	}})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
}

func handleValidationError(c echo.Context, err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", fields)
	}
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", nil)
}

// failDomain maps workflow errors onto HTTP statuses.
func failDomain(c echo.Context, err error) error {
	switch e := err.(type) {
	case *rental.ValidationError:
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", e.Error(), map[string]string{"field": e.Field})
	case *rental.AvailabilityError:
		return fail(c, http.StatusConflict, "ITEMS_UNAVAILABLE", e.Error(), map[string]interface{}{"items": e.Items})
	case *rental.AuthorizationError:
		return fail(c, http.StatusForbidden, "FORBIDDEN", e.Error(), nil)
	case *rental.InUseError:
		return fail(c, http.StatusConflict, "IN_USE", e.Error(), map[string]interface{}{"count": e.Count})
	case *rental.ConflictError:
		return fail(c, http.StatusConflict, "CONFLICT", e.Error(), nil)
	case *rental.NotFoundError:
		return fail(c, http.StatusNotFound, "NOT_FOUND", e.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed", err.Error())
	}
}

// writeOprLog records a mutating admin action.
func writeOprLog(c echo.Context, action, desc string) {
	ident := GetIdentity(c)
	GetDB(c).Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   ident.Username,
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	})
}

// likeFilter appends a case-insensitive search over the given columns.
func likeFilter(db *gorm.DB, q string, columns ...string) *gorm.DB {
	q = strings.TrimSpace(q)
	if q == "" || len(columns) == 0 {
		return db
	}
	var conds []string
	var args []interface{}
	if strings.EqualFold(db.Name(), "postgres") { //nolint:staticcheck
		for _, col := range columns {
			conds = append(conds, col+" ILIKE ?")
			args = append(args, "%"+q+"%")
		}
	} else {
		for _, col := range columns {
			conds = append(conds, "LOWER("+col+") LIKE ?")
			args = append(args, "%"+strings.ToLower(q)+"%")
		}
	}
	return db.Where(strings.Join(conds, " OR "), args...)
}
