package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/internal/webserver"
	"github.com/talkincode/toughrent/pkg/common"
)

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// registerAuthRoutes registers the login route; it sits inside /api but is
// excluded from the JWT guard.
func registerAuthRoutes() {
	webserver.ApiPOST("/login", login)
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	appx := GetApp(c)
	user, err := appx.Users().Authenticate(payload.Username, payload.Password)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	}

	token, err := webserver.MakeToken(appx.Config().Web.Secret, user.ID, user.Username, user.Level)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", nil)
	}

	GetDB(c).Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   user.Username,
		OprIp:     c.RealIP(),
		OptAction: "login",
		OptDesc:   "user " + user.Username + " logged in",
		OptTime:   time.Now(),
	})
	return ok(c, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
