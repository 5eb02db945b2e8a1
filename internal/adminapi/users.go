package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/internal/rental"
	"github.com/talkincode/toughrent/internal/webserver"
)

type registerPayload struct {
	Username string `json:"username" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Realname string `json:"realname" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Level    string `json:"level" validate:"omitempty,oneof=user staff admin"`
	Nickname string `json:"nickname" validate:"omitempty,max=50"`
}

type profilePayload struct {
	Realname *string `json:"realname" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Nickname *string `json:"nickname" validate:"omitempty,max=50"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=1024"`
}

type passwordPayload struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// registerUserRoutes registers account routes
func registerUserRoutes() {
	webserver.ApiGET("/rental/users", listUsers)
	webserver.ApiPOST("/rental/users", registerUser)
	webserver.ApiGET("/rental/users/me", getMe)
	webserver.ApiPUT("/rental/users/me", updateMe)
	webserver.ApiPUT("/rental/users/me/password", changeMyPassword)
}

func listUsers(c echo.Context) error {
	if !GetIdentity(c).Admin() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin level required", nil)
	}
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.SysUser{})
	db = likeFilter(db, c.QueryParam("q"), "username", "realname", "email")
	if level := c.QueryParam("level"); level != "" {
		db = db.Where("level = ?", level)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}

	var users []domain.SysUser
	if err := db.Order("username").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}

	return paged(c, users, total, page, pageSize)
}

// registerUser creates an account; only admins may grant levels above user.
func registerUser(c echo.Context) error {
	ident := GetIdentity(c)
	if !ident.Admin() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin level required", nil)
	}
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse user parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	user, err := GetApp(c).Users().Register(rental.RegisterInput{
		Username: payload.Username,
		Password: payload.Password,
		Realname: payload.Realname,
		Email:    payload.Email,
		Level:    payload.Level,
		Nickname: payload.Nickname,
	})
	if err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "register_user", "registered user "+user.Username)
	return ok(c, user)
}

func getMe(c echo.Context) error {
	ident := GetIdentity(c)
	user, profile, err := GetApp(c).Users().Get(ident.ID)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, map[string]interface{}{"user": user, "profile": profile})
}

func updateMe(c echo.Context) error {
	var payload profilePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse profile parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	ident := GetIdentity(c)
	if err := GetApp(c).Users().UpdateProfile(ident.ID, rental.ProfileUpdate{
		Realname: payload.Realname,
		Email:    payload.Email,
		Nickname: payload.Nickname,
		Avatar:   payload.Avatar,
	}); err != nil {
		return failDomain(c, err)
	}

	user, profile, err := GetApp(c).Users().Get(ident.ID)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, map[string]interface{}{"user": user, "profile": profile})
}

func changeMyPassword(c echo.Context) error {
	var payload passwordPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	ident := GetIdentity(c)
	if err := GetApp(c).Users().ChangePassword(ident.ID, payload.OldPassword, payload.NewPassword); err != nil {
		return failDomain(c, err)
	}

	writeOprLog(c, "change_password", "user "+ident.Username+" changed password")
	return ok(c, map[string]interface{}{"id": ident.ID})
}
