package webserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/talkincode/toughrent/internal/app"
	"github.com/talkincode/toughrent/internal/rental"
)

const (
	ContextKeyApp      = "toughrent_app"
	ContextKeyIdentity = "toughrent_identity"
)

var server *WebServer

// WebServer wraps echo with the JWT-protected /api group.
type WebServer struct {
	root *echo.Echo
	api  *echo.Group
	appx *app.Application
}

type webValidator struct {
	validate *validator.Validate
}

func (v *webValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func Init(application *app.Application) *WebServer {
	server = &WebServer{appx: application}
	server.root = echo.New()
	server.root.Pre(middleware.RemoveTrailingSlash())
	server.root.Use(middleware.Recover())
	server.root.HideBanner = true
	server.root.HidePort = true
	server.root.Validator = &webValidator{validate: validator.New()}
	server.root.Use(injectApp(application))

	secret := application.Config().Web.Secret
	server.api = server.root.Group("/api")
	server.api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/api/login":
				return true
			}
			return false
		},
	}))
	server.api.Use(injectIdentity())
	return server
}

// injectApp makes the application reachable from every handler.
func injectApp(application *app.Application) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKeyApp, application)
			return next(c)
		}
	}
}

// injectIdentity converts verified JWT claims into a rental.Identity.
func injectIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return next(c)
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return next(c)
			}
			ident := rental.Identity{
				Username: fmt.Sprintf("%v", claims["usr"]),
				Level:    fmt.Sprintf("%v", claims["lvl"]),
			}
			switch v := claims["uid"].(type) {
			case float64:
				ident.ID = int64(v)
			case string:
				fmt.Sscanf(v, "%d", &ident.ID)
			}
			c.Set(ContextKeyIdentity, ident)
			return next(c)
		}
	}
}

// MakeToken issues a signed JWT for the authenticated user.
func MakeToken(secret string, uid int64, username, level string) (string, error) {
	claims := jwt.MapClaims{
		"uid": fmt.Sprintf("%d", uid),
		"usr": username,
		"lvl": level,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Listen() error {
	cfg := server.appx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.S().Infof("web server listening on %s", addr)
	return server.root.Start(addr)
}

func Shutdown() {
	if server != nil && server.root != nil {
		_ = server.root.Close()
	}
}

// Echo exposes the root engine (used in tests).
func Echo() *echo.Echo {
	return server.root
}

func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(path, h)
}

// PubPOST registers a route outside the JWT guard.
func PubPOST(path string, h echo.HandlerFunc) {
	server.root.POST(path, h)
}

func PubGET(path string, h echo.HandlerFunc) {
	server.root.GET(path, h)
}

// NotFound is echo's default JSON body for convenience in handlers.
func NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{"message": "not found"})
}
