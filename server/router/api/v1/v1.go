package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/neptotech/betteradvancedpaste/ai/core/llm"
	"github.com/neptotech/betteradvancedpaste/ai/paste"
	"github.com/neptotech/betteradvancedpaste/internal/profile"
	"github.com/neptotech/betteradvancedpaste/store"
)

// Rewrite requests allowed per second and burst, per client.
const (
	rewriteRate  = rate.Limit(1)
	rewriteBurst = 3
)

type APIV1Service struct {
	Profile *profile.Profile
	Paste   *paste.Service
}

type ActionRequest struct {
	Name string `json:"name"`
}

type SubmitRequest struct {
	Text string `json:"text"`
}

type ListOptionsResponse struct {
	Options []*store.PromptOption `json:"options"`
}

func NewAPIV1Service(profile *profile.Profile, svc *paste.Service) *APIV1Service {
	return &APIV1Service{
		Profile: profile,
		Paste:   svc,
	}
}

// RegisterRoutes mounts the palette endpoints on g.
func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	limiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  rewriteRate,
			Burst: rewriteBurst,
		}),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, paste.Result{Status: paste.StatusError, Error: "rate limited"})
		},
	})

	g.GET("/options", s.ListOptions)
	g.POST("/action", s.Action, limiter)
	g.POST("/submit", s.SubmitText, limiter)
}

func (s *APIV1Service) ListOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, ListOptionsResponse{
		Options: s.Paste.Options(c.Request().Context()),
	})
}

func (s *APIV1Service) Action(c echo.Context) error {
	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest(c, "name is required")
	}
	return writeResult(c, s.Paste.Action(c.Request().Context(), req.Name))
}

func (s *APIV1Service) SubmitText(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return writeResult(c, s.Paste.SubmitText(c.Request().Context(), req.Text))
}

func writeResult(c echo.Context, result paste.Result) error {
	return c.JSON(statusFor(result), result)
}

// statusFor maps a rewrite result to an HTTP status. Backend failures are
// 502 since the API itself worked.
func statusFor(result paste.Result) int {
	switch {
	case result.Status == paste.StatusOK:
		return http.StatusOK
	case result.Error == paste.ErrBusy.Error():
		return http.StatusConflict
	case result.Kind == string(llm.KindIO), result.Kind == "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, paste.Result{Status: paste.StatusError, Error: msg})
}
