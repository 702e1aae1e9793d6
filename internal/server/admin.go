package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if !s.authSvc.Enabled() {
		return c.JSON(model.Success("login not required", fiber.Map{
			"token":    "",
			"enabled":  false,
			"username": "guest",
		}))
	}
	token, err := s.authSvc.Authenticate(req.Username, req.Password)
	if err != nil {
		s.logger.Warn().Str("ip", c.IP()).Msg("admin login rejected")
		return c.Status(http.StatusUnauthorized).JSON(model.Failure(err.Error()))
	}
	return c.JSON(model.Success("logged in", fiber.Map{
		"token":    token,
		"enabled":  true,
		"username": s.authSvc.Username(),
	}))
}

func (s *Server) handleProfile(c *fiber.Ctx) error {
	if !s.authSvc.Enabled() {
		return c.JSON(model.Success("ok", fiber.Map{
			"enabled":  false,
			"username": "guest",
		}))
	}
	token := extractBearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return c.Status(http.StatusUnauthorized).JSON(model.Failure("not logged in"))
	}
	claims, err := s.authSvc.Validate(token)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(model.Failure("session expired"))
	}
	return c.JSON(model.Success("ok", fiber.Map{
		"enabled":  true,
		"username": claims.Subject,
	}))
}

func (s *Server) handleAdminSummary(c *fiber.Ctx) error {
	summary, err := s.logSvc.Summary(c.UserContext())
	if err != nil {
		return s.fail(c, err, "")
	}
	return c.JSON(model.Success("ok", summary))
}

func (s *Server) handleAdminListDevices(c *fiber.Ctx) error {
	views, err := s.deviceSvc.ListViews(c.UserContext())
	if err != nil {
		return s.fail(c, err, "")
	}
	return c.JSON(model.Success("ok", views))
}

func (s *Server) handleAdminGetDevice(c *fiber.Ctx) error {
	device, err := s.deviceSvc.Get(c.UserContext(), c.Params("token"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(model.Failure("device not found"))
		}
		return s.fail(c, err, "")
	}
	return c.JSON(model.Success("ok", device))
}

func (s *Server) handleLogList(c *fiber.Ctx) error {
	page, err := s.logSvc.Query(c.UserContext(), parseLogFilter(c))
	if err != nil {
		return s.fail(c, err, "")
	}
	return c.JSON(model.Success("ok", page))
}

func (s *Server) handleLogCountStatus(c *fiber.Ctx) error {
	begin, end := parseTimeRange(c)
	data, err := s.logSvc.CountByStatus(c.UserContext(), begin, end)
	if err != nil {
		return s.fail(c, err, "")
	}
	return c.JSON(model.Success("ok", data))
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	if !s.authSvc.Enabled() {
		return c.Next()
	}
	token := extractBearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return c.Status(http.StatusUnauthorized).JSON(model.Failure("not logged in"))
	}
	claims, err := s.authSvc.Validate(token)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(model.Failure("session expired"))
	}
	c.Locals("username", claims.Subject)
	return c.Next()
}

func extractBearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func parseLogFilter(c *fiber.Ctx) model.DeliveryLogFilter {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize", "10"))
	begin, end := parseTimeRange(c)
	return model.DeliveryLogFilter{
		BroadcastID: c.Query("broadcastId"),
		Status:      c.Query("status"),
		BeginTime:   begin,
		EndTime:     end,
		Page:        page,
		PageSize:    pageSize,
	}
}

func parseTimeRange(c *fiber.Ctx) (*time.Time, *time.Time) {
	return parseTime(c.Query("beginTime")), parseTime(c.Query("endTime"))
}

// queryTimeLayouts are tried in order; date-only values are local midnight.
var queryTimeLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly}

func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range queryTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
