package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/config"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/geo"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/service"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
)

// Client-facing error strings. Mobile clients match on these.
const (
	errTokenRequired      = "token required"
	errLocationRequired   = "token, lat, lng required"
	errBroadcastRequired  = "lat,lng required"
	errInvalidCoordinates = "invalid coordinates"
	errInternal           = "internal error"
	healthProbeIdentity   = "__healthz__"
	healthProbeTimeout    = 3 * time.Second
	storageStatusUp       = "up"
	storageStatusDegraded = "degraded"
)

// Server wires HTTP handlers.
type Server struct {
	app        *fiber.App
	cfg        *config.Config
	logger     zerolog.Logger
	deviceSvc  *service.DeviceService
	broadcasts *service.BroadcastService
	logSvc     *service.DeliveryLogService
	authSvc    *service.AuthService
}

// New builds a server instance.
func New(cfg *config.Config, logger zerolog.Logger, deviceSvc *service.DeviceService, broadcasts *service.BroadcastService, logSvc *service.DeliveryLogService, authSvc *service.AuthService) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		deviceSvc:  deviceSvc,
		broadcasts: broadcasts,
		logSvc:     logSvc,
		authSvc:    authSvc,
	}
	s.app = fiber.New(fiber.Config{
		IdleTimeout:           cfg.HTTP.ReadTimeout,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		AppName:               "sos-broadcast",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(requestLogger(logger))
	s.app.Use(cors.New())
	s.registerRoutes()
	return s
}

// Start listens and serves HTTP traffic.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.cfg.HTTP.Addr).Msg("http server listening")
	return s.app.Listen(s.cfg.HTTP.Addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Get("/", s.handleRoot)
	s.app.Get("/healthz", s.handleHealth)

	s.app.Post("/register", s.handleRegister)
	s.app.Post("/updateLocation", s.handleUpdateLocation)
	s.app.Post("/broadcast", s.handleBroadcast)

	s.app.Post("/auth/login", s.handleLogin)
	s.app.Get("/auth/profile", s.handleProfile)

	admin := s.app.Group("/admin", s.requireAuth)
	admin.Get("/summary", s.handleAdminSummary)
	admin.Get("/devices", s.handleAdminListDevices)
	admin.Get("/devices/:token", s.handleAdminGetDevice)
	admin.Get("/logs", s.handleLogList)
	admin.Get("/logs/count/status", s.handleLogCountStatus)
}

// registerRequest keeps coordinates raw so a bad lat/lng is reported as such
// instead of failing the whole body.
type registerRequest struct {
	Token string          `json:"token"`
	Lat   json.RawMessage `json:"lat"`
	Lng   json.RawMessage `json:"lng"`
}

type locationRequest struct {
	Token string   `json:"token"`
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
}

type broadcastRequest struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Radius *float64 `json:"radius"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(model.OK())
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
	defer cancel()
	status := storageStatusUp
	if _, err := s.deviceSvc.Get(ctx, healthProbeIdentity); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn().Err(err).Msg("storage health probe failed")
		status = storageStatusDegraded
	}
	return c.JSON(fiber.Map{"status": "ok", "storage": status})
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil || strings.TrimSpace(req.Token) == "" {
		return badRequest(c, errTokenRequired)
	}
	lat, latErr := optionalNumber(req.Lat)
	lng, lngErr := optionalNumber(req.Lng)
	if latErr != nil || lngErr != nil {
		return badRequest(c, errInvalidCoordinates)
	}
	ctx := c.UserContext()
	if lat != nil && lng != nil {
		if !geo.ValidLatitude(*lat) || !geo.ValidLongitude(*lng) {
			return badRequest(c, errInvalidCoordinates)
		}
		if _, err := s.deviceSvc.UpdateLocation(ctx, req.Token, *lat, *lng); err != nil {
			return s.fail(c, err, errTokenRequired)
		}
		return c.JSON(model.OK())
	}
	if _, err := s.deviceSvc.Register(ctx, req.Token); err != nil {
		return s.fail(c, err, errTokenRequired)
	}
	return c.JSON(model.OK())
}

func (s *Server) handleUpdateLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := parseBody(c, &req); err != nil ||
		strings.TrimSpace(req.Token) == "" || req.Lat == nil || req.Lng == nil ||
		!geo.ValidLatitude(*req.Lat) || !geo.ValidLongitude(*req.Lng) {
		return badRequest(c, errLocationRequired)
	}
	if _, err := s.deviceSvc.UpdateLocation(c.UserContext(), req.Token, *req.Lat, *req.Lng); err != nil {
		return s.fail(c, err, errLocationRequired)
	}
	return c.JSON(model.OK())
}

func (s *Server) handleBroadcast(c *fiber.Ctx) error {
	var req broadcastRequest
	if err := parseBody(c, &req); err != nil ||
		req.Lat == nil || req.Lng == nil ||
		!geo.ValidLatitude(*req.Lat) || !geo.ValidLongitude(*req.Lng) {
		return badRequest(c, errBroadcastRequired)
	}
	result, err := s.broadcasts.Broadcast(c.UserContext(), model.BroadcastRequest{
		Center: geo.Point{Lat: *req.Lat, Lng: *req.Lng},
		Radius: req.Radius,
		Title:  req.Title,
		Body:   req.Body,
	})
	if err != nil {
		return s.fail(c, err, "")
	}
	return c.JSON(model.Sent(result.Sent))
}

// parseBody decodes the JSON body. An empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	c.Request().Header.SetContentType(fiber.MIMEApplicationJSON)
	return c.BodyParser(out)
}

// optionalNumber decodes a JSON number. Absent and null both yield nil.
func optionalNumber(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(model.Failure(msg))
}

// fail maps service errors to responses. Validation errors use fallback when
// set, otherwise the message behind ErrInvalidArgument.
func (s *Server) fail(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, service.ErrInvalidArgument) {
		msg := fallback
		if msg == "" {
			msg = strings.TrimPrefix(err.Error(), service.ErrInvalidArgument.Error()+": ")
		}
		return badRequest(c, msg)
	}
	s.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.Status(http.StatusInternalServerError).JSON(model.Failure(errInternal))
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		return c.Status(code).JSON(model.Failure(errInternal))
	}
	return c.Status(code).JSON(model.Failure(err.Error()))
}
