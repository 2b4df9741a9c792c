// Package api exposes the HTTP surface of HealthDeck.
package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jfarrow/healthdeck/internal/config"
	"github.com/jfarrow/healthdeck/internal/health"
	"github.com/jfarrow/healthdeck/internal/identity"
	"github.com/jfarrow/healthdeck/internal/metrics"
	"github.com/jfarrow/healthdeck/internal/triage"
)

// Server handles the HTTP API
type Server struct {
	app        *fiber.App
	config     *config.Config
	store      *health.Store
	identity   *identity.Service
	classifier *triage.Classifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// New creates a new API server
func New(cfg *config.Config, store *health.Store, ident *identity.Service, classifier *triage.Classifier, m *metrics.Metrics, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{
		app:        app,
		config:     cfg,
		store:      store,
		identity:   ident,
		classifier: classifier,
		metrics:    m,
		logger:     logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Middleware
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	s.app.Use(s.metricsMiddleware())

	// Health check
	s.app.Get("/api/health", s.handleHealth)

	// Prometheus
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	api := s.app.Group("/api")

	// Public routes
	api.Post("/auth/register", s.handleRegister)
	api.Post("/auth/login", s.handleLogin)

	// Protected routes
	protected := api.Use(s.authMiddleware())

	protected.Get("/me", s.handleMe)

	protected.Get("/dashboard", s.handleDashboard)

	// Medications
	protected.Get("/medications", s.handleListMedications)
	protected.Post("/medications", s.handleCreateMedication)
	protected.Get("/medications/stats", s.handleMedicationStats)
	protected.Get("/medications/schedule", s.handleMedicationSchedule)
	protected.Get("/medications/:id", s.handleGetMedication)
	protected.Put("/medications/:id", s.handleUpdateMedication)
	protected.Delete("/medications/:id", s.handleDeleteMedication)
	protected.Post("/medications/:id/side-effects", s.handleAddSideEffect)
	protected.Delete("/medications/:id/side-effects", s.handleRemoveSideEffect)

	// Symptoms
	protected.Get("/symptoms", s.handleListSymptoms)
	protected.Post("/symptoms/analyze", s.handleAnalyzeSymptoms)
	protected.Get("/symptoms/insights", s.handleSymptomInsights)

	// Journal
	protected.Get("/journal", s.handleListJournal)
	protected.Post("/journal", s.handleCreateJournal)

	// Vitals
	protected.Get("/vitals", s.handleListVitals)
	protected.Post("/vitals", s.handleCreateVitals)

	// Appointments
	protected.Get("/appointments", s.handleListAppointments)
	protected.Post("/appointments", s.handleCreateAppointment)
	protected.Put("/appointments/:id", s.handleUpdateAppointment)
}

// Start starts the server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) metricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		method := c.Method()
		s.metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().StatusCode())).Inc()
		s.metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

const userKey = "user"

func (s *Server) authMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(auth, "Bearer ")
		user, err := s.identity.VerifyToken(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *identity.User {
	user, _ := c.Locals(userKey).(*identity.User)
	return user
}
