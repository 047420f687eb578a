package api

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/servolink/servolink-go/pkg/session"
)

// Controller is the part of the session the API drives.
type Controller interface {
	Submit(cmd session.Command) error
	Status() session.Status
	Accepts(source string) error
	Profile() string
	SourceNames() []string
}

// PortLister lists authorized serial ports.
type PortLister interface {
	ListAuthorizedPorts() []string
}

// Origin tags commands submitted through the API.
const Origin = "http"

// Server serves the HTTP API.
type Server struct {
	ctl       Controller
	ports     PortLister
	logger    *slog.Logger
	startTime time.Time
	version   string
	now       func() time.Time
}

// NewServer creates an API server. ports may be nil. If logger is nil,
// logging is disabled.
func NewServer(ctl Controller, ports PortLister, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		ctl:       ctl,
		ports:     ports,
		logger:    logger,
		startTime: time.Now(),
		version:   version,
		now:       time.Now,
	}
}

// SetupRoutes registers the API routes on r.
func (s *Server) SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/status", s.handleGetStatus)
		api.GET("/ports", s.handleGetPorts)
		api.GET("/system", s.handleGetSystem)

		api.POST("/connect", s.handleConnect)
		api.POST("/disconnect", s.handleDisconnect)
		api.POST("/cycle/:dir", s.handleCycle)
		api.POST("/overlay", s.handleOverlay)
		api.POST("/inputs/:source", s.handleSetInput)
	}
}

// NewEngine builds a gin engine with CORS and the API routes.
// An empty allowOrigins allows every origin.
func NewEngine(s *Server, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowOrigins
	}
	r.Use(cors.New(cfg))

	s.SetupRoutes(r)
	return r
}
