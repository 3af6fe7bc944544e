package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/rutno/clouddrive-go/api/controllers"
	"github.com/rutno/clouddrive-go/api/middlewares"
	"github.com/rutno/clouddrive-go/api/notifyhub"
	"github.com/rutno/clouddrive-go/chunk"
	"github.com/rutno/clouddrive-go/drive"
	"github.com/rutno/clouddrive-go/share"
	"github.com/rutno/clouddrive-go/tool"
)

// Server is the HTTP API server fronting the drive and share subsystems.
type Server struct {
	port    int
	baseURL string

	driveSvc    *drive.Service
	assembler   *chunk.Assembler
	shareEngine *share.Engine
	hub         *notifyhub.Hub

	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

// NewServer creates an API server wiring the given subsystems.
func NewServer(port int, baseURL string, driveSvc *drive.Service, assembler *chunk.Assembler, shareEngine *share.Engine, hub *notifyhub.Hub) *Server {
	return &Server{
		port:        port,
		baseURL:     baseURL,
		driveSvc:    driveSvc,
		assembler:   assembler,
		shareEngine: shareEngine,
		hub:         hub,
	}
}

// Hub returns the event hub so other subsystems can broadcast.
func (s *Server) Hub() *notifyhub.Hub {
	return s.hub
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.Default()
	engine.Use(middlewares.AllowAllCORS())
	engine.Use(gin.Recovery())

	driveCtrl := controllers.NewDriveController(s.driveSvc, s.assembler, s.hub)
	shareCtrl := controllers.NewShareController(s.shareEngine, s.baseURL, s.hub)
	qrCtrl := controllers.NewQRCodeController(s.shareEngine, s.baseURL)

	engine.Any("/api/drive", driveCtrl.HandleAction)
	engine.GET("/api/drive/events", HandleEventsWS(s.hub))

	// The share surface is reachable by anyone holding a link, so it gets
	// per-IP throttling on top of the token checks.
	shared := engine.Group("/api/share", middlewares.RateLimitPerIP(10, 30))
	{
		shared.Any("", shareCtrl.HandleAction)
		shared.GET("/qrcode", qrCtrl.HandleQRCode)
	}

	// Local blob downloads; remote-sink files carry their own URL.
	engine.Static("/data/cc", s.driveSvc.BlobDir())

	return engine
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	engine := s.setupRoutes()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: engine,
	}
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://0.0.0.0:%d", s.port)
	return s.server.ListenAndServe()
}
