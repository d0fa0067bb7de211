// Package server wires the application together.
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/tabnote/tabnote/internal/api/http"
	"github.com/tabnote/tabnote/internal/api/middleware"
	"github.com/tabnote/tabnote/internal/domain/attachment"
	"github.com/tabnote/tabnote/internal/domain/document"
	"github.com/tabnote/tabnote/internal/domain/quote"
	"github.com/tabnote/tabnote/internal/domain/refs"
	"github.com/tabnote/tabnote/internal/domain/version"
	"github.com/tabnote/tabnote/internal/infrastructure/config"
	"github.com/tabnote/tabnote/internal/infrastructure/logging"
	"github.com/tabnote/tabnote/internal/infrastructure/monitoring"
	"github.com/tabnote/tabnote/internal/refedit"
	"github.com/tabnote/tabnote/internal/render"
	"github.com/tabnote/tabnote/internal/render/sandbox"
	"github.com/tabnote/tabnote/internal/render/signing"
	"github.com/tabnote/tabnote/internal/ws"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	pool    *sandbox.Pool
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer builds the full application from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		l, err := logging.New(cfg.Logging.Level, false)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		logger = l
	}

	logger.Info("Initializing Tabnote server",
		zap.String("port", cfg.Server.Port),
		zap.String("data_dir", cfg.Storage.DataDir),
	)

	metrics := monitoring.NewMetrics()

	// Entity stores, one directory each under the data dir.
	documents, err := document.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	quotes, err := quote.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open quote store: %w", err)
	}
	attachments, err := attachment.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open attachment store: %w", err)
	}
	versions, err := version.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open version store: %w", err)
	}
	logger.Info("Stores opened",
		zap.Int("documents", documents.Count()),
		zap.Int("quotes", quotes.Count()),
		zap.Int("attachments", attachments.Count()),
	)

	// Attachment URL signing: a local HMAC signer always exists for
	// verification; resolution goes through the remote signer when one
	// is configured.
	localSigner := signing.NewHMACSigner(cfg.Signing.Secret, "")
	var resolverSigner signing.Signer = localSigner
	if cfg.Signing.RemoteAddr != "" {
		resolverSigner = signing.NewRemoteSigner(cfg.Signing.RemoteAddr)
		logger.Info("Using remote attachment signer",
			zap.String("addr", cfg.Signing.RemoteAddr))
	}

	// Render pipeline.
	resolver := render.NewResolver(resolverSigner, cfg.Signing.TTL, logger).WithMetrics(metrics)
	sandboxConfig := sandbox.Config{
		ScriptTimeout:  cfg.Sandbox.ScriptTimeout,
		EnableConsole:  true,
		Sanitize:       cfg.Sandbox.Sanitize,
		PoolSize:       cfg.Sandbox.PoolSize,
		AcquireTimeout: cfg.Sandbox.PoolTimeout,
	}
	builder := sandbox.NewBuilder(sandboxConfig)
	pool := sandbox.NewPool(sandboxConfig)
	sessions := render.NewManager(render.ManagerConfig{
		MinHeightPx:       cfg.Sandbox.MinHeightPx,
		DefaultHeightPx:   cfg.Sandbox.DefaultHeightPx,
		FirstPaintTimeout: cfg.Sandbox.FirstPaintTimeout,
	}, logger, metrics)
	renderer := render.NewService(resolver, builder, sessions, pool, logger, metrics)

	// Reference hydration and edit sessions.
	refService := refs.NewService(documents, quotes, attachments)
	editors := refedit.NewManager(refService, refService, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(
		documents, quotes, attachments, versions,
		refService, editors, renderer, localSigner,
		logger, metrics,
	)
	wsHandler := ws.NewHandler(sessions, logger, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Documents.
	router.GET("/documents", handlers.ListDocuments)
	router.POST("/documents", handlers.CreateDocument)
	router.GET("/documents/:id", handlers.GetDocument)
	router.PUT("/documents/:id", handlers.UpdateDocument)
	router.DELETE("/documents/:id", handlers.DeleteDocument)
	router.GET("/documents/:id/versions", handlers.ListVersions)
	router.GET("/documents/:id/versions/:versionId", handlers.GetVersion)
	router.GET("/documents/:id/export", handlers.ExportDocument)
	router.GET("/documents/:id/references/:kind", handlers.GetReferences)
	router.PUT("/documents/:id/references/:kind", handlers.PutReferences)

	// Quotes.
	router.GET("/quotes", handlers.ListQuotes)
	router.POST("/quotes", handlers.CreateQuote)
	router.GET("/quotes/:id", handlers.GetQuote)
	router.PUT("/quotes/:id", handlers.UpdateQuote)
	router.DELETE("/quotes/:id", handlers.DeleteQuote)
	router.GET("/quotes/:id/references/:kind", handlers.GetReferences)
	router.PUT("/quotes/:id/references/:kind", handlers.PutReferences)

	// Attachments.
	router.GET("/attachments", handlers.ListAttachments)
	router.POST("/attachments", handlers.UploadAttachment)
	router.GET("/attachments/:id", handlers.GetAttachment)
	router.DELETE("/attachments/:id", handlers.DeleteAttachment)
	router.GET("/attachments/:id/blob", handlers.DownloadBlob)
	router.POST("/attachments/sign", handlers.SignAttachments)

	// Reference edit sessions.
	router.POST("/refedit", handlers.OpenEditSession)
	router.GET("/refedit/:id", handlers.GetEditSession)
	router.POST("/refedit/:id/items", handlers.AddEditItem)
	router.DELETE("/refedit/:id/items/:refId", handlers.RemoveEditItem)
	router.POST("/refedit/:id/move", handlers.MoveEditItem)
	router.POST("/refedit/:id/save", handlers.SaveEditSession)
	router.POST("/refedit/:id/discard", handlers.DiscardEditSession)

	// Rendering.
	router.POST("/render", handlers.PostRender)
	router.POST("/render/preview", handlers.PostRenderPreview)
	router.GET("/render/:id", handlers.GetRenderedDocument)
	router.GET("/render/:id/session", handlers.GetRenderSession)

	// Sandbox message stream.
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics.
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	router.GET("/metrics/json", handlers.MetricsJSON)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		pool:    pool,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router exposes the gin engine, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Close releases pooled runtimes and flushes logs.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	if s.pool != nil {
		s.pool.Close()
	}
	s.logger.Sync()
	return nil
}
