// Package web provides the identra web server: routing, session transport,
// and background maintenance jobs.
package web

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/identra/identra/config"
	"github.com/identra/identra/logger"
	"github.com/identra/identra/util/common"
	"github.com/identra/identra/util/random"
	"github.com/identra/identra/web/controller"
	"github.com/identra/identra/web/job"
	"github.com/identra/identra/web/middleware"
	"github.com/identra/identra/web/network"
	"github.com/identra/identra/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// Server is the identra web server with its controllers and scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	options config.IdentityOptions

	users *controller.UsersController
	panel *controller.ServerController

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer(options config.IdentityOptions) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		options: options,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// initRouter initializes Gin, registers middleware, the session store and
// the controllers, and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	if webDomain := config.GetWebDomain(); webDomain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(webDomain))
	}

	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	secret := config.GetCookieSecret()
	if secret == "" {
		secret = random.Seq(64)
		logger.Warning("IDENTRA_COOKIE_SECRET not set; sessions will not survive a restart")
	}
	store := cookie.NewStore([]byte(secret))
	engine.Use(sessions.Sessions(s.options.Cookie.Name, store))
	session.Init(s.options.Claims, s.options.Cookie)

	g := engine.Group("/")
	s.users = controller.NewUsersController(g, s.options)
	s.panel = controller.NewServerController(g)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules the background maintenance jobs.
func (s *Server) startTask() {
	s.cron.AddJob("@every 1m", job.NewLockoutResetJob())
	s.cron.AddJob("@daily", job.NewCheckpointJob())
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New()
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	certFile := config.GetCertFile()
	keyFile := config.GetKeyFile()
	if certFile != "" || keyFile != "" {
		if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = network.NewAutoHTTPSListener(listener)
			listener = tls.NewListener(listener, cfg)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{Handler: engine}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	s.startTask()

	return nil
}

// Stop gracefully shuts down the web server and its cron jobs.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(s.ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

// GetCron returns the server's cron scheduler instance.
func (s *Server) GetCron() *cron.Cron { return s.cron }
