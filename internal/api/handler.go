// Package api is the editor gateway: HTTP endpoints and a WebSocket session
// that validate condition text the way the bot editor does.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/DamienReichhart/TradeForge-sub000/internal/condition"
	"github.com/DamienReichhart/TradeForge-sub000/internal/events"
	"github.com/DamienReichhart/TradeForge-sub000/internal/monitor"
	"github.com/DamienReichhart/TradeForge-sub000/internal/palette"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/cache"
)

// Server wires HTTP endpoints around the backend client and the event bus.
type Server struct {
	Router  *gin.Engine
	Bus     *events.Bus
	Client  *apiclient.Client
	Cache   *cache.VerdictCache
	Palette *palette.Palette
	Metrics *monitor.GatewayMetrics
	Log     zerolog.Logger
	Opts    Options
}

// Options tunes the gateway. Zero values fall back to the defaults below.
type Options struct {
	Debounce       time.Duration // editor debounce window
	Timeout        time.Duration // bound on one backend validation
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	Version        string
}

func (o *Options) normalize() {
	if o.Debounce <= 0 {
		o.Debounce = condition.DefaultDebounce
	}
	if o.Timeout <= 0 {
		o.Timeout = condition.DefaultTimeout
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.RateLimitRPS <= 0 {
		o.RateLimitRPS = 20
	}
	if o.RateLimitBurst <= 0 {
		o.RateLimitBurst = 40
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
}

func NewServer(bus *events.Bus, client *apiclient.Client, verdicts *cache.VerdictCache, pal *palette.Palette, metrics *monitor.GatewayMetrics, log zerolog.Logger, opts Options) *Server {
	opts.normalize()
	if pal == nil {
		pal = palette.Default()
	}
	if metrics == nil {
		metrics = monitor.NewGatewayMetrics()
	}

	r := gin.New()
	limits := newIPLimiters(opts.RateLimitRPS, opts.RateLimitBurst, log)

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())                      // Panic recovery (first)
	r.Use(RequestIDMiddleware())               // Request ID tracking
	r.Use(RequestLogger(log, metrics))         // Request logging (after ID is set)
	r.Use(RateLimitMiddleware(limits))         // Rate limiting
	r.Use(CORSMiddleware(opts.AllowedOrigins)) // CORS (last before routes)

	s := &Server{
		Router:  r,
		Bus:     bus,
		Client:  client,
		Cache:   verdicts,
		Palette: pal,
		Metrics: metrics,
		Log:     log,
		Opts:    opts,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	// The editor socket is long lived and must not sit behind the timeout.
	s.Router.GET("/ws/editor", AuthMiddleware(), s.editorSocket)

	api := s.Router.Group("/api")
	api.Use(TimeoutMiddleware(s.Opts.RequestTimeout, s.Log))
	{
		api.GET("/metrics", s.getMetrics)
		api.GET("/palette", s.getPalette)
		api.POST("/expressions/precheck", s.precheckExpression)
		api.POST("/indicators/simplified-name", s.simplifiedName)
		api.POST("/examples", s.exampleCondition)

		// Backend validation needs the user's bearer token.
		protected := api.Group("")
		protected.Use(AuthMiddleware())
		{
			protected.POST("/expressions/validate", s.validateExpression)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.Opts.Version})
}

// remoteFor returns the backend validator acting as the given user. Cached
// verdicts are scoped to the exact token, so a token the backend never
// accepted cannot read answers given to another one.
func (s *Server) remoteFor(token string) condition.Remote {
	client := s.Client.WithToken(token)
	if s.Cache == nil {
		return client
	}
	return condition.NewCachedRemote(client, s.Cache, tokenScope(token))
}
