// Package httpserver exposes the identity and directory operations over
// JSON HTTP. It is thin transport glue: all semantics live in the resolvers.
package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/servista/servista/internal/resolver"
	"github.com/servista/servista/internal/session"
)

// Server wires resolvers into HTTP handlers.
type Server struct {
	clients   *resolver.ClientResolver
	providers *resolver.ProviderResolver

	sessions   session.Store
	sessionTTL time.Duration
	cookieOpts session.CookieOptions

	log *zap.Logger
}

// New constructs the HTTP server wiring.
func New(clients *resolver.ClientResolver, providers *resolver.ProviderResolver,
	sessions session.Store, sessionTTL time.Duration, cookieSecure bool, log *zap.Logger) *Server {
	return &Server{
		clients:    clients,
		providers:  providers,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		cookieOpts: session.CookieOptions{
			Secure:   cookieSecure,
			SameSite: http.SameSiteLaxMode,
		},
		log: log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(Recover(s.log), RequestLogger(s.log))

	c := r.Group("/client")
	{
		c.POST("/register", s.clientRegister)
		c.POST("/login", s.clientLogin)
		c.POST("/forgot-username", s.clientForgotUsername)
		c.POST("/forgot-password", s.clientForgotPassword)
		c.POST("/logout", s.clientLogout)
		c.GET("/self", s.clientSelf)
		c.GET("/:id", s.clientByID)
	}

	p := r.Group("/provider")
	{
		p.POST("/register", s.providerRegister)
		p.POST("/login", s.providerLogin)
		p.POST("/forgot-username", s.providerForgotUsername)
		p.POST("/forgot-password", s.providerForgotPassword)
		p.POST("/logout", s.providerLogout)
		p.POST("/search", s.providerSearch)
		p.GET("/self", s.providerSelf)
		p.GET("/:id", s.providerByID)
	}

	return r
}

// session builds the per-request session manager bound to this
// request/response pair.
func (s *Server) session(c *gin.Context) *session.Manager {
	return session.NewManager(s.sessions, s.sessionTTL, s.cookieOpts, c.Writer, c.Request)
}

// common request shapes shared by both actor kinds

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type forgotUsernameRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	NewUsername string `json:"newUsername"`
}

type forgotPasswordRequest struct {
	UsernameOrEmail   string `json:"usernameOrEmail"`
	OldPassword       string `json:"oldPassword"`
	RepeatNewPassword string `json:"repeatNewPassword"`
	NewPassword       string `json:"newPassword"`
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
}
