package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/servista/servista/internal/model"
	"github.com/servista/servista/internal/query"
)

type providerRegisterRequest struct {
	model.Credentials
	Attributes map[string]any `json:"attributes"`
	Address    *model.Address `json:"address"`
}

type providerSearchRequest struct {
	Filters []query.Filter  `json:"filters"`
	Sort    []query.Sort    `json:"sort"`
	Within  *query.Distance `json:"within"`
}

func (s *Server) providerRegister(c *gin.Context) {
	var req providerRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res := s.providers.Register(c.Request.Context(), s.session(c), req.Credentials, req.Attributes, req.Address)
	c.JSON(http.StatusOK, res)
}

func (s *Server) providerLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res := s.providers.Login(c.Request.Context(), s.session(c), req.UsernameOrEmail, req.Password)
	c.JSON(http.StatusOK, res)
}

func (s *Server) providerForgotUsername(c *gin.Context) {
	var req forgotUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res := s.providers.ForgotUsername(c.Request.Context(), req.Email, req.Password, req.NewUsername)
	c.JSON(http.StatusOK, res)
}

func (s *Server) providerForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ok := s.providers.ForgotPassword(c.Request.Context(),
		req.UsernameOrEmail, req.OldPassword, req.RepeatNewPassword, req.NewPassword)
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func (s *Server) providerLogout(c *gin.Context) {
	ok := s.providers.Logout(c.Request.Context(), s.session(c))
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func (s *Server) providerSelf(c *gin.Context) {
	provider, err := s.providers.Self(c.Request.Context(), s.session(c))
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": provider})
}

func (s *Server) providerByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, model.ProviderResult{
			Errors: []model.FieldError{{Field: "id", Message: "this id does not exist"}},
		})
		return
	}
	c.JSON(http.StatusOK, s.providers.FindByID(c.Request.Context(), id))
}

func (s *Server) providerSearch(c *gin.Context) {
	var req providerSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res := s.providers.Search(c.Request.Context(), req.Filters, req.Sort, req.Within)
	c.JSON(http.StatusOK, res)
}
