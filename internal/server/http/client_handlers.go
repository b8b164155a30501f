package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/servista/servista/internal/model"
)

func (s *Server) clientRegister(c *gin.Context) {
	var req model.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res := s.clients.Register(c.Request.Context(), s.session(c), req)
	c.JSON(http.StatusOK, res)
}

func (s *Server) clientLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res := s.clients.Login(c.Request.Context(), s.session(c), req.UsernameOrEmail, req.Password)
	c.JSON(http.StatusOK, res)
}

func (s *Server) clientForgotUsername(c *gin.Context) {
	var req forgotUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res := s.clients.ForgotUsername(c.Request.Context(), req.Email, req.Password, req.NewUsername)
	c.JSON(http.StatusOK, res)
}

func (s *Server) clientForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ok := s.clients.ForgotPassword(c.Request.Context(),
		req.UsernameOrEmail, req.OldPassword, req.RepeatNewPassword, req.NewPassword)
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func (s *Server) clientLogout(c *gin.Context) {
	ok := s.clients.Logout(c.Request.Context(), s.session(c))
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func (s *Server) clientSelf(c *gin.Context) {
	client, err := s.clients.Self(c.Request.Context(), s.session(c))
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

func (s *Server) clientByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, model.ClientResult{
			Errors: []model.FieldError{{Field: "id", Message: "this id does not exist"}},
		})
		return
	}
	c.JSON(http.StatusOK, s.clients.FindByID(c.Request.Context(), id))
}
