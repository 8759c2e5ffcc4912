package ginserver

import (
	"context"
	"net/http"

	gin "github.com/gin-gonic/gin"
)

// LoginService is the credentials half of the session backend. Identity
// is owned by an external service in production; development runs use
// the in-memory implementation.
type LoginService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Revoke(ctx context.Context, token string)
}

type AuthHandler struct {
	Service LoginService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h AuthHandler) Login(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth unavailable"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h AuthHandler) Logout(c *gin.Context) {
	p, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Service != nil {
		h.Service.Revoke(c.Request.Context(), p.Token)
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Me(c *gin.Context) {
	p, ok := requireRole(c, "")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    p.ID,
		"email": p.Email,
		"name":  p.Name,
		"roles": p.Roles,
	})
}

var _ AuthHTTP = AuthHandler{}
