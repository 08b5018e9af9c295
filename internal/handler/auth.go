package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/account"
	"schoolattend/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a bearer token valid for one day.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			badRequest(c, err)
			return
		}
		serverError(c, "login", err)
		return
	}

	token, _, err := auth.Issue(id.User.ID, id.User.Role, h.opts.JWTIssuer, h.opts.JWTSigningKey, h.opts.TokenTTL)
	if err != nil {
		serverError(c, "token issue", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":      id.User.ID,
			"email":   id.User.Email,
			"role":    id.User.Role,
			"name":    id.Name(),
			"details": profileDetails(id),
		},
	})
}

func profileDetails(id account.Identity) any {
	switch {
	case id.Student != nil:
		return id.Student
	case id.Teacher != nil:
		return id.Teacher
	default:
		return nil
	}
}
