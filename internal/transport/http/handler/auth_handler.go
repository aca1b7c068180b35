package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-storefront/internal/core/auth"
	"go-storefront/internal/domain"
	"go-storefront/internal/service"
	mdw "go-storefront/internal/transport/http/middleware"
	resp "go-storefront/internal/transport/http/response"
)

type AuthHandler struct {
	gate  *service.AuthGate
	users domain.UserRepository
	jwter *auth.JWTer
	log   *zap.Logger
}

func NewAuthHandler(gate *service.AuthGate, users domain.UserRepository, jwter *auth.JWTer, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{gate: gate, users: users, jwter: jwter, log: log}
}

type registerIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"omitempty,max=64"`
}

// Register handles POST /auth/register. Unlike login, failures here are
// specific: missing fields → 400, duplicate email → 409.
func (h *AuthHandler) Register(c *gin.Context) {
	var in registerIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "email and password required"))
		return
	}
	id, err := h.gate.Register(c.Request.Context(), in.Email, in.Password, in.Name)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "email and password required"))
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, resp.Error(resp.CodeConflict, "email already exists"))
	case err != nil:
		h.log.Error("register failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
	default:
		c.JSON(http.StatusCreated, resp.OK(gin.H{"userId": id.ID}))
	}
}

type loginIn struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginOut struct {
	Token string           `json:"token"`
	User  *domain.Identity `json:"user"`
}

// Login handles POST /auth/login. Every authentication failure — bad
// password, unknown email, lockout — comes back as the same generic 401
// so callers can't probe which one occurred.
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "email and password required"))
		return
	}
	id, err := h.gate.Authorize(c.Request.Context(), in.Email, in.Password)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "email and password required"))
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrTooManyAttempts):
		c.JSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "invalid email or password"))
	case err != nil:
		h.log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
	default:
		tok, e := h.jwter.Issue(id.ID, id.Email, id.Role)
		if e != nil {
			h.log.Error("issue token failed", zap.Error(e))
			c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
			return
		}
		c.JSON(http.StatusOK, resp.OK(loginOut{Token: tok, User: id}))
	}
}

// Me handles GET /me on the JWT-gated group.
func (h *AuthHandler) Me(c *gin.Context) {
	uid := c.GetString(mdw.KeyUserID)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "unauthorized"))
		return
	}
	u, err := h.users.FindByID(c.Request.Context(), uid)
	if err != nil {
		h.log.Error("load user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, "user not found"))
		return
	}
	c.JSON(http.StatusOK, resp.OK(domain.NewIdentity(u)))
}
