package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-storefront/internal/domain"
	resp "go-storefront/internal/transport/http/response"
)

type AdminHandler struct {
	users domain.UserRepository
	log   *zap.Logger
}

func NewAdminHandler(users domain.UserRepository, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{users: users, log: log}
}

type userRow struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListUsers handles GET /admin/v1/users?offset=&limit=&q=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var in struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"`
	}
	if err := c.ShouldBindQuery(&in); err != nil {
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 20
	}
	users, total, err := h.users.List(c.Request.Context(), in.Q, in.Offset, in.Limit)
	if err != nil {
		h.log.Error("list users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
		return
	}
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{
			ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"total": total, "items": rows}))
}
