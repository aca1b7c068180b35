package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-storefront/internal/service"
	resp "go-storefront/internal/transport/http/response"
)

type ProductHandler struct {
	products *service.ProductService
	log      *zap.Logger
}

func NewProductHandler(products *service.ProductService, log *zap.Logger) *ProductHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductHandler{products: products, log: log}
}

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "invalid product id"))
		return
	}
	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.log.Error("get product failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, "product not found"))
		return
	}
	c.JSON(http.StatusOK, resp.OK(p))
}

// List handles GET /products (the landing-page sections).
func (h *ProductHandler) List(c *gin.Context) {
	home, err := h.products.HomeProducts(c.Request.Context())
	if err != nil {
		h.log.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, ""))
		return
	}
	c.JSON(http.StatusOK, resp.OK(home))
}
