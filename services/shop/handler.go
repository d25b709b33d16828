package shop

import (
	"net/http"

	"nearbyu-loyalty/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type handler struct {
	svc *Service
}

func registerHandler(r *gin.Engine, svc *Service) {
	h := &handler{svc: svc}
	v1 := r.Group("/v1")
	v1.POST("/shops", h.register)
	v1.GET("/shops", h.findByVendor)
	v1.GET("/shops/:shopId", h.get)
}

func (h *handler) register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	sh, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, sh)
}

func (h *handler) get(c *gin.Context) {
	sh, err := h.svc.Get(c.Request.Context(), c.Param("shopId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

func (h *handler) findByVendor(c *gin.Context) {
	vendor := c.Query("vendor")
	if vendor == "" {
		_ = c.Error(errutil.BadRequest("vendor query parameter is required", nil))
		return
	}
	shops, err := h.svc.FindByVendor(c.Request.Context(), vendor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shops": shops})
}
