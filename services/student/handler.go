package student

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
	v1.POST("/students", h.register)
	v1.GET("/students", h.getByEmail)
	v1.GET("/students/:studentId", h.get)
}

func (h *handler) register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	st, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *handler) get(c *gin.Context) {
	st, err := h.svc.Get(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handler) getByEmail(c *gin.Context) {
	st, err := h.svc.GetByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if st == nil {
		_ = c.Error(errutil.NotFound("student not found", nil))
		return
	}
	c.JSON(http.StatusOK, st)
}
