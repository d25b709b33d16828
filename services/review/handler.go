package review

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
	v1.POST("/shops/:shopId/reviews", h.submit)
	v1.GET("/shops/:shopId/reviews", h.listRecent)
}

func (h *handler) submit(c *gin.Context) {
	var in SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	in.ShopID = c.Param("shopId")

	res, err := h.svc.Submit(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if res.Outcome != SubmitSuccess {
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *handler) listRecent(c *gin.Context) {
	filter, err := ParseFilter(c.Query("filter"))
	if err != nil {
		_ = c.Error(errutil.BadRequest(err.Error(), nil))
		return
	}

	reviews, err := h.svc.ListRecent(c.Request.Context(), c.Param("shopId"), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
