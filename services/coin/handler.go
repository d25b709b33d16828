package coin

import (
	"net/http"

	"nearbyu-loyalty/pkg/db/pagination"
	"nearbyu-loyalty/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type handler struct {
	svc *Service
}

type awardRequest struct {
	StudentEmail string `json:"studentEmail" binding:"required"`
}

func registerHandler(r *gin.Engine, svc *Service) {
	h := &handler{svc: svc}
	v1 := r.Group("/v1")
	v1.POST("/shops/:shopId/awards", h.award)
	v1.GET("/shops/:shopId/eligibility", h.eligibility)
	v1.GET("/shops/:shopId/award-status", h.awardStatus)
	v1.POST("/students/:studentId/redeem", h.redeem)
	v1.POST("/students/:studentId/withdraw", h.withdraw)
	v1.GET("/students/:studentId/wallet/entries", h.walletEntries)
	v1.GET("/students/:studentId/wallet/verify", h.verifyWallet)
}

func awardStatusCode(o AwardOutcome) int {
	switch o {
	case AwardSuccess:
		return http.StatusOK
	case AwardStudentNotFound:
		return http.StatusNotFound
	case AwardRejectedRateLimited:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func (h *handler) award(c *gin.Context) {
	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	res, err := h.svc.AwardCoin(c.Request.Context(), c.Param("shopId"), req.StudentEmail)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(awardStatusCode(res.Outcome), res)
}

func (h *handler) eligibility(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		_ = c.Error(errutil.BadRequest("email query parameter is required", nil))
		return
	}

	ok, err := h.svc.IsEligible(c.Request.Context(), c.Param("shopId"), email, h.svc.clock.Now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligible": ok})
}

func (h *handler) awardStatus(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		_ = c.Error(errutil.BadRequest("email query parameter is required", nil))
		return
	}

	ok, err := h.svc.CanAward(c.Request.Context(), c.Param("shopId"), email, h.svc.clock.Now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canAward": ok})
}

func (h *handler) redeem(c *gin.Context) {
	res, err := h.svc.Redeem(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	code := http.StatusOK
	if res.Outcome != RedeemSuccess {
		code = http.StatusUnprocessableEntity
	}
	c.JSON(code, res)
}

func (h *handler) withdraw(c *gin.Context) {
	res, err := h.svc.Withdraw(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	code := http.StatusOK
	if res.Outcome != WithdrawSuccess {
		code = http.StatusUnprocessableEntity
	}
	c.JSON(code, res)
}

func (h *handler) walletEntries(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		_ = c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	entries, info, err := h.svc.PageWalletEntries(c.Request.Context(), c.Param("studentId"), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "pageInfo": info})
}

func (h *handler) verifyWallet(c *gin.Context) {
	res, err := h.svc.VerifyWalletChain(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
