package handler

import (
	"errors"
	"strconv"

	"starwheel/internal/config"
	"starwheel/internal/infrastructure/lock"
	"starwheel/internal/model"
	"starwheel/internal/repository"
	"starwheel/internal/service"
	"starwheel/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler bundles the service dependencies behind the HTTP surface.
type Handler struct {
	cfg             *config.Config
	accountService  *service.AccountService
	ledgerService   *service.LedgerService
	spinService     *service.SpinService
	referralService *service.ReferralService
}

func NewHandler(db *gorm.DB, cfg *config.Config, locks lock.Service, spinService *service.SpinService) *Handler {
	return &Handler{
		cfg:             cfg,
		accountService:  service.NewAccountService(db),
		ledgerService:   service.NewLedgerService(db),
		spinService:     spinService,
		referralService: service.NewReferralService(db, cfg, locks),
	}
}

// writeDomainError maps the error taxonomy to business response codes.
// Anything unrecognized is a storage failure: the enclosing unit already
// rolled back, so the caller gets a generic retryable message with no
// partial effect.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrInsufficientFunds):
		response.BusinessError(c, response.CodeInsufficientFunds, "not enough stars")
	case errors.Is(err, repository.ErrNoFriendSpins):
		response.BusinessError(c, response.CodeNoFriendSpins, "no friend spins available")
	case errors.Is(err, repository.ErrAccountNotFound):
		response.BusinessError(c, response.CodeAccountNotFound, "account not found")
	case errors.Is(err, repository.ErrAccountInactive):
		response.BusinessError(c, response.CodeAccountInactive, "account is deactivated")
	case errors.Is(err, service.ErrSelfReferral):
		response.BusinessError(c, response.CodeSelfReferral, "you cannot refer yourself")
	case errors.Is(err, service.ErrDuplicateReferral):
		response.BusinessError(c, response.CodeDuplicateReferral, "user was already referred")
	case errors.Is(err, service.ErrActivationInProgress):
		response.BusinessError(c, response.CodeActivationInProgress, "activation in progress, retry shortly")
	default:
		response.ServerError(c, "temporary failure, please try again")
	}
}

// ============================================================
// Account endpoints
// ============================================================

// GetBalance returns the profile view of one account.
// GET /api/v1/account/balance?user_id=xxx
func (h *Handler) GetBalance(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user_id")
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id":         account.UserID,
		"balance":         account.Balance,
		"lifetime_earned": account.LifetimeEarned,
		"referral_count":  account.ReferralCount,
		"friend_spins":    account.FriendSpins,
		"active":          account.Active,
	})
}

// RechargeRequest is the admin top-up payload.
type RechargeRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// Recharge credits stars to an account.
// POST /api/v1/account/recharge
func (h *Handler) Recharge(c *gin.Context) {
	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	balance, err := h.ledgerService.Recharge(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id": req.UserID,
		"balance": balance,
	})
}

// Deactivate soft-disables an account.
// POST /api/v1/account/deactivate
func (h *Handler) Deactivate(c *gin.Context) {
	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.accountService.Deactivate(c.Request.Context(), req.UserID); err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, gin.H{"user_id": req.UserID, "active": false})
}

// ============================================================
// Spin endpoints
// ============================================================

// SpinRequest selects the spin category; the cost of a normal spin comes
// from server config, never from the client.
type SpinRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Category string `json:"category"`
}

// ExecuteSpin runs one spin.
// POST /api/v1/spin/execute
func (h *Handler) ExecuteSpin(c *gin.Context) {
	var req SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	category := req.Category
	if category == "" {
		category = model.SpinCategoryNormal
	}

	result, err := h.spinService.Spin(c.Request.Context(), req.UserID, category, h.cfg.Business.SpinCost)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, result)
}

// ListSpins returns paginated spin history.
// GET /api/v1/spin/list?user_id=xxx&page=1&page_size=10
func (h *Handler) ListSpins(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user_id")
		return
	}
	page, pageSize := pagination(c)

	records, total, err := h.accountService.ListSpins(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// Referral endpoints
// ============================================================

// ActivateReferralRequest carries the pair parsed from the deep link by
// the bot transport layer.
type ActivateReferralRequest struct {
	ReferrerID int64 `json:"referrer_id" binding:"required"`
	ReferredID int64 `json:"referred_id" binding:"required"`
}

// ActivateReferral records a referral edge and pays the referrer's reward.
// POST /api/v1/referral/activate
func (h *Handler) ActivateReferral(c *gin.Context) {
	var req ActivateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.referralService.Activate(c.Request.Context(), req.ReferrerID, req.ReferredID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, result)
}

// ListReferrals returns the edges of one referrer, for leaderboard feeds.
// GET /api/v1/referral/list?referrer_id=xxx&page=1&page_size=10
func (h *Handler) ListReferrals(c *gin.Context) {
	referrerID, err := strconv.ParseInt(c.Query("referrer_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid referrer_id")
		return
	}
	page, pageSize := pagination(c)

	edges, total, err := h.accountService.ListReferrals(c.Request.Context(), referrerID, page, pageSize)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      edges,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// Ledger endpoints
// ============================================================

// ListTransactions returns the paginated star ledger of one account.
// GET /api/v1/transaction/list?user_id=xxx&page=1&page_size=10
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user_id")
		return
	}
	page, pageSize := pagination(c)

	transactions, total, err := h.accountService.ListTransactions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      transactions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}
