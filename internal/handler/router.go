package handler

import (
	"starwheel/internal/config"
	"starwheel/internal/infrastructure/lock"
	"starwheel/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires the HTTP surface.
func SetupRouter(db *gorm.DB, cfg *config.Config, locks lock.Service, spinService *service.SpinService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, cfg, locks, spinService)

	api := r.Group("/api/v1")
	{
		account := api.Group("/account")
		{
			account.GET("/balance", h.GetBalance)
			account.POST("/recharge", h.Recharge)
			account.POST("/deactivate", h.Deactivate)
		}

		spin := api.Group("/spin")
		{
			spin.POST("/execute", h.ExecuteSpin)
			spin.GET("/list", h.ListSpins)
		}

		referral := api.Group("/referral")
		{
			referral.POST("/activate", h.ActivateReferral)
			referral.GET("/list", h.ListReferrals)
		}

		transaction := api.Group("/transaction")
		{
			transaction.GET("/list", h.ListTransactions)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
