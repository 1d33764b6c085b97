package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/audit"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/config"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/inquiry"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/linkedin"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/research"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/screenshot"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	r := gin.Default()
	attachRoutes(r, cfg, db, rdb)
	return r
}

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	shots := screenshot.NewService(cfg.EvidenceDir)
	researchH := NewResearch(research.NewService(db, rdb))
	inquiryH := NewInquiry(inquiry.NewService(db, rdb, shots))
	linkedinH := NewLinkedIn(linkedin.NewService(db, rdb, shots))
	auditH := NewAudit(audit.NewProcessor(db, rdb, shots))
	adminH := NewAdmin(db)

	limiter := NewRateLimiter(cfg.RateLimit, cfg.RateWindow)

	v1 := r.Group("/v1")
	v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)), RateLimitMiddleware(limiter))
	{
		v1.POST("/research", researchH.Create)
		v1.POST("/research/:id/claim", researchH.Claim)
		v1.POST("/research/:id/submit", researchH.Submit)

		v1.POST("/inquiries/:id/claim", inquiryH.Claim)
		v1.POST("/inquiries/:id/submit", inquiryH.Submit)

		v1.POST("/linkedin/:id/claim", linkedinH.Claim)
		v1.POST("/linkedin/:id/steps/:step", linkedinH.SubmitStep)

		v1.POST("/audit/decisions", auditH.Decide)
	}

	admin := v1.Group("/admin")
	admin.Use(RequireRole("Admin"))
	{
		admin.POST("/categories", adminH.CreateCategory)
		admin.POST("/inquiry-tasks", adminH.CreateInquiryTask)
		admin.POST("/category-rules", adminH.UpsertCategoryRule)
		admin.POST("/cooldown-rules", adminH.UpsertCooldownRule)
	}
}
