// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/haysimo/siteops/internal/api/handlers"
	"github.com/haysimo/siteops/internal/api/middleware"
	"github.com/haysimo/siteops/internal/service"
)

type Services struct {
	Ledger     *service.LedgerService
	Audit      *service.AuditService
	Complaints *service.ComplaintService
	Site       *service.SiteService
	Snapshots  *service.SnapshotService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Ledger != nil && services.Audit != nil {
			ledgerHandler := handlers.NewLedgerHandler(services.Ledger, services.Audit)
			ledgerGroup := apiGroup.Group("/ledger")
			{
				ledgerGroup.POST("/sales", ledgerHandler.RecordSale)
				ledgerGroup.POST("/usage", ledgerHandler.RecordUsage)
				ledgerGroup.POST("/additions", ledgerHandler.RecordAddition)
			}
			apiGroup.GET("/audit", ledgerHandler.ListAuditEntries)
			apiGroup.GET("/inventory", ledgerHandler.GetStock)
			apiGroup.GET("/inventory/cartons", ledgerHandler.GetCartonConversions)
		}

		if services.Complaints != nil {
			complaintHandler := handlers.NewComplaintHandler(services.Complaints)
			complaintGroup := apiGroup.Group("/complaints")
			{
				complaintGroup.POST("", complaintHandler.Open)
				complaintGroup.GET("", complaintHandler.List)
				complaintGroup.GET("/:id", complaintHandler.Get)
				complaintGroup.POST("/:id/resolve", complaintHandler.Resolve)
				complaintGroup.POST("/:id/replies", complaintHandler.AppendReply)
			}
		}

		if services.Site != nil {
			siteHandler := handlers.NewSiteHandler(services.Site)
			employeeGroup := apiGroup.Group("/employees")
			{
				employeeGroup.POST("", siteHandler.CreateEmployee)
				employeeGroup.GET("", siteHandler.ListEmployees)
				employeeGroup.DELETE("/:id", siteHandler.DeleteEmployee)
			}
			machineGroup := apiGroup.Group("/machines")
			{
				machineGroup.POST("", siteHandler.CreateMachine)
				machineGroup.GET("", siteHandler.ListMachines)
				machineGroup.DELETE("/:id", siteHandler.DeleteMachine)
			}
		}

		if services.Snapshots != nil {
			snapshotHandler := handlers.NewSnapshotHandler(services.Snapshots)
			snapshotGroup := apiGroup.Group("/snapshot")
			{
				snapshotGroup.GET("/export", snapshotHandler.Export)
				snapshotGroup.POST("/import", snapshotHandler.Import)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
