package httpapi

import (
	"shopadmin/catalog/internal/config"

	"github.com/gin-gonic/gin"
)

func NewRouter(cfg config.ServerConfig, catalog CatalogService, editor EditorService) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	router := gin.New()
	router.Use(LoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware(cfg.AllowOrigins))

	categoryHandler := NewCategoryHandler(catalog)
	productHandler := NewProductHandler(catalog)
	tagHandler := NewTagHandler(catalog)
	deliveryHandler := NewDeliveryHandler(catalog)
	draftHandler := NewDraftHandler(editor)

	router.GET("/healthz", func(c *gin.Context) {
		Success(c, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		categories := api.Group("/categories")
		{
			categories.GET("/tree", categoryHandler.Tree)
			categories.GET("/options", categoryHandler.Options)
			categories.GET("/:id/path", categoryHandler.Path)
			categories.POST("", categoryHandler.Create)
			categories.PUT("/:id", categoryHandler.Update)
			categories.DELETE("/:id", categoryHandler.Delete)
		}

		products := api.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/filters", productHandler.Filters)
			products.DELETE("/:id", productHandler.Delete)
			products.POST("/:id/tags/:tagId", productHandler.AssignTag)
			products.DELETE("/:id/tags/:tagId", productHandler.UnassignTag)
		}

		tags := api.Group("/tags")
		{
			tags.GET("", tagHandler.List)
			tags.POST("", tagHandler.Create)
			tags.PUT("/:id", tagHandler.Update)
			tags.DELETE("/:id", tagHandler.Delete)
		}

		deliveries := api.Group("/deliveries")
		{
			deliveries.GET("", deliveryHandler.List)
			deliveries.POST("", deliveryHandler.Create)
			deliveries.PUT("/:id", deliveryHandler.Update)
			deliveries.DELETE("/:id", deliveryHandler.Delete)
		}

		drafts := api.Group("/drafts")
		{
			drafts.POST("", draftHandler.Open)
			drafts.GET("/:id", draftHandler.View)
			drafts.DELETE("/:id", draftHandler.Discard)
			drafts.PUT("/:id/levels/:level", draftHandler.Choose)
			drafts.DELETE("/:id/levels/:level", draftHandler.Clear)
			drafts.POST("/:id/commit", draftHandler.Commit)
			drafts.DELETE("/:id/paths/:leaf", draftHandler.Remove)
			drafts.POST("/:id/submit", draftHandler.Submit)
		}

		api.GET("/submissions/:id", draftHandler.Submission)
	}

	return router
}
