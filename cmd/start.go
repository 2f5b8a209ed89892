/*
Copyright © 2025 careline
*/
package cmd

import (
	"context"
	"log"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/handler"
	"github.com/careline/chatbot-be/middleware"
	"github.com/careline/chatbot-be/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the chat-support server",
	Long:  `Starts the HTTP server: webhook and websocket chat, document management, health and admin endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		ctx := context.Background()
		core, err := buildCore(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to wire services: %v", err)
		}
		defer core.Close(ctx)

		if cfg.Monitor.Enabled {
			if err := core.monitor.Start(); err != nil {
				log.Fatalf("Failed to start recovery monitor: %v", err)
			}
			defer core.monitor.Stop()
		}

		// Initialize handlers
		documentHandler := handler.NewDocumentHandler(core.indexService, core.retrievalService)
		conversationHandler := handler.NewConversationHandler(core.conversationService, core.routerService)
		webhookHandler := handler.NewWebhookHandler(core.routerService)
		healthHandler := handler.NewHealthHandler(core.indexService, core.monitor, core.bookingService, core.storePing())
		adminHandler := handler.NewAdminHandler(core.monitor, core.conversationService)
		wsService := service.NewWebSocketService(core.routerService)

		// Setup Gin router
		router := gin.Default()
		router.Use(handler.CorsMiddleware)

		router.GET("/health", healthHandler.HandleHealth)
		router.GET("/health/vectorstore", healthHandler.HandleVectorstoreHealth)
		router.GET("/health/monitor", healthHandler.HandleMonitorStatus)

		router.GET("/ws/chat", gin.WrapF(wsService.HandleChat))

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/webhook", webhookHandler.HandleWebhook)
			apiV1.POST("/documents/search", documentHandler.HandleSearch)
			apiV1.GET("/conversations", conversationHandler.HandleListConversations)
			apiV1.GET("/conversations/:user_id", conversationHandler.HandleGetConversation)
			apiV1.POST("/conversations/test", conversationHandler.HandleTestRespond)
		}

		// Admin routes - require admin authentication
		adminRoutes := router.Group("/admin/api/v1")
		adminRoutes.Use(middleware.AdminAuthMiddleware())
		{
			adminRoutes.POST("/documents", documentHandler.HandleAddDocument)
			adminRoutes.POST("/documents/bulk", documentHandler.HandleBulkAddDocuments)
			adminRoutes.GET("/documents", documentHandler.HandlePaginateDocuments)
			adminRoutes.DELETE("/documents/:id", documentHandler.HandleDeleteDocument)
			adminRoutes.GET("/documents/:id/vectors", documentHandler.HandleListVectors)
			adminRoutes.POST("/vectorstore/rebuild", adminHandler.HandleTriggerRebuild)
			adminRoutes.POST("/system/reset", adminHandler.HandleSystemReset)
		}

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
