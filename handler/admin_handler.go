package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/careline/chatbot-be/service"
	"github.com/careline/chatbot-be/types"
	"github.com/gin-gonic/gin"
)

type AdminHandler interface {
	HandleTriggerRebuild(c *gin.Context)
	HandleSystemReset(c *gin.Context)
}

type adminHandler struct {
	monitor             *service.RecoveryMonitor
	conversationService *service.ConversationService
}

func NewAdminHandler(monitor *service.RecoveryMonitor, conversationService *service.ConversationService) AdminHandler {
	return &adminHandler{
		monitor:             monitor,
		conversationService: conversationService,
	}
}

// HandleTriggerRebuild kicks off a full index rebuild in the background.
// Progress is visible on the monitor status endpoint.
func (h *adminHandler) HandleTriggerRebuild(c *gin.Context) {
	go func() {
		if err := h.monitor.Rebuild(context.Background()); err != nil {
			log.Printf("manual rebuild failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, types.DataResponse{
		Status:  statusSuccess,
		Message: "rebuild started",
	})
}

// HandleSystemReset clears the webhook dedup set. Useful after replaying
// platform events in a test environment.
func (h *adminHandler) HandleSystemReset(c *gin.Context) {
	if err := h.conversationService.ClearProcessed(c); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  statusSuccess,
		Message: "dedup state cleared",
	})
}
