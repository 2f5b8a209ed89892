package handler

import (
	"fmt"
	"net/http"

	"github.com/careline/chatbot-be/service"
	"github.com/careline/chatbot-be/types"
	"github.com/gin-gonic/gin"
)

type WebhookHandler interface {
	HandleWebhook(c *gin.Context)
}

type webhookHandler struct {
	routerService *service.RouterService
}

func NewWebhookHandler(routerService *service.RouterService) WebhookHandler {
	return &webhookHandler{
		routerService: routerService,
	}
}

// HandleWebhook receives an inbound chat-platform event. Signature
// validation and media transcription happen at the platform gateway; the
// event arriving here is plain text plus optional media context.
func (h *webhookHandler) HandleWebhook(c *gin.Context) {
	var msg types.WebhookMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  statusError,
			Message: "Invalid request body",
		})
		return
	}

	content := msg.Content
	if msg.MediaContext != "" {
		content = fmt.Sprintf("%s\n[%s attachment: %s]", content, msg.MediaType, msg.MediaContext)
	}

	turn, err := h.routerService.Respond(c, msg.ContactID, content, msg.RequestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data:   turn,
	})
}
