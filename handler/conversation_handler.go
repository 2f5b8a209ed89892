package handler

import (
	"net/http"
	"strconv"

	"github.com/careline/chatbot-be/service"
	"github.com/careline/chatbot-be/types"
	"github.com/gin-gonic/gin"
)

type ConversationHandler interface {
	HandleListConversations(c *gin.Context)
	HandleGetConversation(c *gin.Context)
	HandleTestRespond(c *gin.Context)
}

type conversationHandler struct {
	conversationService *service.ConversationService
	routerService       *service.RouterService
}

func NewConversationHandler(conversationService *service.ConversationService, routerService *service.RouterService) ConversationHandler {
	return &conversationHandler{
		conversationService: conversationService,
		routerService:       routerService,
	}
}

func (h *conversationHandler) HandleListConversations(c *gin.Context) {
	ids, err := h.conversationService.ListUserIDs(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data:   ids,
	})
}

func (h *conversationHandler) HandleGetConversation(c *gin.Context) {
	userID := c.Param("user_id")
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	entries, total, err := h.conversationService.Paginate(c, userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.conversationService.Stats(c, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data: gin.H{
			"stats": stats,
			"entries": types.PaginateResponse{
				Total:    total,
				Page:     page,
				Limit:    limit,
				Elements: entries,
			},
		},
	})
}

// HandleTestRespond runs a chat turn outside any platform webhook. Meant
// for manual testing of the routing pipeline.
func (h *conversationHandler) HandleTestRespond(c *gin.Context) {
	var req types.TestRespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  statusError,
			Message: "Invalid request body",
		})
		return
	}

	turn, err := h.routerService.Respond(c, req.UserID, req.Message, req.RequestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data:   turn,
	})
}
