package handler

import (
	"net/http"
	"strconv"

	"github.com/careline/chatbot-be/service"
	"github.com/careline/chatbot-be/types"
	"github.com/gin-gonic/gin"
)

type DocumentHandler interface {
	HandleAddDocument(c *gin.Context)
	HandleBulkAddDocuments(c *gin.Context)
	HandlePaginateDocuments(c *gin.Context)
	HandleDeleteDocument(c *gin.Context)
	HandleListVectors(c *gin.Context)
	HandleSearch(c *gin.Context)
}

type documentHandler struct {
	indexService     *service.IndexService
	retrievalService *service.RetrievalService
}

func NewDocumentHandler(indexService *service.IndexService, retrievalService *service.RetrievalService) DocumentHandler {
	return &documentHandler{
		indexService:     indexService,
		retrievalService: retrievalService,
	}
}

func (h *documentHandler) HandleAddDocument(c *gin.Context) {
	var req types.AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  statusError,
			Message: "Invalid request body",
		})
		return
	}

	doc, err := h.indexService.AddDocument(c, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data: types.AddDocumentResponse{
			DocumentID: doc.ID,
			ChunkCount: len(doc.ChunkIDs),
		},
	})
}

func (h *documentHandler) HandleBulkAddDocuments(c *gin.Context) {
	var req types.BulkAddDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  statusError,
			Message: "Invalid request body",
		})
		return
	}

	resp, err := h.indexService.BulkAddDocuments(c, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data:   resp,
	})
}

func (h *documentHandler) HandlePaginateDocuments(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)

	docs, total, err := h.indexService.ListDocuments(c, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data: types.PaginateResponse{
			Total:    total,
			Page:     page,
			Limit:    limit,
			Elements: docs,
		},
	})
}

func (h *documentHandler) HandleDeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := h.indexService.DeleteDocument(c, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
	})
}

func (h *documentHandler) HandleListVectors(c *gin.Context) {
	id := c.Param("id")
	passages, err := h.indexService.ListVectors(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data:   passages,
	})
}

func (h *documentHandler) HandleSearch(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  statusError,
			Message: "Invalid request body",
		})
		return
	}

	minScore := req.MinScore
	if minScore == 0 {
		minScore = -1 // take the configured floor
	}
	hits, err := h.retrievalService.Retrieve(c, req.Query, req.Limit, minScore, req.Filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data:   hits,
	})
}
