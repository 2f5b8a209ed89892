package handler

import (
	"context"
	"net/http"

	"github.com/careline/chatbot-be/service"
	"github.com/careline/chatbot-be/types"
	"github.com/gin-gonic/gin"
)

type HealthHandler interface {
	HandleHealth(c *gin.Context)
	HandleVectorstoreHealth(c *gin.Context)
	HandleMonitorStatus(c *gin.Context)
}

type healthHandler struct {
	indexService *service.IndexService
	monitor      *service.RecoveryMonitor
	booking      *service.BookingService
	storePing    func(ctx context.Context) error
}

// NewHealthHandler wires the health surface. storePing checks the
// document store backend and may be nil for the memory backend.
func NewHealthHandler(
	indexService *service.IndexService,
	monitor *service.RecoveryMonitor,
	booking *service.BookingService,
	storePing func(ctx context.Context) error,
) HealthHandler {
	return &healthHandler{
		indexService: indexService,
		monitor:      monitor,
		booking:      booking,
		storePing:    storePing,
	}
}

func (h *healthHandler) HandleHealth(c *gin.Context) {
	status := h.monitor.Status()
	components := map[string]string{
		"index": status.State,
	}

	if h.storePing != nil {
		if err := h.storePing(c); err != nil {
			components["store"] = "down"
		} else {
			components["store"] = "up"
		}
	} else {
		components["store"] = "up"
	}

	if h.booking.Healthy(c) {
		components["booking"] = "up"
	} else {
		components["booking"] = "down"
	}

	overall := "ok"
	httpStatus := http.StatusOK
	if components["store"] == "down" || status.State == types.IndexFailed {
		overall = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, types.HealthResponse{
		Status:     overall,
		Components: components,
		Monitor:    &status,
	})
}

// HandleVectorstoreHealth runs a full integrity check on demand.
func (h *healthHandler) HandleVectorstoreHealth(c *gin.Context) {
	report, err := h.indexService.IntegrityCheck(c)
	if err != nil {
		respondError(c, err)
		return
	}

	overall := "ok"
	httpStatus := http.StatusOK
	if report.Corrupt {
		overall = "corrupt"
		httpStatus = http.StatusServiceUnavailable
	}
	status := h.monitor.Status()
	c.JSON(httpStatus, types.HealthResponse{
		Status:    overall,
		Monitor:   &status,
		Integrity: report,
	})
}

func (h *healthHandler) HandleMonitorStatus(c *gin.Context) {
	status := h.monitor.Status()
	c.JSON(http.StatusOK, types.DataResponse{
		Status: statusSuccess,
		Data:   status,
	})
}
