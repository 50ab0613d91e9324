package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invoice-dashboard/internal/shared/metrics"
	"invoice-dashboard/internal/shared/server/respond"
)

// Asker answers a natural-language question with a JSON document.
type Asker interface {
	Ask(ctx context.Context, question string) (json.RawMessage, error)
}

// Handler relays chat queries to the query service.
type Handler struct {
	Client Asker
}

// NewHandler constructs a Handler.
func NewHandler(client Asker) *Handler {
	return &Handler{Client: client}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat-with-data", h.chatWithData)
}

type chatRequest struct {
	Query string `json:"query" binding:"required"`
}

func (h *Handler) chatWithData(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		respond.Error(c, http.StatusBadRequest, "Query is required", "")
		return
	}

	metrics.IncChatRequest()
	data, err := h.Client.Ask(c.Request.Context(), req.Query)
	if err != nil {
		metrics.IncChatFailure()
		respond.Error(c, http.StatusInternalServerError, "Failed to process query", err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
