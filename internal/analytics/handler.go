package analytics

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-dashboard/internal/documents"
	"invoice-dashboard/internal/shared/server/respond"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler wires HTTP handlers to the analytics service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the dashboard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", serve(h.Svc.Stats, "Failed to fetch statistics"))
	rg.GET("/invoice-trends", serve(h.Svc.InvoiceTrends, "Failed to fetch invoice trends"))
	rg.GET("/vendors/top10", serve(h.Svc.TopVendors, "Failed to fetch top vendors"))
	rg.GET("/category-spend", serve(h.Svc.CategorySpend, "Failed to fetch category spending"))
	rg.GET("/cash-outflow", serve(h.Svc.CashOutflow, "Failed to fetch cash outflow"))
	rg.GET("/invoices", h.listInvoices)
	rg.GET("/invoices/export", h.exportInvoices)
}

// serve adapts a parameterless aggregate to a handler.
func serve[T any](fn func(context.Context) (T, error), failure string) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := fn(c.Request.Context())
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, failure, err.Error())
			return
		}
		respond.OK(c, out)
	}
}

type listInvoicesRequest struct {
	Search string `form:"search"`
	Status string `form:"status"`
	SortBy string `form:"sortBy" binding:"omitempty,oneof=invoiceDate invoiceId invoiceTotal subTotal totalTax deliveryDate"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
	Page   *int   `form:"page" binding:"omitempty,min=1"`
	Limit  *int   `form:"limit" binding:"omitempty,min=1"`
}

func (r listInvoicesRequest) query() ListQuery {
	q := ListQuery{
		Search: r.Search,
		Status: r.Status,
		SortBy: documents.SortField(r.SortBy),
		Asc:    r.Order == "asc",
	}
	if r.Page != nil {
		q.Page = *r.Page
	}
	if r.Limit != nil {
		q.Limit = *r.Limit
	}
	return q
}

func bindListQuery(c *gin.Context) (ListQuery, bool) {
	var req listInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return ListQuery{}, false
	}
	return req.query(), true
}

func (h *Handler) listInvoices(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}
	page, err := h.Svc.ListInvoices(c.Request.Context(), q)
	if err != nil {
		writeListError(c, err, "Failed to fetch invoices")
		return
	}
	respond.OK(c, page)
}

func (h *Handler) exportInvoices(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}
	data, err := h.Svc.ExportInvoices(c.Request.Context(), q)
	if err != nil {
		writeListError(c, err, "Failed to export invoices")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func writeListError(c *gin.Context, err error, failure string) {
	if errors.Is(err, ErrInvalidQuery) {
		respond.Error(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}
	respond.Error(c, http.StatusInternalServerError, failure, err.Error())
}
