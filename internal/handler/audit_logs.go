package handler

import (
	"net/http"

	"supplytrack/internal/dto"
	"supplytrack/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditLogsHandler struct{ svc service.AuditService }

func NewAuditLogsHandler(svc service.AuditService) *AuditLogsHandler {
	return &AuditLogsHandler{svc: svc}
}

// List godoc
// @Summary Audit trail, newest first
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param action query string false "CREATE|UPDATE|DELETE|IMPORT|EXPORT|RECEIVE"
// @Param user query string false "User id"
// @Param date_from query string false "YYYY-MM-DD, inclusive"
// @Param date_to query string false "YYYY-MM-DD, inclusive"
// @Param page query int false "Page (1-based)"
// @Success 200 {object} dto.AuditLogListResponse
// @Router /v1/audit-logs [get]
func (h *AuditLogsHandler) List(c *gin.Context) {
	var filter dto.AuditLogFilter
	if !bindQuery(c, &filter) {
		return
	}
	filter.Page = dto.ParsePage(c.Query("page"))
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
