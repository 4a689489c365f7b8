package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbasnet-dev/reddit-go-backend/internal/models"
	"github.com/sbasnet-dev/reddit-go-backend/internal/service"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Report Handler
// ============================================

type ReportHandler struct {
	reportService service.ReportService
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req models.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.reportService.Create(c.Request.Context(), requesterFrom(c), &service.CreateReportInput{
		PostID:       req.PostID,
		ReportTypeID: req.ReportTypeID,
		Detail:       req.Detail,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReportResponse(report))
}

func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reportService.Get(c.Request.Context(), requesterFrom(c), c.Param("reportId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReportResponse(report))
}

// List serves the nested report collection of a group. Moderators see
// everything; other members only the reports they filed. Allowed
// filters: status, reportType, post.
func (h *ReportHandler) List(c *gin.Context) {
	page := pageParam(c)
	params := &service.ReportListParams{
		Status:       c.Query("status"),
		ReportTypeID: c.Query("reportType"),
		PostID:       c.Query("post"),
		Page:         page,
	}

	reports, total, err := h.reportService.List(c.Request.Context(), requesterFrom(c), c.Param("groupId"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]models.ReportResponse, len(reports))
	for i, r := range reports {
		items[i] = toReportResponse(r)
	}

	c.JSON(http.StatusOK, pageResponse(items, page, types.PageSizeReports, total))
}

func (h *ReportHandler) Resolve(c *gin.Context) {
	report, err := h.reportService.Resolve(c.Request.Context(), requesterFrom(c), c.Param("reportId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReportResponse(report))
}

func (h *ReportHandler) Dismiss(c *gin.Context) {
	report, err := h.reportService.Dismiss(c.Request.Context(), requesterFrom(c), c.Param("reportId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReportResponse(report))
}

// ============================================
// Report Types
// ============================================

func (h *ReportHandler) ListTypes(c *gin.Context) {
	reportTypes, err := h.reportService.ListTypes(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]models.ReportTypeResponse, len(reportTypes))
	for i, rt := range reportTypes {
		items[i] = toReportTypeResponse(rt)
	}

	c.JSON(http.StatusOK, items)
}

func (h *ReportHandler) GetType(c *gin.Context) {
	reportType, err := h.reportService.GetType(c.Request.Context(), c.Param("typeId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReportTypeResponse(reportType))
}
