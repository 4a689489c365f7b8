package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbasnet-dev/reddit-go-backend/internal/models"
	"github.com/sbasnet-dev/reddit-go-backend/internal/service"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Member Request Handler
// ============================================

type RequestHandler struct {
	memberService service.MemberService
}

func (h *RequestHandler) Submit(c *gin.Context) {
	var req models.CreateMemberRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.memberService.SubmitRequest(c.Request.Context(), requesterFrom(c), c.Param("groupId"), req.Message)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toMemberRequestResponse(request))
}

// List serves the nested request collection of a group. Moderators see
// all requests; everyone else sees only their own. Allowed filter:
// status.
func (h *RequestHandler) List(c *gin.Context) {
	page := pageParam(c)
	params := &service.RequestListParams{
		Status: c.Query("status"),
		Page:   page,
	}

	requests, total, err := h.memberService.ListRequests(c.Request.Context(), requesterFrom(c), c.Param("groupId"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]models.MemberRequestResponse, len(requests))
	for i, r := range requests {
		items[i] = toMemberRequestResponse(r)
	}

	c.JSON(http.StatusOK, pageResponse(items, page, types.PageSizeRequests, total))
}

func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.memberService.GetRequest(c.Request.Context(), requesterFrom(c), c.Param("requestId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMemberRequestResponse(request))
}

func (h *RequestHandler) Approve(c *gin.Context) {
	request, err := h.memberService.ApproveRequest(c.Request.Context(), requesterFrom(c), c.Param("requestId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMemberRequestResponse(request))
}

func (h *RequestHandler) Reject(c *gin.Context) {
	request, err := h.memberService.RejectRequest(c.Request.Context(), requesterFrom(c), c.Param("requestId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMemberRequestResponse(request))
}
