package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbasnet-dev/reddit-go-backend/internal/models"
	"github.com/sbasnet-dev/reddit-go-backend/internal/service"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Member Handler
// ============================================

type MemberHandler struct {
	memberService service.MemberService
}

// List serves the nested member collection of a group. Allowed filters:
// role (exact), username (exact).
func (h *MemberHandler) List(c *gin.Context) {
	page := pageParam(c)
	params := &service.MemberListParams{
		Role:     c.Query("role"),
		Username: c.Query("username"),
		Page:     page,
	}

	members, total, err := h.memberService.ListMembers(c.Request.Context(), requesterFrom(c), c.Param("groupId"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]models.MemberResponse, len(members))
	for i, m := range members {
		items[i] = toMemberResponse(m)
	}

	c.JSON(http.StatusOK, pageResponse(items, page, types.PageSizeMembers, total))
}

func (h *MemberHandler) Join(c *gin.Context) {
	member, err := h.memberService.Join(c.Request.Context(), requesterFrom(c), c.Param("groupId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toMemberResponse(member))
}

func (h *MemberHandler) Leave(c *gin.Context) {
	if err := h.memberService.Leave(c.Request.Context(), requesterFrom(c), c.Param("groupId")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left group"})
}

func (h *MemberHandler) UpdateRole(c *gin.Context) {
	var req models.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.memberService.UpdateRole(c.Request.Context(), requesterFrom(c), c.Param("groupId"), c.Param("userId"), req.Role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

func (h *MemberHandler) Remove(c *gin.Context) {
	err := h.memberService.Remove(c.Request.Context(), requesterFrom(c), c.Param("groupId"), c.Param("userId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}
