package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbasnet-dev/reddit-go-backend/internal/models"
	"github.com/sbasnet-dev/reddit-go-backend/internal/service"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Group Handler
// ============================================

type GroupHandler struct {
	groupService service.GroupService
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), requesterFrom(c), &service.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	memberCount := 1
	c.JSON(http.StatusCreated, toGroupResponse(&service.GroupView{
		Group:       group,
		MemberCount: memberCount,
		Decision:    service.AllowedFull(),
	}))
}

func (h *GroupHandler) Get(c *gin.Context) {
	view, err := h.groupService.Get(c.Request.Context(), requesterFrom(c), c.Param("groupId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupResponse(view))
}

// GetByName resolves a group by its unique name, the form frontends
// use for pretty URLs.
func (h *GroupHandler) GetByName(c *gin.Context) {
	view, err := h.groupService.GetByName(c.Request.Context(), requesterFrom(c), c.Param("name"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupResponse(view))
}

func (h *GroupHandler) List(c *gin.Context) {
	page := pageParam(c)
	params := &service.GroupListParams{
		Name:       c.Query("name"),
		Visibility: c.Query("visibility"),
		Page:       page,
	}

	views, total, err := h.groupService.List(c.Request.Context(), requesterFrom(c), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]models.GroupResponse, len(views))
	for i, v := range views {
		items[i] = toGroupResponse(v)
	}

	c.JSON(http.StatusOK, pageResponse(items, page, types.PageSizeGroups, total))
}

func (h *GroupHandler) Update(c *gin.Context) {
	var req models.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groupService.Update(c.Request.Context(), requesterFrom(c), c.Param("groupId"), &service.UpdateGroupInput{
		Description: req.Description,
		Visibility:  req.Visibility,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	view, err := h.groupService.Get(c.Request.Context(), requesterFrom(c), group.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGroupResponse(view))
}
