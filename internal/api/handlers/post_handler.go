package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbasnet-dev/reddit-go-backend/internal/models"
	"github.com/sbasnet-dev/reddit-go-backend/internal/service"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Post Handler
// ============================================

type PostHandler struct {
	postService service.PostService
}

func (h *PostHandler) Create(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postService.Create(c.Request.Context(), requesterFrom(c), &service.CreatePostInput{
		GroupID: req.GroupID,
		Title:   req.Title,
		URL:     req.URL,
		Body:    req.Body,
		Status:  req.Status,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPostResponse(post))
}

func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.postService.Get(c.Request.Context(), requesterFrom(c), c.Param("postId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPostResponse(post))
}

// List serves posts. Allowed filters: title (contains), author (exact
// username), status, group. Unknown filter values are rejected, not
// ignored.
func (h *PostHandler) List(c *gin.Context) {
	page := pageParam(c)
	params := &service.PostListParams{
		Title:   c.Query("title"),
		Author:  c.Query("author"),
		Status:  c.Query("status"),
		GroupID: c.Query("group"),
		Page:    page,
	}

	posts, total, err := h.postService.List(c.Request.Context(), requesterFrom(c), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]models.PostResponse, len(posts))
	for i, p := range posts {
		items[i] = toPostResponse(p)
	}

	c.JSON(http.StatusOK, pageResponse(items, page, types.PageSizePosts, total))
}

// ListByGroup is the nested form: /groups/:groupId/posts.
func (h *PostHandler) ListByGroup(c *gin.Context) {
	page := pageParam(c)
	params := &service.PostListParams{
		Title:   c.Query("title"),
		Author:  c.Query("author"),
		Status:  c.Query("status"),
		GroupID: c.Param("groupId"),
		Page:    page,
	}

	posts, total, err := h.postService.List(c.Request.Context(), requesterFrom(c), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]models.PostResponse, len(posts))
	for i, p := range posts {
		items[i] = toPostResponse(p)
	}

	c.JSON(http.StatusOK, pageResponse(items, page, types.PageSizePosts, total))
}

func (h *PostHandler) Update(c *gin.Context) {
	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postService.Update(c.Request.Context(), requesterFrom(c), c.Param("postId"), &service.UpdatePostInput{
		Title:  req.Title,
		URL:    req.URL,
		Body:   req.Body,
		Status: req.Status,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *PostHandler) Remove(c *gin.Context) {
	if err := h.postService.Remove(c.Request.Context(), requesterFrom(c), c.Param("postId")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post removed"})
}

// ============================================
// Comments
// ============================================

func (h *PostHandler) AddComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.postService.AddComment(c.Request.Context(), requesterFrom(c), &service.CreateCommentInput{
		PostID:   c.Param("postId"),
		ParentID: req.ParentID,
		Body:     req.Body,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCommentResponse(comment))
}

func (h *PostHandler) ListComments(c *gin.Context) {
	page := pageParam(c)
	comments, total, err := h.postService.ListComments(c.Request.Context(), requesterFrom(c), c.Param("postId"), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]models.CommentResponse, len(comments))
	for i, cm := range comments {
		items[i] = toCommentResponse(cm)
	}

	c.JSON(http.StatusOK, pageResponse(items, page, types.PageSizeComments, total))
}

func (h *PostHandler) UpdateComment(c *gin.Context) {
	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.postService.UpdateComment(c.Request.Context(), requesterFrom(c), c.Param("commentId"), req.Body)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCommentResponse(comment))
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	if err := h.postService.DeleteComment(c.Request.Context(), requesterFrom(c), c.Param("commentId")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

// ============================================
// Votes
// ============================================

func (h *PostHandler) Vote(c *gin.Context) {
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.postService.Vote(c.Request.Context(), requesterFrom(c), c.Param("postId"), req.Value); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "vote recorded"})
}

func (h *PostHandler) Unvote(c *gin.Context) {
	if err := h.postService.Unvote(c.Request.Context(), requesterFrom(c), c.Param("postId")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "vote removed"})
}
