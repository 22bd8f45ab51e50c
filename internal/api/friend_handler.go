package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatsync-backend-go/internal/core"
	"chatsync-backend-go/internal/models"
)

// FriendHandler handles the contact directory endpoints.
type FriendHandler struct {
	friendService core.FriendService
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(fs core.FriendService) *FriendHandler {
	return &FriendHandler{friendService: fs}
}

// AddFriend handles POST /api/v1/friends. Adding an existing contact answers
// 200 instead of 201; neither is an error.
func (h *FriendHandler) AddFriend(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.AddFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	created, err := h.friendService.Add(c.Request.Context(), uid, req.FriendUID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, SuccessResponse{Message: "Friend added"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Already a friend"})
}

// ListFriends handles GET /api/v1/friends?cursor=...&limit=n.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 50 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 50"})
			return
		}
		limit = parsed
	}

	friends, next, err := h.friendService.List(c.Request.Context(), uid, c.Query("cursor"), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if friends == nil {
		friends = []models.Friend{}
	}
	c.JSON(http.StatusOK, FriendListResponse{Friends: friends, NextCursor: next})
}

// SearchUsers handles GET /api/v1/friends/search?q=... A blank query returns
// an empty list, not an error.
func (h *FriendHandler) SearchUsers(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	results, err := h.friendService.Search(c.Request.Context(), uid, c.Query("q"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if results == nil {
		results = []*models.User{}
	}
	c.JSON(http.StatusOK, results)
}
