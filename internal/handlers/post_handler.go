package handlers

import (
	"errors"
	"net/http"

	"github.com/chirpnest/backend/internal/media"
	"github.com/chirpnest/backend/internal/models"
	"github.com/chirpnest/backend/internal/repositories"
	"github.com/chirpnest/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	mediaService           media.Service
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	mediaSvc media.Service,
) *PostHandler {
	return &PostHandler{
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		mediaService:           mediaSvc,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/posts/all", h.GetAllPosts)
	g.GET("/posts/following", h.GetFollowingPosts)
	g.GET("/posts/user/:username", h.GetUserPosts)
	g.GET("/posts/likes/:id", h.GetLikedPosts)
	g.POST("/posts/create", h.CreatePost)
	g.POST("/posts/like/:id", h.LikeUnlikePost)
	g.POST("/posts/comment/:id", h.CommentOnPost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// EnrichedComment is a comment with its author's public fields attached
type EnrichedComment struct {
	models.Comment
	Author models.UserCompact `json:"author"`
}

// EnrichedPost is a post with author and comment-author info attached
type EnrichedPost struct {
	models.Post
	Author   models.UserCompact `json:"author"`
	Comments []EnrichedComment  `json:"comments"`
}

// CreatePost creates a new post. At least one of text or image is
// required; a raw image payload is exchanged for a stable media URL.
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID.IsZero() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ctx := c.Request().Context()

	if _, err := h.userRepository.GetUserByID(ctx, currentUserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	if req.Text == "" && req.Img == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Text or image is required")
	}

	img := req.Img
	if img != "" {
		url, err := h.mediaService.Upload(ctx, img)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload image")
		}
		img = url
	}

	post := &models.Post{
		UserID: currentUserID,
		Text:   req.Text,
		Img:    img,
	}

	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, post)
}

// DeletePost deletes a post owned by the requester. The media delete is
// best effort; a media-host failure does not keep the post around.
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID.IsZero() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if post.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized to delete this post")
	}

	if post.Img != "" {
		if err := h.mediaService.Destroy(ctx, media.PublicIDFromURL(post.Img)); err != nil {
			logger.Log.Warn("failed to destroy post image",
				zap.String("post_id", postID.Hex()), zap.Error(err))
		}
	}

	if err := h.postRepository.DeletePost(ctx, postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}

// CommentOnPost appends a comment to a post and returns the updated
// post
func (h *PostHandler) CommentOnPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID.IsZero() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Text is required")
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	ctx := c.Request().Context()

	comment := models.Comment{
		UserID:    currentUserID,
		Text:      req.Text,
		CreatedAt: timeNow(),
	}

	if err := h.postRepository.AddComment(ctx, postID, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, post)
}

// LikeUnlikePost toggles the requester's like on a post. Liking emits a
// notification to the post owner unless the owner is the requester;
// unliking emits nothing.
func (h *PostHandler) LikeUnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID.IsZero() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if post.LikedBy(currentUserID) {
		if err := h.postRepository.RemoveLike(ctx, postID, currentUserID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if err := h.userRepository.RemoveLikedPost(ctx, currentUserID, postID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "Post unliked successfully"})
	}

	if err := h.postRepository.AddLike(ctx, postID, currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.userRepository.AddLikedPost(ctx, currentUserID, postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// No notification on self-like
	if post.UserID != currentUserID {
		notification := &models.Notification{
			From: currentUserID,
			To:   post.UserID,
			Type: models.NotificationTypeLike,
		}
		if err := h.notificationRepository.CreateNotification(ctx, notification); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Post liked successfully"})
}

// GetAllPosts returns every post, newest first
func (h *PostHandler) GetAllPosts(c echo.Context) error {
	posts, err := h.postRepository.GetAllPosts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPosts(c, posts))
}

// GetFollowingPosts returns posts from users the requester follows,
// newest first. An empty following set yields an empty list.
func (h *PostHandler) GetFollowingPosts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID.IsZero() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts, err := h.postRepository.GetPostsByUsers(ctx, user.Following)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPosts(c, posts))
}

// GetUserPosts returns posts owned by the named user, newest first
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	username := c.Param("username")

	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts, err := h.postRepository.GetPostsByUser(ctx, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPosts(c, posts))
}

// GetLikedPosts returns the posts liked by the given user, newest first
func (h *PostHandler) GetLikedPosts(c echo.Context) error {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts, err := h.postRepository.GetPostsByIDs(ctx, user.LikedPosts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPosts(c, posts))
}

// enrichPosts attaches each post's author and comment authors as
// public compact fields, caching user lookups across the batch
func (h *PostHandler) enrichPosts(c echo.Context, posts []models.Post) []EnrichedPost {
	ctx := c.Request().Context()
	userCache := make(map[primitive.ObjectID]models.UserCompact)

	lookup := func(id primitive.ObjectID) models.UserCompact {
		if compact, ok := userCache[id]; ok {
			return compact
		}
		compact := models.UserCompact{ID: id}
		if user, err := h.userRepository.GetUserByID(ctx, id); err == nil {
			compact = user.ToCompact()
		}
		userCache[id] = compact
		return compact
	}

	enriched := make([]EnrichedPost, len(posts))
	for i, post := range posts {
		comments := make([]EnrichedComment, len(post.Comments))
		for j, comment := range post.Comments {
			comments[j] = EnrichedComment{Comment: comment, Author: lookup(comment.UserID)}
		}
		enriched[i] = EnrichedPost{
			Post:     post,
			Author:   lookup(post.UserID),
			Comments: comments,
		}
	}
	return enriched
}
