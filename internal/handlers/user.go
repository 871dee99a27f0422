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
	"golang.org/x/crypto/bcrypt"
)

const suggestedSampleSize = 10
const suggestedCount = 4

// UserHandler handles user profile and social graph HTTP requests
type UserHandler struct {
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	mediaService           media.Service
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, mediaSvc media.Service) *UserHandler {
	return &UserHandler{
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		mediaService:           mediaSvc,
	}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/profile/:username", h.GetUserProfile)
	g.GET("/users/suggested", h.GetSuggestedUsers)
	g.POST("/users/follow/:id", h.FollowUnfollowUser)
	g.POST("/users/update", h.UpdateUser)
}

// GetUserProfile returns a public profile by username
func (h *UserHandler) GetUserProfile(c echo.Context) error {
	username := c.Param("username")

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, user)
}

// FollowUnfollowUser toggles the follow relationship with the target
// user. Following emits a notification to the target; unfollowing does
// not.
func (h *UserHandler) FollowUnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID.IsZero() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	// Reject self-follow before any mutation
	if targetID == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "You can't follow/unfollow yourself")
	}

	ctx := c.Request().Context()

	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	currentUser, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if currentUser.IsFollowing(targetID) {
		if err := h.userRepository.RemoveFollow(ctx, currentUserID, targetID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "User unfollowed successfully"})
	}

	if err := h.userRepository.AddFollow(ctx, currentUserID, targetID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	notification := &models.Notification{
		From: currentUserID,
		To:   targetID,
		Type: models.NotificationTypeFollow,
	}
	if err := h.notificationRepository.CreateNotification(ctx, notification); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "User followed successfully"})
}

// GetSuggestedUsers returns a small random sample of users the
// requester does not already follow
func (h *UserHandler) GetSuggestedUsers(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID.IsZero() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ctx := c.Request().Context()

	currentUser, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	sampled, err := h.userRepository.SampleUsers(ctx, currentUserID, suggestedSampleSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	suggested := make([]models.User, 0, suggestedCount)
	for _, user := range sampled {
		if currentUser.IsFollowing(user.ID) {
			continue
		}
		suggested = append(suggested, user)
		if len(suggested) == suggestedCount {
			break
		}
	}

	return c.JSON(http.StatusOK, suggested)
}

// UpdateUser applies a partial profile update; omitted fields keep
// their current value
func (h *UserHandler) UpdateUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID.IsZero() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// A password change requires both current and new password
	if (req.CurrentPassword == "") != (req.NewPassword == "") {
		return echo.NewHTTPError(http.StatusBadRequest, "Please provide both current password and new password")
	}

	if req.CurrentPassword != "" && req.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Current password is incorrect")
		}
		if len(req.NewPassword) < 6 {
			return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 6 characters long")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
		}
		user.Password = string(hashed)
	}

	if req.ProfileImg != "" {
		url, err := h.replaceImage(c, user.ProfileImg, req.ProfileImg)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload image")
		}
		user.ProfileImg = url
	}

	if req.CoverImg != "" {
		url, err := h.replaceImage(c, user.CoverImg, req.CoverImg)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload image")
		}
		user.CoverImg = url
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.Link != "" {
		user.Link = req.Link
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, user)
}

// replaceImage destroys the previous image (best effort) and uploads
// the new payload, returning the new reference URL
func (h *UserHandler) replaceImage(c echo.Context, oldURL, payload string) (string, error) {
	ctx := c.Request().Context()
	if oldURL != "" {
		if err := h.mediaService.Destroy(ctx, media.PublicIDFromURL(oldURL)); err != nil {
			logger.Log.Warn("failed to destroy previous image",
				zap.String("url", oldURL), zap.Error(err))
		}
	}
	return h.mediaService.Upload(ctx, payload)
}
