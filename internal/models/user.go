package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document stored in MongoDB
type User struct {
	ID         primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Username   string               `json:"username" bson:"username"`
	FullName   string               `json:"fullName" bson:"full_name"`
	Email      string               `json:"email" bson:"email"`
	Password   string               `json:"-" bson:"password"` // Store hashed password, ignore for JSON serialization
	Followers  []primitive.ObjectID `json:"followers" bson:"followers"`
	Following  []primitive.ObjectID `json:"following" bson:"following"`
	LikedPosts []primitive.ObjectID `json:"likedPosts" bson:"liked_posts"`
	ProfileImg string               `json:"profileImg" bson:"profile_img"`
	CoverImg   string               `json:"coverImg" bson:"cover_img"`
	Bio        string               `json:"bio" bson:"bio"`
	Link       string               `json:"link" bson:"link"`
	CreatedAt  time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time            `json:"updatedAt" bson:"updated_at"`
}

// UserCompact is the public subset of a user attached to posts,
// comments and notifications
type UserCompact struct {
	ID         primitive.ObjectID `json:"id"`
	Username   string             `json:"username"`
	FullName   string             `json:"fullName"`
	ProfileImg string             `json:"profileImg"`
}

// ToCompact converts a User to its public compact form
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		ProfileImg: u.ProfileImg,
	}
}

// IsFollowing reports whether id is in the user's following set
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}

// HasLiked reports whether postID is in the user's likedPosts set
func (u *User) HasLiked(postID primitive.ObjectID) bool {
	for _, p := range u.LikedPosts {
		if p == postID {
			return true
		}
	}
	return false
}

// SignupRequest defines the request body for account creation
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the request body for starting a session
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest defines the request body for a partial profile
// update; omitted fields keep their current value
type UpdateUserRequest struct {
	FullName        string `json:"fullName,omitempty"`
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	Bio             string `json:"bio,omitempty"`
	Link            string `json:"link,omitempty"`
	ProfileImg      string `json:"profileImg,omitempty"`
	CoverImg        string `json:"coverImg,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
}

// SessionClaims are the custom claims carried by the session cookie
type SessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}
