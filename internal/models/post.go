package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a post document stored in MongoDB. Likes and
// comments are embedded in the post rather than stored separately.
type Post struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID   `json:"user" bson:"user"`
	Text      string               `json:"text,omitempty" bson:"text,omitempty"`
	Img       string               `json:"img,omitempty" bson:"img,omitempty"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments  []Comment            `json:"comments" bson:"comments"`
	CreatedAt time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updated_at"`
}

// Comment is a comment embedded in a post
type Comment struct {
	UserID    primitive.ObjectID `json:"user" bson:"user"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// LikedBy reports whether userID is in the post's likes set
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l == userID {
			return true
		}
	}
	return false
}

// CreatePostRequest defines the request body for creating a new post.
// Img carries the raw image payload handed to the media host; at least
// one of Text or Img must be present.
type CreatePostRequest struct {
	Text string `json:"text,omitempty"`
	Img  string `json:"img,omitempty"`
}

// CommentRequest defines the request body for commenting on a post
type CommentRequest struct {
	Text string `json:"text"`
}
