package handlers

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// timeNow is swapped out in tests
var timeNow = time.Now

// getUserIDFromContext returns the session identity attached by the
// auth middleware, or the zero ObjectID when the request carries none.
func getUserIDFromContext(c echo.Context) primitive.ObjectID {
	raw, ok := c.Get("userID").(string)
	if !ok {
		return primitive.NilObjectID
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}
