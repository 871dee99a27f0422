package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Service is the boundary to the external media host. Upload accepts a
// raw image payload (base64 data URI or remote URL) and returns a
// stable reference URL; Destroy removes an asset by its public ID.
type Service interface {
	Upload(ctx context.Context, payload string) (string, error)
	Destroy(ctx context.Context, publicID string) error
}

type cloudinaryService struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryService creates a Service backed by Cloudinary
func NewCloudinaryService(cloudName, apiKey, apiSecret string) (Service, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &cloudinaryService{cld: cld}, nil
}

// Upload uploads an image payload and returns its secure URL
func (s *cloudinaryService) Upload(ctx context.Context, payload string) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, payload, uploader.UploadParams{
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("media upload failed: %w", err)
	}
	return result.SecureURL, nil
}

// Destroy removes an image by its public ID
func (s *cloudinaryService) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("media destroy failed: %w", err)
	}
	return nil
}

// PublicIDFromURL derives the media host public ID from a reference
// URL: the last path segment with its extension stripped.
func PublicIDFromURL(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	last := parts[len(parts)-1]
	if i := strings.Index(last, "."); i >= 0 {
		last = last[:i]
	}
	return last
}
