package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/payments"
)

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	numberRe  = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[@$!%*?&]`)
)

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	return lowerRe.MatchString(password) &&
		upperRe.MatchString(password) &&
		numberRe.MatchString(password) &&
		specialRe.MatchString(password)
}

// StatusFromError maps the service error taxonomy onto HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, payments.ErrInvalidSignature):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what a caller may see for err. Server-side failures are
// reduced to a generic message; the detail is only logged.
func PublicMessage(err error) string {
	if StatusFromError(err) >= http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}

// CloudinaryUploader hosts product cover images.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	tags   []string
	logger *slog.Logger
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary, logger *slog.Logger) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cld, tags: []string{"storefront"}, logger: logger}
}

// UploadImages uploads each non-empty path or data URI into folder and
// returns the secure URLs in order.
func (u *CloudinaryUploader) UploadImages(ctx context.Context, images []string, folder string) ([]string, error) {
	urls := make([]string, 0, len(images))
	for i, filePath := range images {
		if strings.TrimSpace(filePath) == "" {
			u.logger.Debug("Skipping empty image path", "index", i)
			continue
		}
		res, err := u.cld.Upload.Upload(ctx, filePath, uploader.UploadParams{
			Folder: folder,
			Tags:   u.tags,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %d: %w", i, err)
		}
		if res.Error.Message != "" {
			return nil, fmt.Errorf("failed to upload image %d: %s", i, res.Error.Message)
		}
		urls = append(urls, res.SecureURL)
	}
	return urls, nil
}
