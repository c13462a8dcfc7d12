package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// GenerateTrackingToken returns the opaque token embedded in outbound email
// content. The token is the only link back to a touchpoint; it carries no
// ownership information.
func GenerateTrackingToken(recipient string) string {
	hash := sha256.Sum256([]byte(uuid.New().String() + recipient))
	return base64.URLEncoding.EncodeToString(hash[:])[:20]
}

// GenerateTrackingPixelURL builds the open-tracking pixel URL for a token.
func GenerateTrackingPixelURL(baseURL, token string) string {
	return fmt.Sprintf("%s/track/open/%s.gif", baseURL, token)
}

// GenerateClickTrackURL builds a tracked redirect URL for a link.
func GenerateClickTrackURL(baseURL, token, originalURL string) string {
	return fmt.Sprintf("%s/track/click/%s?url=%s", baseURL, token, url.QueryEscape(originalURL))
}

// InjectTrackingPixel appends the open-tracking pixel to HTML email content.
func InjectTrackingPixel(htmlContent, baseURL, token string) string {
	pixelURL := GenerateTrackingPixelURL(baseURL, token)
	pixel := fmt.Sprintf(`<img src="%s" alt="" width="1" height="1" style="display:none">`, pixelURL)
	return htmlContent + pixel
}
