// Cat-Corner/config/config.go
package config

const (
	AppVersion = "1.2.0"
	SiteName   = "Cat Corner"

	// Form Limits
	MaxTitleLen       = 200
	MaxBodyLen        = 10000
	MaxCommentLen     = 4000
	MaxDisplayNameLen = 75
	MinPasswordLen    = 12

	// File Upload Limits
	MaxMediaSize    = 30 * 1024 * 1024 // 30MB
	MaxWidth        = 8000
	MaxHeight       = 8000
	ThumbnailWidth  = 320
	ThumbnailHeight = 320

	// Session
	SessionCookieName = "cc_session"
	SessionTTL        = "168h" // 7 days

	// Rate Limiting Defaults
	DefaultRateLimitEvery  = "15s"
	DefaultRateLimitBurst  = 5
	DefaultRateLimitPrune  = "1h"
	DefaultRateLimitExpire = "24h"
)

// AllowedMediaTypes maps accepted upload MIME types to the media type
// stored on the media row.
var AllowedMediaTypes = map[string]string{
	"image/jpeg": "image",
	"image/png":  "image",
	"image/gif":  "gif",
	"video/mp4":  "video",
}
