package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// NewID returns a collision-resistant opaque identifier
func NewID() string {
	return uuid.NewString()
}

// Slugify derives a URL-safe slug from a display name
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Now is the clock used for all catalog timestamps, in UTC at
// millisecond precision
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
