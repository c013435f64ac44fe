package notes

import (
	"strings"

	"github.com/gosimple/slug"
)

const (
	// MaxSlugLen is the maximum stored slug length.
	MaxSlugLen = 100

	// SlugWarning is the fixed suffix appended to a colliding slug value in
	// the validation error shown to the user.
	SlugWarning = " - this slug already exists, please provide a unique value!"
)

// Slugify derives a URL-safe slug from a title. Non-Latin scripts are
// transliterated, so e.g. "Заголовок" becomes "zagolovok". The result is
// truncated to MaxSlugLen characters; output is always ASCII so character
// and byte truncation coincide.
func Slugify(title string) string {
	s := slug.Make(title)
	if len(s) > MaxSlugLen {
		s = s[:MaxSlugLen]
	}
	return strings.TrimSuffix(s, "-")
}
