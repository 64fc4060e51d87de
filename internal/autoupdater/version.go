package autoupdater

import (
	"github.com/hashicorp/go-version"
)

// isNewer reports whether candidate has a higher precedence than
// running. Both must be valid semantic versions.
func isNewer(candidate string, running *version.Version) (bool, error) {
	cv, err := version.NewVersion(candidate)
	if err != nil {
		return false, &ParseError{Err: err}
	}
	return cv.GreaterThan(running), nil
}
