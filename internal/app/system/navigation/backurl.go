// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g. "/manage/summerfest").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are rejected anywhere in the return URL.
	// They keep POST targets and downloads from becoming redirect targets.
	ExcludedSubpaths []string

	// Fallback is used when no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks the "return" query parameter, then the form value, rejects
// anything that is not a local path, and applies the prefix and subpath
// rules from opts.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}
	if !isLocalPath(ret) {
		return opts.Fallback
	}
	if opts.AllowedPrefix != "" && ret != opts.AllowedPrefix && !strings.HasPrefix(ret, opts.AllowedPrefix+"/") {
		return opts.Fallback
	}
	for _, excluded := range opts.ExcludedSubpaths {
		if strings.Contains(ret, excluded) {
			return opts.Fallback
		}
	}
	return ret
}

// ManageBackURL limits return URLs to the manage pages of one event.
func ManageBackURL(eventURLName, fallback string) BackURLOptions {
	return BackURLOptions{
		AllowedPrefix:    "/manage/" + eventURLName,
		ExcludedSubpaths: []string{"/coordinators", ".csv"},
		Fallback:         fallback,
	}
}

func isLocalPath(s string) bool {
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") && !strings.HasPrefix(s, "/\\")
}
