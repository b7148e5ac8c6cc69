package probe

import (
	"net/url"
	"regexp"
	"strings"
)

// faviconLinkPatterns matches <link rel="icon"|"shortcut icon"
// href="..."> tags in either attribute order, plus apple-touch-icon,
// tolerant of attribute ordering and quote style — mirroring the
// original tool's organization-mode favicon discovery.
var faviconLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<link[^>]*rel=["'](?:shortcut )?icon["'][^>]*href=["']([^"']+)["']`),
	regexp.MustCompile(`(?is)<link[^>]*href=["']([^"']+)["'][^>]*rel=["'](?:shortcut )?icon["']`),
	regexp.MustCompile(`(?is)<link[^>]*rel=["']apple-touch-icon["'][^>]*href=["']([^"']+)["']`),
}

// discoverFaviconPath scans html for a <link> favicon tag and
// resolves its href into a request path. Returns "/favicon.ico" if no
// tag is found or the href cannot be resolved.
func discoverFaviconPath(html string) string {
	for _, re := range faviconLinkPatterns {
		match := re.FindStringSubmatch(html)
		if match == nil {
			continue
		}
		if path := resolveFaviconHref(match[1]); path != "" {
			return path
		}
	}
	return "/favicon.ico"
}

func resolveFaviconHref(href string) string {
	switch {
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		return u.Path
	case strings.HasPrefix(href, "//"):
		u, err := url.Parse("https:" + href)
		if err != nil {
			return ""
		}
		return u.Path
	case strings.HasPrefix(href, "/"):
		return href
	default:
		return "/" + href
	}
}
