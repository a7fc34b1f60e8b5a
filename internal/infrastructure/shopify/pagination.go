package shopify

import (
	"regexp"
	"strings"
)

// linkNextPattern matches one segment of an RFC 5988 Link header carrying
// rel="next", e.g. <https://shop.myshopify.com/...?page_info=abc>; rel="next"
var linkNextPattern = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="next"`)

// NextPageURL extracts the next page URL from a Link header.
// It returns the empty string when the header carries no next relation.
func NextPageURL(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, segment := range strings.Split(linkHeader, ",") {
		if m := linkNextPattern.FindStringSubmatch(strings.TrimSpace(segment)); m != nil {
			return m[1]
		}
	}
	return ""
}
