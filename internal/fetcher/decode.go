package fetcher

import (
	"strings"

	"golang.org/x/net/html/charset"
)

// decodeBody converts body to UTF-8. A charset from the Content-Type header
// or a byte order mark is honored; anything else is read as UTF-8 with
// invalid bytes replaced by U+FFFD.
func decodeBody(body []byte, contentType string) string {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain || name == "utf-8" {
		return strings.ToValidUTF8(string(body), "\uFFFD")
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "\uFFFD")
	}
	return strings.ToValidUTF8(string(decoded), "\uFFFD")
}
