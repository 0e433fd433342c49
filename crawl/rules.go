// Package crawl — link and identifier rules.
// Provides helpers to filter, normalize, and validate archive links and
// document identifiers.
package crawl

import (
	"net/url"
	"path"
	"strings"
)

// archiveSuffixes are the file name endings of bulk BioC archives.
var archiveSuffixes = []string{".tar.gz", ".tgz"}

// IsArchiveLink checks if a URL points to a tar.gz archive. Checksum
// files such as x.tar.gz.md5 do not match.
func IsArchiveLink(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	name := strings.ToLower(path.Base(parsed.Path))
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return true
		}
	}
	return false
}

// ArchiveName returns the file name part of an archive URL.
func ArchiveName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return path.Base(rawURL)
	}
	return path.Base(parsed.Path)
}

// NormalizeURL strips fragments and trailing slashes for deduplication.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	parsed.Fragment = ""

	// Remove trailing slash (but keep root "/").
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}

// NormalizeIdentifier trims whitespace and a leading byte order mark from
// one line of an identifier file.
func NormalizeIdentifier(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
}
