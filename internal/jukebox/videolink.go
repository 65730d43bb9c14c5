package jukebox

import (
	"regexp"
	"strings"
)

// videoLinkPattern matches links on the recognized hosting domains. It is
// anchored at the start only, so trailing query parameters are allowed.
// Group 6 is the 11-character video id.
var videoLinkPattern = regexp.MustCompile(
	`^(https?://)?(www\.)?` +
		`(youtube|youtu|youtube-nocookie)\.(com|be)/` +
		`(watch\?v=|embed/|v/|.+\?v=)?([^&=%\?]{11})`,
)

const videoIDGroup = 6

// IsValidVideoURL reports whether url has the shape of a supported video link.
// The check is purely syntactic.
func IsValidVideoURL(url string) bool {
	return videoLinkPattern.MatchString(strings.TrimSpace(url))
}

// ExtractVideoID returns the 11-character video id from url, or ok=false when
// url does not match the video link pattern.
func ExtractVideoID(url string) (id string, ok bool) {
	m := videoLinkPattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", false
	}
	return m[videoIDGroup], true
}

// WatchURL builds the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
