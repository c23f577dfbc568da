package chat

import (
	"regexp"
	"strings"
)

// ContentKind classifies message content for rendering. There is no stored
// content type; the kind is inferred from the content string alone.
type ContentKind string

const (
	// ContentImage is a direct link to an image file.
	ContentImage ContentKind = "image"
	// ContentLink is any other http(s) link.
	ContentLink ContentKind = "link"
	// ContentText is plain text.
	ContentText ContentKind = "text"
)

var imageURLRe = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)($|\?)`)

// ClassifyContent infers how a message should be rendered purely from its
// content string.
func ClassifyContent(content string) ContentKind {
	if !strings.HasPrefix(content, "http") {
		return ContentText
	}
	if imageURLRe.MatchString(content) {
		return ContentImage
	}
	return ContentLink
}
