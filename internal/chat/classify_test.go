package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ContentKind
	}{
		{"plain text", "¿Aceptas el trueque?", ContentText},
		{"text mentioning jpg", "send me the .jpg please", ContentText},
		{"jpg url", "http://example.com/bike.jpg", ContentImage},
		{"jpeg url uppercase", "https://example.com/photo.JPEG", ContentImage},
		{"png with query", "https://cdn.example.com/a.png?w=500", ContentImage},
		{"gif url", "https://example.com/cat.gif", ContentImage},
		{"webp url", "https://example.com/item.webp", ContentImage},
		{"non-image url", "https://example.com/listing/42", ContentLink},
		{"url with image-ish path segment", "https://example.com/jpg/index.html", ContentLink},
		{"bare https", "https://example.com", ContentLink},
		{"empty", "", ContentText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyContent(tt.content))
		})
	}
}
