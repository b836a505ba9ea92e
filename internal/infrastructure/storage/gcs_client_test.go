package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		object string
		ok     bool
	}{
		{"public url", "https://storage.googleapis.com/lf-bucket/reports/a.jpg", "reports/a.jpg", true},
		{"public url with query", "https://storage.googleapis.com/lf-bucket/reports/a.jpg?v=2", "reports/a.jpg", true},
		{"firebase download url", "https://firebasestorage.googleapis.com/v0/b/lf-bucket/o/reports%2Fb.png?alt=media&token=t", "reports/b.png", true},
		{"other bucket", "https://storage.googleapis.com/other/reports/a.jpg", "", false},
		{"other firebase bucket", "https://firebasestorage.googleapis.com/v0/b/other/o/x.png?alt=media", "", false},
		{"bucket root", "https://storage.googleapis.com/lf-bucket/", "", false},
		{"external host", "https://example.com/lf-bucket/a.jpg", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			object, ok := objectName("lf-bucket", tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.object, object)
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", extension("image/jpeg"))
	assert.Equal(t, ".webp", extension("image/webp"))
	assert.Equal(t, ".bin", extension("application/octet-stream"))
}
