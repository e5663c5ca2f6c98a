package media

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantBase string
	}{
		{name: "plain", filename: "poster.png", wantBase: "poster.png"},
		{name: "path stripped", filename: "/tmp/uploads/poster.png", wantBase: "poster.png"},
		{name: "spaces sanitized", filename: "my poster.png", wantBase: "my_poster.png"},
		{name: "empty falls back", filename: "", wantBase: "upload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := objectKey(tt.filename)
			assert.True(t, strings.HasPrefix(key, "events/"), "key %q", key)
			assert.True(t, strings.HasSuffix(key, "_"+tt.wantBase), "key %q", key)
		})
	}
}

func TestNewStore_Providers(t *testing.T) {
	t.Run("s3 requires bucket", func(t *testing.T) {
		_, err := NewStore(StoreConfig{Provider: "s3"}, testLogger)
		require.Error(t, err)
	})

	t.Run("noop", func(t *testing.T) {
		store, err := NewStore(StoreConfig{Provider: "noop"}, testLogger)
		require.NoError(t, err)

		ref, err := store.Upload(context.Background(), &domain.MediaUpload{Filename: "a.png"})
		require.NoError(t, err)
		assert.NotEmpty(t, ref)
		require.NoError(t, store.Delete(context.Background(), ref))
	})

	t.Run("unknown provider degrades to noop", func(t *testing.T) {
		store, err := NewStore(StoreConfig{Provider: "cloudinary"}, testLogger)
		require.NoError(t, err)
		require.NotNil(t, store)
	})
}
