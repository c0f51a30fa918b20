package avatar

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"usermanager/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000IHDR")

func TestRead(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		max      int64
		wantType string
		wantErr  error
	}{
		{name: "png", data: pngHeader, max: 1024, wantType: "image/png"},
		{name: "пустой", data: nil, max: 1024, wantErr: ErrEmpty},
		{name: "слишком большой", data: pngHeader, max: 4, wantErr: ErrTooLarge},
		{name: "текст", data: []byte("hello world"), max: 1024, wantErr: ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ct, err := Read(bytes.NewReader(tt.data), tt.max)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, ct)
			assert.Equal(t, tt.data, data)
		})
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{}, logger.Discard())
	assert.Error(t, err)

	_, err = NewClient(Config{Endpoint: "localhost:9000"}, logger.Discard())
	assert.Error(t, err)
}

// fakeS3 минимальный S3: HEAD бакета и PUT объекта
type fakeS3 struct {
	mu   sync.Mutex
	puts map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.mu.Lock()
		f.puts[r.URL.Path] = r.Header.Get("Content-Type")
		f.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestPutUploadsAndReturnsPublicURL(t *testing.T) {
	fake := &fakeS3{puts: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c, err := NewClient(Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Region:    "us-east-1",
		PublicURL: "https://cdn.example.com/",
	}, logger.Discard())
	require.NoError(t, err)

	require.NoError(t, c.EnsureBucket(context.Background()))

	userID := uuid.New()
	url, err := c.Put(context.Background(), userID, bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/avatars/"+userID.String()+"/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.puts, 1)
	for path, ct := range fake.puts {
		assert.True(t, strings.HasPrefix(path, "/avatars/"+userID.String()))
		assert.Equal(t, "image/png", ct)
	}
}

func TestPutRejectsUnsupportedBeforeUpload(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "127.0.0.1:1", AccessKey: "a", SecretKey: "b", Region: "us-east-1"}, logger.Discard())
	require.NoError(t, err)

	_, err = c.Put(context.Background(), uuid.New(), strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
