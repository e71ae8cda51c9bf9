package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"fulfillment-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		host   string
		secure bool
		err    bool
	}{
		{in: "https://acc.r2.cloudflarestorage.com", host: "acc.r2.cloudflarestorage.com", secure: true},
		{in: "http://localhost:9000", host: "localhost:9000"},
		{in: "minio:9000/", host: "minio:9000", secure: true},
		{in: "", err: true},
		{in: "ftp://x", err: true},
	}

	for _, tt := range tests {
		host, secure, err := parseEndpoint(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.host, host)
		assert.Equal(t, tt.secure, secure)
	}
}

// fakeS3 只实现列举与删除
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	switch {
	case r.Method == http.MethodGet && q.Get("list-type") == "2":
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><Name>uploads</Name><IsTruncated>false</IsTruncated>`)
		for key := range f.objects {
			b.WriteString("<Contents><Key>" + key + "</Key><Size>1</Size></Contents>")
		}
		b.WriteString("</ListBucketResult>")
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(b.String()))

	case r.Method == http.MethodPost && q.Has("delete"):
		body, _ := io.ReadAll(r.Body)
		for key := range f.objects {
			if strings.Contains(string(body), "<Key>"+key+"</Key>") {
				delete(f.objects, key)
			}
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><DeleteResult></DeleteResult>`))

	case r.Method == http.MethodDelete:
		key := strings.TrimPrefix(r.URL.Path, "/uploads/")
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestPurge(t *testing.T) {
	fake := &fakeS3{objects: map[string]bool{"a.png": true, "b.png": true, "dir/c.png": true}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	bucket, err := NewBucket(config.StorageConfig{
		Endpoint:        srv.URL,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "uploads",
		Region:          "auto",
	})
	require.NoError(t, err)
	assert.Equal(t, "uploads", bucket.Name())

	n, err := bucket.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.objects)
}
