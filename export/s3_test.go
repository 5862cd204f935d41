package export

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Publisher_Publish(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		gotPath, gotBody = r.URL.Path, string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, err := NewS3Publisher(context.Background(), S3Config{
		Bucket:          "clips",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "song_trim.mp3")
	require.NoError(t, os.WriteFile(path, []byte("trimmed"), 0o600))

	url, err := p.Publish(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/clips/song_trim.mp3", gotPath)
	assert.Equal(t, "trimmed", gotBody)
	assert.Equal(t, server.URL+"/clips/song_trim.mp3", url)
}

func TestS3Publisher_MissingFile(t *testing.T) {
	p, err := NewS3Publisher(context.Background(), S3Config{
		Bucket:          "clips",
		Region:          "us-east-1",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
	})
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)
	assert.Equal(t, "https://clips.s3.us-east-1.amazonaws.com/a.mp3", p.objectURL("a.mp3"))
}
