package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	calls   []string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	f.calls = append(f.calls, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr error
	}{
		{uri: "/tmp/app.apk", want: "/tmp/app.apk"},
		{uri: "relative/app.apk", want: "relative/app.apk"},
		{uri: "file:///tmp/app.apk", want: filepath.FromSlash("/tmp/app.apk")},
		{uri: "content://downloads/1", wantErr: domain.ErrUnsupportedSource},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := LocalPath(tt.uri)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribeLocalFileAndOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.apk")
	require.NoError(t, os.WriteFile(path, []byte("apk-bytes"), 0644))

	file, err := DescribeLocalFile(path)
	require.NoError(t, err)
	assert.Equal(t, "app.apk", file.Name)
	assert.Equal(t, APKMimeType, file.MimeType)
	assert.Equal(t, "file", file.Scheme())

	rc, err := NewLocalFileSource().Open(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "apk-bytes", readAll(t, rc))

	_, err = DescribeLocalFile(dir)
	assert.Error(t, err, "directories are rejected")
	_, err = DescribeLocalFile(filepath.Join(dir, "missing.apk"))
	assert.Error(t, err)
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, APKMimeType, MimeTypeFor("App.APK"))
	assert.Equal(t, "application/json", MimeTypeFor("report.json"))
	assert.Empty(t, MimeTypeFor("noext"))
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://builds/release/app.apk")
	require.NoError(t, err)
	assert.Equal(t, "builds", bucket)
	assert.Equal(t, "release/app.apk", key)

	_, _, err = ParseS3URI("s3://builds")
	assert.Error(t, err)
	_, _, err = ParseS3URI("https://builds/app.apk")
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
}

func TestS3FileSource(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"builds/app.apk": []byte("from-s3")}}
	src := NewS3FileSourceWithClient(fake)

	rc, err := src.Open(context.Background(), domain.FileDescriptor{URI: "s3://builds/app.apk"})
	require.NoError(t, err)
	assert.Equal(t, "from-s3", readAll(t, rc))

	_, err = src.Open(context.Background(), domain.FileDescriptor{URI: "s3://builds/missing.apk"})
	assert.Error(t, err)
	assert.Equal(t, []string{"builds/app.apk", "builds/missing.apk"}, fake.calls)
}

func TestHTTPFileSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app.apk" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("from-http"))
	}))
	defer srv.Close()

	src := NewHTTPFileSource(srv.Client())
	rc, err := src.Open(context.Background(), domain.FileDescriptor{URI: srv.URL + "/app.apk"})
	require.NoError(t, err)
	assert.Equal(t, "from-http", readAll(t, rc))

	_, err = src.Open(context.Background(), domain.FileDescriptor{URI: srv.URL + "/gone.apk"})
	assert.Error(t, err)
}

func TestSourceRouter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "local.apk")
	require.NoError(t, os.WriteFile(path, []byte("local"), 0644))

	router := NewSourceRouter()
	router.Register("s3", NewS3FileSourceWithClient(&fakeS3{objects: map[string][]byte{"b/k.apk": []byte("remote")}}))

	rc, err := router.Open(context.Background(), domain.FileDescriptor{URI: path})
	require.NoError(t, err)
	assert.Equal(t, "local", readAll(t, rc))

	rc, err = router.Open(context.Background(), domain.FileDescriptor{URI: "S3://b/k.apk"})
	require.NoError(t, err)
	assert.Equal(t, "remote", readAll(t, rc))

	_, err = router.Open(context.Background(), domain.FileDescriptor{URI: "ftp://host/x.apk"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
}

func TestDescribeURI(t *testing.T) {
	file, err := DescribeURI("s3://builds/release/app.apk")
	require.NoError(t, err)
	assert.Equal(t, domain.FileDescriptor{URI: "s3://builds/release/app.apk", Name: "app.apk", MimeType: APKMimeType}, file)

	file, err = DescribeURI("https://cdn.example.com/dl/app.apk?sig=abc")
	require.NoError(t, err)
	assert.Equal(t, "app.apk", file.Name)

	_, err = DescribeURI("https://cdn.example.com/")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "local.apk")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	file, err = DescribeURI(path)
	require.NoError(t, err)
	assert.Equal(t, "local.apk", file.Name)
	assert.Equal(t, "file", file.Scheme())
}
