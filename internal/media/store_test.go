package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/storage"
)

var fixedNow = time.UnixMilli(1700000000123)

func newLocalStore(t *testing.T, opts ...Option) (string, *Store) {
	t.Helper()
	dir := t.TempDir()
	fsys, err := storage.NewFS(dir)
	require.NoError(t, err)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return dir, NewStore(NewLocal(fsys), opts...)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/gif", Gifs},
		{"IMAGE/GIF", Gifs},
		{"image/png", Images},
		{"image/svg+xml", Images},
		{"video/mp4", Videos},
		{"application/pdf", Files},
		{"text/plain; charset=utf-8", Files},
		{"", Files},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.contentType))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "my_photo__1_.png", SanitizeName("my photo (1).png"))
	assert.Equal(t, ".._.._etc_passwd", SanitizeName("../../etc/passwd"))
	assert.Equal(t, "______.txt", SanitizeName("привет.txt"))
}

func TestUploadAutoRoutesGif(t *testing.T) {
	dir, s := newLocalStore(t)

	res, err := s.Upload(context.Background(), UploadInput{
		Reader:       strings.NewReader("GIF89a..."),
		Size:         9,
		Folder:       AutoFolder,
		ContentType:  "image/gif",
		OriginalName: "funny cat.gif",
	})
	require.NoError(t, err)
	assert.Equal(t, Gifs, res.Folder)
	assert.Equal(t, "1700000000123-funny_cat.gif", res.FileName)
	assert.Equal(t, "/gifs/1700000000123-funny_cat.gif", res.URL)
	assert.Equal(t, int64(9), res.Size)
	assert.Equal(t, "image/gif", res.Type)

	data, err := os.ReadFile(filepath.Join(dir, "gifs", res.FileName))
	require.NoError(t, err)
	assert.Equal(t, "GIF89a...", string(data))
}

func TestUploadSniffsMissingContentType(t *testing.T) {
	_, s := newLocalStore(t)
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

	res, err := s.Upload(context.Background(), UploadInput{
		Reader:       strings.NewReader(png),
		Folder:       AutoFolder,
		ContentType:  "application/octet-stream",
		OriginalName: "blob",
	})
	require.NoError(t, err)
	assert.Equal(t, Images, res.Folder)
	assert.Equal(t, "image/png", res.Type)
	assert.Equal(t, int64(len(png)), res.Size)
}

func TestUploadFolderSelection(t *testing.T) {
	_, s := newLocalStore(t, WithMaxBytes(4))
	ctx := context.Background()

	res, err := s.Upload(ctx, UploadInput{Reader: strings.NewReader("x"), ContentType: "image/png", OriginalName: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, Files, res.Folder, "empty folder defaults to files")

	res, err = s.Upload(ctx, UploadInput{Reader: strings.NewReader("x"), Folder: Videos, ContentType: "image/png", OriginalName: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, Videos, res.Folder, "explicit category wins")

	_, err = s.Upload(ctx, UploadInput{Reader: strings.NewReader("x"), Folder: "../secret", OriginalName: "a.png"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = s.Upload(ctx, UploadInput{Reader: strings.NewReader("toolarge"), Size: 8, OriginalName: "a.bin"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = s.Upload(ctx, UploadInput{Reader: strings.NewReader("x"), OriginalName: " "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUploadWithURLBase(t *testing.T) {
	_, s := newLocalStore(t, WithURLBase("https://cdn.example.com/assets/"))
	res, err := s.Upload(context.Background(), UploadInput{Reader: strings.NewReader("x"), Folder: Files, ContentType: "text/plain", OriginalName: "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/assets/files/1700000000123-a.txt", res.URL)

	_, err = s.Delete(context.Background(), res.URL)
	assert.NoError(t, err)
}

func TestListNewestFirstSkipsDotfiles(t *testing.T) {
	dir, s := newLocalStore(t)
	write := func(name string, age time.Duration) {
		p := filepath.Join(dir, Images, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
		mt := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}
	write("old.png", 3*time.Hour)
	write("new.jpg", time.Minute)
	write("mid.gif", time.Hour)
	write(".DS_Store", 0)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Images, "nested"), 0o755))

	assets, err := s.List(context.Background(), Images)
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, "new.jpg", assets[0].Name)
	assert.Equal(t, "mid.gif", assets[1].Name)
	assert.Equal(t, "old.png", assets[2].Name)
	assert.Equal(t, "/images/new.jpg", assets[0].URL)
	assert.Equal(t, "image/png", assets[2].Type)
	assert.Equal(t, int64(len("old.png")), assets[2].Size)
}

func TestListValidation(t *testing.T) {
	_, s := newLocalStore(t)
	assets, err := s.List(context.Background(), Videos)
	require.NoError(t, err)
	assert.Empty(t, assets)

	_, err = s.List(context.Background(), "docs")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = s.List(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	dir, s := newLocalStore(t)
	ctx := context.Background()
	p := filepath.Join(dir, Files, "1-a.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("pdf"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Images, "sub"), 0o755))

	key, err := s.Delete(ctx, "/files/1-a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "files/1-a.pdf", key)
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	_, err = s.Delete(ctx, "/files/1-a.pdf")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.Delete(ctx, "/images/sub")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	for _, bad := range []string{"/files", "/docs/a.md", "../../etc/passwd", ""} {
		_, err = s.Delete(ctx, bad)
		assert.ErrorIs(t, err, apperr.ErrInvalidPath, bad)
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "video/mp4", typeOf("a.mp4", "video/mp4"))
	assert.Equal(t, "image/png", typeOf("a.PNG", ""))
	assert.Equal(t, "unknown", typeOf("README", ""))
}
