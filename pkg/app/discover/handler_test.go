package discover

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-extfs/internal/helpers"
	"github.com/deploymenttheory/go-extfs/internal/types"
	"github.com/deploymenttheory/go-extfs/pkg/app"
)

// createTestImage writes a small ext4 image:
//
//	/etc/hosts
//	/etc/app.conf
//	/etc/ssl/cert.PEM
//	/home/user/notes.txt   needle straddles the first 64 KiB chunk
//	/home/user/link -> ../../etc/hosts
func createTestImage(t *testing.T) string {
	t.Helper()
	b := helpers.NewImageBuilder(4096, 128)

	etc := b.Mkdir(types.RootInode, "etc")
	b.AddFile(etc, "hosts", []byte("127.0.0.1 localhost\n"))
	b.AddFile(etc, "app.conf", []byte("secret=1\n"))
	ssl := b.Mkdir(etc, "ssl")
	b.AddFile(ssl, "cert.PEM", bytes.Repeat([]byte("A"), 2000))

	home := b.Mkdir(types.RootInode, "home")
	user := b.Mkdir(home, "user")
	notes := bytes.Repeat([]byte("."), 70000)
	copy(notes[contentChunk-3:], "needle")
	b.AddFile(user, "notes.txt", notes)
	b.AddSymlink(user, "link", "../../etc/hosts")

	path := filepath.Join(t.TempDir(), "rootfs.img")
	require.NoError(t, os.WriteFile(path, b.Build(), 0o600))
	return path
}

func newTestContext() *app.Context {
	ctx := app.NewContext()
	ctx.SetLogOutput(io.Discard)
	return ctx
}

func resultPaths(resp *Response) []string {
	var paths []string
	for _, f := range resp.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

func TestHandle(t *testing.T) {
	image := createTestImage(t)

	tests := []struct {
		name      string
		request   Request
		wantPaths []string
		wantTotal int
	}{
		{
			name:      "everything",
			request:   Request{},
			wantTotal: 9,
		},
		{
			name:      "extension",
			request:   Request{Extensions: []string{".conf"}},
			wantPaths: []string{"/etc/app.conf"},
		},
		{
			name:      "extension ignores case",
			request:   Request{Extensions: []string{"pem"}},
			wantPaths: []string{"/etc/ssl/cert.PEM"},
		},
		{
			name:      "extension case sensitive",
			request:   Request{Extensions: []string{"pem"}, CaseSensitive: true},
			wantPaths: nil,
		},
		{
			name:      "name pattern",
			request:   Request{NamePattern: "*.TXT"},
			wantPaths: []string{"/home/user/notes.txt"},
		},
		{
			name:      "name regex",
			request:   Request{NameRegex: "^ho"},
			wantPaths: []string{"/etc/hosts", "/home"},
		},
		{
			name:      "directories",
			request:   Request{FileType: "dir"},
			wantPaths: []string{"/etc", "/etc/ssl", "/home", "/home/user"},
		},
		{
			name:      "symlinks are not followed",
			request:   Request{FileType: "symlink"},
			wantPaths: []string{"/home/user/link"},
		},
		{
			name:      "min size keeps regular files",
			request:   Request{MinSize: "1KB"},
			wantPaths: []string{"/etc/ssl/cert.PEM", "/home/user/notes.txt"},
		},
		{
			name:      "max size",
			request:   Request{MaxSize: "16B"},
			wantPaths: []string{"/etc/app.conf"},
		},
		{
			name:      "content across chunk boundary",
			request:   Request{ContentSearch: "needle"},
			wantPaths: []string{"/home/user/notes.txt"},
		},
		{
			name:      "content in small file",
			request:   Request{ContentSearch: "secret", Extensions: []string{"conf"}},
			wantPaths: []string{"/etc/app.conf"},
		},
		{
			name:      "subtree",
			request:   Request{Path: "/home"},
			wantPaths: []string{"/home/user", "/home/user/notes.txt", "/home/user/link"},
		},
		{
			name:      "modified after",
			request:   Request{ModifiedAfter: "2024-01-01"},
			wantPaths: nil,
		},
		{
			name:      "modified before",
			request:   Request{ModifiedBefore: "2024-01-01", FileType: "file"},
			wantPaths: []string{"/etc/hosts", "/etc/app.conf", "/etc/ssl/cert.PEM", "/home/user/notes.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.request
			req.Target = app.ImageTarget{ImagePath: image, Partition: -1}
			req.MaxResults = 1000

			resp, err := Handle(newTestContext(), &req)
			require.NoError(t, err)
			require.NotNil(t, resp)

			assert.Equal(t, "ext4", resp.VolumeInfo.Type)
			assert.Equal(t, "testvol", resp.VolumeInfo.Label)
			assert.False(t, resp.Truncated)

			if tt.wantTotal > 0 {
				assert.Equal(t, tt.wantTotal, resp.TotalFound)
				assert.Equal(t, tt.wantTotal, resp.Scanned)
				return
			}
			assert.Equal(t, tt.wantPaths, resultPaths(resp))
			assert.Equal(t, len(tt.wantPaths), resp.TotalFound)
		})
	}
}

func TestHandle_Truncated(t *testing.T) {
	req := &Request{
		Target:     app.ImageTarget{ImagePath: createTestImage(t), Partition: -1},
		MaxResults: 2,
	}

	resp, err := Handle(newTestContext(), req)
	require.NoError(t, err)
	assert.Len(t, resp.Files, 2)
	assert.Equal(t, 9, resp.TotalFound)
	assert.True(t, resp.Truncated)
	assert.Equal(t, "/", resp.SearchQuery.Path)
}

func TestHandle_FileResult(t *testing.T) {
	req := &Request{
		Target:      app.ImageTarget{ImagePath: createTestImage(t), Partition: -1},
		NamePattern: "notes.txt",
		MaxResults:  10,
	}

	resp, err := Handle(newTestContext(), req)
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)

	f := resp.Files[0]
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, int64(70000), f.Size)
	assert.Equal(t, "file", f.Type)
	assert.Equal(t, "txt", f.Extension)
	assert.Equal(t, "-rw-r--r--", f.Permissions)
	assert.Equal(t, int64(helpers.BuilderMtime), f.Modified.Unix())
	assert.NotZero(t, f.Inode)
	assert.Equal(t, SizeClassSmall, f.GetSizeClass())
}

func TestHandle_Errors(t *testing.T) {
	image := createTestImage(t)

	tests := []struct {
		name     string
		request  Request
		wantCode string
	}{
		{
			name:     "missing image path",
			request:  Request{Target: app.ImageTarget{Partition: -1}, MaxResults: 10},
			wantCode: app.ErrCodeInvalidInput,
		},
		{
			name:     "bad regex",
			request:  Request{Target: app.ImageTarget{ImagePath: image, Partition: -1}, NameRegex: "[invalid", MaxResults: 10},
			wantCode: app.ErrCodeInvalidInput,
		},
		{
			name:     "image does not exist",
			request:  Request{Target: app.ImageTarget{ImagePath: image + ".missing", Partition: -1}, MaxResults: 10},
			wantCode: app.ErrCodeImageAccess,
		},
		{
			name:     "start is a file",
			request:  Request{Target: app.ImageTarget{ImagePath: image, Partition: -1}, Path: "/etc/hosts", MaxResults: 10},
			wantCode: app.ErrCodeNotADirectory,
		},
		{
			name:     "start is missing",
			request:  Request{Target: app.ImageTarget{ImagePath: image, Partition: -1}, Path: "/nope", MaxResults: 10},
			wantCode: app.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Handle(newTestContext(), &tt.request)
			require.Error(t, err)
			assert.Nil(t, resp)

			var appErr *app.CommonError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestHandle_Cancelled(t *testing.T) {
	ctx, cancel := newTestContext().WithCancel()
	cancel()

	req := &Request{
		Target:     app.ImageTarget{ImagePath: createTestImage(t), Partition: -1},
		MaxResults: 10,
	}
	_, err := Handle(ctx, req)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "canceled"))
}

func TestCreateSearchQuery(t *testing.T) {
	request := &Request{
		Path:           "/etc",
		NamePattern:    "*.conf",
		Extensions:     []string{"conf", "cfg"},
		CaseSensitive:  true,
		FileType:       "file",
		MinSize:        "1KB",
		MaxSize:        "100MB",
		ModifiedAfter:  "2024-01-01",
		ModifiedBefore: "2024-12-31",
		ContentSearch:  "secret",
		MaxResults:     500,
	}

	query := createSearchQuery(request)

	assert.Equal(t, request.Path, query.Path)
	assert.Equal(t, request.NamePattern, query.NamePattern)
	assert.Equal(t, request.Extensions, query.Extensions)
	assert.Equal(t, request.CaseSensitive, query.CaseSensitive)
	assert.Equal(t, request.FileType, query.FileType)
	assert.Equal(t, request.MinSize, query.MinSize)
	assert.Equal(t, request.MaxSize, query.MaxSize)
	assert.Equal(t, request.ModifiedAfter, query.ModifiedAfter)
	assert.Equal(t, request.ModifiedBefore, query.ModifiedBefore)
	assert.Equal(t, request.ContentSearch, query.ContentSearch)
	assert.Equal(t, request.MaxResults, query.MaxResults)
}

func TestLogSearchCriteria(t *testing.T) {
	var buf bytes.Buffer
	ctx := app.NewContext()
	ctx.SetLogOutput(&buf)
	ctx.SetVerbosity(true, false)

	request := &Request{
		Path:          "/",
		NamePattern:   "*.conf",
		Extensions:    []string{"conf"},
		ContentSearch: "secret",
		MinSize:       "1MB",
		MaxSize:       "100MB",
	}

	logSearchCriteria(ctx, request)
	assert.Contains(t, buf.String(), "Extensions: conf")

	buf.Reset()
	ctx.SetVerbosity(false, false)
	logSearchCriteria(ctx, request)
	assert.Empty(t, buf.String())
}
