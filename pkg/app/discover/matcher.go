package discover

import (
	"bytes"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// contentChunk is the read size used by content search
const contentChunk = 64 * 1024

// matcher holds the compiled criteria of a validated request
type matcher struct {
	pattern       string
	regex         *regexp.Regexp
	extensions    []string
	caseSensitive bool
	fileType      string
	minSize       int64
	maxSize       int64
	after         time.Time
	before        time.Time
	content       []byte
}

// newMatcher compiles req, which must already be valid
func newMatcher(req *Request) *matcher {
	m := &matcher{
		pattern:       req.NamePattern,
		caseSensitive: req.CaseSensitive,
		fileType:      req.FileType,
		minSize:       -1,
		maxSize:       -1,
	}
	if !m.caseSensitive {
		m.pattern = strings.ToLower(m.pattern)
	}
	if req.NameRegex != "" {
		expr := req.NameRegex
		if !req.CaseSensitive {
			expr = "(?i)" + expr
		}
		m.regex = regexp.MustCompile(expr)
	}
	for _, ext := range req.Extensions {
		ext = strings.TrimPrefix(ext, ".")
		if !m.caseSensitive {
			ext = strings.ToLower(ext)
		}
		m.extensions = append(m.extensions, ext)
	}
	if req.MinSize != "" {
		m.minSize, _ = ParseSize(req.MinSize)
	}
	if req.MaxSize != "" {
		m.maxSize, _ = ParseSize(req.MaxSize)
	}
	if req.ModifiedAfter != "" {
		m.after, _ = time.Parse(DateLayout, req.ModifiedAfter)
	}
	if req.ModifiedBefore != "" {
		m.before, _ = time.Parse(DateLayout, req.ModifiedBefore)
	}
	if req.ContentSearch != "" {
		m.content = []byte(req.ContentSearch)
	}
	return m
}

// needsRegularFile reports whether only regular files can match
func (m *matcher) needsRegularFile() bool {
	return m.minSize >= 0 || m.maxSize >= 0 || m.content != nil
}

// matchMetadata applies every criterion except content search
func (m *matcher) matchMetadata(info types.FileInfo) bool {
	if m.fileType != "" && info.Type.String() != m.fileType {
		return false
	}
	if m.needsRegularFile() && info.Type != types.FileTypeRegular {
		return false
	}

	name := info.Name
	if !m.caseSensitive {
		name = strings.ToLower(name)
	}
	if m.pattern != "" {
		if ok, _ := filepath.Match(m.pattern, name); !ok {
			return false
		}
	}
	if m.regex != nil && !m.regex.MatchString(info.Name) {
		return false
	}
	if len(m.extensions) > 0 && !containsString(m.extensions, extensionOf(name)) {
		return false
	}

	size := int64(info.Size)
	if m.minSize >= 0 && size < m.minSize {
		return false
	}
	if m.maxSize >= 0 && size > m.maxSize {
		return false
	}

	if !m.after.IsZero() || !m.before.IsZero() {
		if !info.MtimeSet {
			return false
		}
		if !m.after.IsZero() && info.Mtime.Before(m.after) {
			return false
		}
		if !m.before.IsZero() && !info.Mtime.Before(m.before) {
			return false
		}
	}
	return true
}

// matchContent scans r for the search string in overlapping chunks
func (m *matcher) matchContent(r io.ReaderAt, size int64) (bool, error) {
	if m.content == nil {
		return true, nil
	}
	overlap := len(m.content) - 1
	buf := make([]byte, contentChunk+overlap)
	carried := 0
	for off := int64(0); off < size; {
		n, err := r.ReadAt(buf[carried:carried+contentChunk], off)
		if n == 0 && err != nil {
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}
		window := buf[:carried+n]
		if bytes.Contains(window, m.content) {
			return true, nil
		}
		off += int64(n)
		carried = min(overlap, len(window))
		copy(buf, window[len(window)-carried:])
	}
	return false, nil
}

// extensionOf returns the extension of name without the dot
func extensionOf(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
