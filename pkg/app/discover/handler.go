package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/types"
	"github.com/deploymenttheory/go-extfs/pkg/app"
	"github.com/deploymenttheory/go-extfs/pkg/services"
)

// Handle processes a discovery request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	// 1. Validate request
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Path == "" {
		req.Path = "/"
	}

	ctx.Log(fmt.Sprintf("Starting file discovery in: %s", req.Target.String()))
	ctx.Progress("Opening image...", 5)

	// 2. Open the image and mount its volume
	session, err := ctx.OpenSession(req.Target)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	volume := session.Volume()
	walker, ok := volume.(services.Walker)
	if !ok {
		return nil, app.NewError(app.ErrCodeNotImplemented, fmt.Sprintf("%s volumes cannot be walked", volume.Type()), nil)
	}

	logSearchCriteria(ctx, req)

	// 3. Walk the tree
	ctx.Progress("Scanning filesystem...", 25)
	response := &Response{
		Files: []FileResult{},
		VolumeInfo: VolumeInfo{
			Type:  volume.Type(),
			Label: volume.Label(),
			UUID:  volume.UUID(),
		},
		SearchQuery: createSearchQuery(req),
	}

	m := newMatcher(req)
	err = walker.Walk(req.Path, func(p string, info types.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		response.Scanned++

		if !m.matchMetadata(info) {
			return nil
		}
		if m.content != nil {
			found, err := searchContent(volume, m, p, info)
			if err != nil {
				ctx.Logger.WithError(err).WithField("path", p).Warn("skipping unreadable file")
				return nil
			}
			if !found {
				return nil
			}
		}

		response.TotalFound++
		if len(response.Files) < req.MaxResults {
			response.Files = append(response.Files, newFileResult(p, info))
		} else {
			response.Truncated = true
		}
		return nil
	})
	if err != nil {
		return nil, app.TranslateError(err)
	}

	ctx.Progress("Complete", 100)
	response.SearchTime = time.Since(startTime)
	ctx.Log(fmt.Sprintf("Discovery completed: found %d files in %v", response.TotalFound, response.SearchTime))

	return response, nil
}

// searchContent opens the file at p and scans it
func searchContent(volume interfaces.Volume, m *matcher, p string, info types.FileInfo) (bool, error) {
	f, err := volume.Open(p)
	if err != nil {
		if errors.Is(err, types.ErrEncrypted) {
			return false, nil
		}
		return false, err
	}
	return m.matchContent(f, int64(info.Size))
}

// newFileResult converts a walked entry for output
func newFileResult(p string, info types.FileInfo) FileResult {
	result := FileResult{
		Path:        p,
		Name:        info.Name,
		Size:        int64(info.Size),
		Type:        info.Type.String(),
		Inode:       info.Inode,
		Permissions: permissions(info).String(),
		Extension:   strings.ToLower(extensionOf(path.Base(p))),
	}
	if info.MtimeSet {
		result.Modified = info.Mtime
	}
	if info.IsDir() {
		result.Extension = ""
	}
	return result
}

// permissions maps the inode mode onto an fs.FileMode for ls-style output
func permissions(info types.FileInfo) fs.FileMode {
	mode := fs.FileMode(info.Mode & 0o777)
	switch info.Type {
	case types.FileTypeDirectory:
		mode |= fs.ModeDir
	case types.FileTypeSymlink:
		mode |= fs.ModeSymlink
	}
	return mode
}

// logSearchCriteria logs the search criteria for verbose output
func logSearchCriteria(ctx *app.Context, req *Request) {
	if !ctx.Verbose {
		return
	}

	ctx.Log("Search criteria:")
	ctx.Log("  Path: " + req.Path)
	if req.NamePattern != "" {
		ctx.Log(fmt.Sprintf("  Name pattern: %s", req.NamePattern))
	}
	if req.NameRegex != "" {
		ctx.Log(fmt.Sprintf("  Name regex: %s", req.NameRegex))
	}
	if len(req.Extensions) > 0 {
		ctx.Log(fmt.Sprintf("  Extensions: %s", strings.Join(req.Extensions, ", ")))
	}
	if req.FileType != "" {
		ctx.Log(fmt.Sprintf("  Type: %s", req.FileType))
	}
	if req.ContentSearch != "" {
		ctx.Log(fmt.Sprintf("  Content search: \"%s\"", req.ContentSearch))
	}
	if req.MinSize != "" || req.MaxSize != "" {
		ctx.Log(fmt.Sprintf("  Size range: %s - %s", req.MinSize, req.MaxSize))
	}
}

// createSearchQuery creates a SearchQuery from the request
func createSearchQuery(req *Request) SearchQuery {
	return SearchQuery{
		Path:           req.Path,
		NamePattern:    req.NamePattern,
		NameRegex:      req.NameRegex,
		Extensions:     req.Extensions,
		CaseSensitive:  req.CaseSensitive,
		FileType:       req.FileType,
		MinSize:        req.MinSize,
		MaxSize:        req.MaxSize,
		ModifiedAfter:  req.ModifiedAfter,
		ModifiedBefore: req.ModifiedBefore,
		ContentSearch:  req.ContentSearch,
		MaxResults:     req.MaxResults,
	}
}
