package inspect

import (
	"fmt"
	"io"

	"github.com/deploymenttheory/go-extfs/internal/types"
	"github.com/deploymenttheory/go-extfs/pkg/app"
	"github.com/deploymenttheory/go-extfs/pkg/services"
)

// HandleInfo reports volume metadata and where the volume was found
func HandleInfo(ctx *app.Context, req *InfoRequest) (*InfoResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := ctx.OpenSession(req.Target)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return &InfoResponse{
		Image:  req.Target.ImagePath,
		Volume: session.Info(),
	}, nil
}

// HandleList lists one directory
func HandleList(ctx *app.Context, req *ListRequest) (*ListResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := ctx.OpenSession(req.Target)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	response := &ListResponse{Path: req.Path, Entries: []Entry{}}
	err = session.Volume().List(req.Path, func(info types.FileInfo) bool {
		if !req.All && (info.Name == "." || info.Name == "..") {
			return false
		}
		response.Entries = append(response.Entries, newEntry(info))
		return ctx.Err() != nil
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, app.TranslateError(err)
	}

	ctx.Log(fmt.Sprintf("Listed %d entries of %s", len(response.Entries), req.Path))
	return response, nil
}

// HandleStat describes one path
func HandleStat(ctx *app.Context, req *StatRequest) (*StatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := ctx.OpenSession(req.Target)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	volume := session.Volume()
	links, canReadLinks := volume.(services.LinkReader)

	var info types.FileInfo
	if req.NoFollow {
		if !canReadLinks {
			return nil, app.NewError(app.ErrCodeNotImplemented, fmt.Sprintf("%s volumes cannot stat symlinks", volume.Type()), nil)
		}
		info, err = links.Lstat(req.Path)
	} else {
		info, err = volume.Stat(req.Path)
	}
	if err != nil {
		return nil, app.TranslateError(err)
	}

	entry := newEntry(info)
	if info.Type == types.FileTypeSymlink && canReadLinks {
		target, err := links.Readlink(req.Path)
		if err != nil {
			return nil, app.TranslateError(err)
		}
		entry.LinkTarget = target
	}

	return &StatResponse{Path: req.Path, Entry: entry}, nil
}

// HandleExtract streams the content of one file into w
func HandleExtract(ctx *app.Context, req *ExtractRequest, w io.Writer) (*ExtractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := ctx.OpenSession(req.Target)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	f, err := session.Volume().Open(req.Path)
	if err != nil {
		return nil, app.TranslateError(err)
	}

	ctx.Log(fmt.Sprintf("Extracting %s (%d bytes)", req.Path, f.Size()))
	n, err := io.Copy(w, &contextReader{ctx: ctx, r: io.NewSectionReader(f, 0, int64(f.Size()))})
	if err != nil {
		return nil, app.TranslateError(err)
	}

	return &ExtractResponse{Path: req.Path, Bytes: n}, nil
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx *app.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
