package chunks

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deploymenttheory/go-extfs/internal/types"
	"github.com/deploymenttheory/go-extfs/pkg/app"
	"github.com/deploymenttheory/go-extfs/pkg/services"
)

// Handle extracts the chunk list of every requested path. Paths are
// processed in parallel, bounded by the configured worker count, and the
// response keeps the request order.
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := ctx.OpenSession(req.Target)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	start := session.PartitionStartSector()
	if req.PartitionStart != nil {
		start = *req.PartitionStart
	}
	ctx.Log(fmt.Sprintf("Extracting chunk lists for %d files, partition start %d", len(req.Paths), start))

	response := &Response{
		Files:          make([]FileChunks, len(req.Paths)),
		PartitionStart: start,
		SectorSize:     session.SectorSize(),
	}

	var (
		progressMu sync.Mutex
		completed  int64
	)
	reportDone := func(p string) {
		progressMu.Lock()
		defer progressMu.Unlock()
		completed++
		ctx.ReportProgress(&app.ProgressUpdate{
			Message:     "Chunk list for " + p,
			Completed:   completed,
			Total:       int64(len(req.Paths)),
			StartedAt:   startTime,
			ElapsedTime: time.Since(startTime),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(session.Workers())

	for i, p := range req.Paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks, err := extract(session, p, start)
			response.Files[i] = chunks
			reportDone(p)
			if err != nil {
				ctx.Logger.WithError(err).WithField("path", p).Debug("chunk list failed")
				if req.KeepGoing {
					return nil
				}
				return fmt.Errorf("%s: %w", p, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, app.TranslateError(err)
	}

	for _, f := range response.Files {
		if f.Error != "" {
			response.Failed++
		}
	}
	response.ElapsedTime = time.Since(startTime)
	return response, nil
}

// extract computes the chunk list of one path
func extract(session *services.Session, p string, start uint64) (FileChunks, error) {
	chunks := FileChunks{Path: p, Ranges: []types.SectorRange{}}

	f, err := session.Volume().Open(p)
	if err != nil {
		chunks.Error = err.Error()
		return chunks, err
	}
	chunks.Size = f.Size()

	ranges, err := session.FileExtentListFrom(f, start)
	if err != nil {
		chunks.Error = err.Error()
		return chunks, err
	}
	chunks.Ranges = ranges
	chunks.Sectors = types.TotalSectors(ranges)
	return chunks, nil
}
