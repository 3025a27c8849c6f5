package googledrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/jun/cloudbridge/internal/adapter"
)

// Chunk is one piece of a download.
type Chunk struct {
	Data     []byte
	Progress float64
	Done     bool
}

// ChunkSource yields the chunks of one download in order.
type ChunkSource interface {
	Next(ctx context.Context) (Chunk, error)
}

var errEmptyChunk = errors.New("empty chunk before end of file")

// progressTracker keeps reported progress non-decreasing and reports 1.0 once.
type progressTracker struct {
	fn       adapter.ProgressFunc
	last     float64
	finished bool
}

func (t *progressTracker) update(p float64) {
	if t.fn == nil || t.finished || p < t.last || p >= 1 {
		return
	}
	t.last = p
	t.fn(p)
}

func (t *progressTracker) finish() {
	if t.fn == nil || t.finished {
		return
	}
	t.finished = true
	t.fn(1)
}

// drainChunks reads src until it signals completion and returns the whole
// content. Any failure discards what was received so far.
func drainChunks(ctx context.Context, src ChunkSource, progress adapter.ProgressFunc) ([]byte, error) {
	var buf bytes.Buffer
	tracker := &progressTracker{fn: progress}

	for {
		c, err := src.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !c.Done && len(c.Data) == 0 {
			return nil, errEmptyChunk
		}
		buf.Write(c.Data)

		if c.Done {
			tracker.finish()
			return buf.Bytes(), nil
		}
		tracker.update(c.Progress)
	}
}

// rangeDownloader fetches a Drive file's media with HTTP Range requests.
type rangeDownloader struct {
	files     *drive.FilesService
	fileID    string
	chunkSize int64
	offset    int64

	// set once a response omits the total length
	unknownTotal bool
}

func (r *rangeDownloader) Next(ctx context.Context) (Chunk, error) {
	call := r.files.Get(r.fileID).SupportsAllDrives(true).Context(ctx)
	call.Header().Set("Range", fmt.Sprintf("bytes=%d-%d", r.offset, r.offset+r.chunkSize-1))

	resp, err := call.Download()
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && gErr.Code == http.StatusRequestedRangeNotSatisfiable {
			switch {
			case r.offset == 0:
				// Zero-length file: no byte range can be satisfied.
				return Chunk{Progress: 1, Done: true}, nil
			case r.unknownTotal:
				// The previous full chunk ended exactly at end of file.
				return Chunk{Progress: 1, Done: true}, nil
			}
		}
		return Chunk{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Chunk{}, fmt.Errorf("unable to read chunk at offset %d: %w", r.offset, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// Range ignored; the body is the whole file.
		r.offset += int64(len(data))
		return Chunk{Data: data, Progress: 1, Done: true}, nil
	case http.StatusPartialContent:
	default:
		return Chunk{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	r.offset += int64(len(data))
	total, ok := contentRangeTotal(resp.Header.Get("Content-Range"))
	if !ok {
		// Unknown size: a short chunk is the last one.
		r.unknownTotal = true
		done := int64(len(data)) < r.chunkSize
		return Chunk{Data: data, Done: done}, nil
	}
	if r.offset >= total {
		return Chunk{Data: data, Progress: 1, Done: true}, nil
	}
	return Chunk{Data: data, Progress: float64(r.offset) / float64(total)}, nil
}

// contentRangeTotal parses the complete length from "bytes 0-99/1000".
func contentRangeTotal(h string) (int64, bool) {
	_, after, found := strings.Cut(h, "/")
	if !found || after == "*" {
		return 0, false
	}
	n, err := strconv.ParseInt(after, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
