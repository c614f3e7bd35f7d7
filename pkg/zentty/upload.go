package zentty

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/tonimelisma/zentty-go/internal/transport"
)

// ChunkSize is the number of bytes sent per appendFileChunk call. Only the
// final chunk may be shorter.
const ChunkSize = 200 * 1024

// FileSource is a file to upload: random access plus the name and size the
// server is told about up front.
type FileSource interface {
	io.ReaderAt
	Name() string
	Size() int64
}

// LocalFile is a FileSource backed by a file on disk.
type LocalFile struct {
	f    *os.File
	size int64
}

// OpenFile opens path for upload. The caller must Close it.
func OpenFile(path string) (*LocalFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("zentty: opening %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zentty: stat %s: %w", path, err)
	}

	if fi.IsDir() {
		f.Close()
		return nil, fmt.Errorf("zentty: %s is a directory", path)
	}

	return &LocalFile{f: f, size: fi.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (l *LocalFile) ReadAt(p []byte, off int64) (int, error) {
	return l.f.ReadAt(p, off)
}

// Name returns the file's base name.
func (l *LocalFile) Name() string {
	return filepath.Base(l.f.Name())
}

// Size returns the file size at open time.
func (l *LocalFile) Size() int64 {
	return l.size
}

// Close closes the underlying file.
func (l *LocalFile) Close() error {
	return l.f.Close()
}

type bytesFile struct {
	*bytes.Reader
	name string
}

func (b *bytesFile) Name() string {
	return b.name
}

// NewBytesFile returns an in-memory FileSource.
func NewBytesFile(name string, data []byte) FileSource {
	return &bytesFile{Reader: bytes.NewReader(data), name: name}
}

// UploadFileParams are the inputs of UploadFile. Type is an optional MIME
// type passed to prepareFileUpload.
type UploadFileParams struct {
	EntityID string
	File     FileSource
	Type     string
}

// PrepareFileUpload announces a file of the given size for an entity. It
// must succeed before any chunk is appended.
func (c *Client) PrepareFileUpload(ctx context.Context, params PrepareFileUploadParams) (bool, error) {
	vars := map[string]any{
		"entityID": params.EntityID,
		"filename": params.Filename,
		"filesize": params.Filesize,
	}
	setIfNotEmpty(vars, "type", params.Type)

	var ok bool

	err := c.do(ctx, &transport.Operation{
		Name:      "prepareFileUpload",
		Kind:      transport.Mutation,
		Query:     prepareFileUploadMutation,
		Variables: vars,
	}, &ok)

	return ok, err
}

// AppendFileChunk sends the next chunk of a prepared upload and reports
// whether the server now considers the file complete.
func (c *Client) AppendFileChunk(ctx context.Context, params AppendFileChunkParams) (bool, error) {
	var complete bool

	err := c.do(ctx, &transport.Operation{
		Name:  "appendFileChunk",
		Kind:  transport.Mutation,
		Query: appendFileChunkMutation,
		Variables: map[string]any{
			"entityID": params.EntityID,
			"_chunk":   transport.Binary(params.Chunk),
		},
	}, &complete)

	return complete, err
}

// UploadFile uploads params.File to an existing entity in ChunkSize pieces,
// one appendFileChunk call at a time, calling onProgress after each chunk.
// It returns once the server reports the file complete.
//
// There is no retry and no resume: a failed chunk aborts the upload, leaves
// whatever the server already received in place, and a new call starts over
// at offset 0.
func (c *Client) UploadFile(ctx context.Context, params UploadFileParams, onProgress ProgressFunc) error {
	if params.EntityID == "" {
		return ErrMissingEntityID
	}

	if params.File == nil {
		return ErrMissingFile
	}

	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	id := params.EntityID
	total := params.File.Size()
	name := norm.NFC.String(params.File.Name())

	c.logger.Info("starting upload",
		slog.String("entity_id", id),
		slog.String("filename", name),
		slog.Int64("size", total),
	)

	ok, err := c.PrepareFileUpload(ctx, PrepareFileUploadParams{
		EntityID: id,
		Filename: name,
		Type:     params.Type,
		Filesize: total,
	})
	if err != nil {
		return fmt.Errorf("zentty: preparing upload for %s: %w", id, err)
	}

	if !ok {
		return fmt.Errorf("%w (entity %s)", ErrPrepareRejected, id)
	}

	buf := make([]byte, ChunkSize)

	var offset int64

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("zentty: upload of %s interrupted at byte %d: %w", id, offset, ctxErr)
		}

		end := min(offset+ChunkSize, total)
		chunk := buf[:end-offset]

		if n, readErr := params.File.ReadAt(chunk, offset); n < len(chunk) {
			return fmt.Errorf("zentty: reading %s at byte %d: %w", name, offset, readErr)
		}

		if c.limiter != nil {
			if waitErr := c.limiter.WaitN(ctx, len(chunk)); waitErr != nil {
				return fmt.Errorf("zentty: upload of %s interrupted at byte %d: %w", id, offset, waitErr)
			}
		}

		complete, err := c.AppendFileChunk(ctx, AppendFileChunkParams{EntityID: id, Chunk: chunk})
		if err != nil {
			c.logger.Error("chunk upload failed",
				slog.String("entity_id", id),
				slog.Int64("offset", offset),
				slog.String("error", err.Error()),
			)

			return fmt.Errorf("zentty: appending chunk at byte %d of %s: %w", offset, id, err)
		}

		c.logger.Debug("chunk uploaded",
			slog.String("entity_id", id),
			slog.Int64("offset", offset),
			slog.Int("length", len(chunk)),
			slog.Bool("complete", complete),
		)

		onProgress(Progress{Complete: complete, BytesUploaded: end, TotalBytes: total})

		offset = end

		if complete {
			c.logger.Info("upload complete",
				slog.String("entity_id", id),
				slog.Int64("size", total),
			)

			return nil
		}

		if offset >= total {
			return fmt.Errorf("%w (entity %s, %d bytes sent)", ErrUploadIncomplete, id, total)
		}
	}
}
