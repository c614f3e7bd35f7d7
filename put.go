package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/zentty-go/pkg/zentty"
)

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-file>...",
		Short: "Upload files",
		Long: `Upload one or more local files in 200 KiB chunks.

With --entity the single file is attached to that existing entity. Without
it, an entity of --entity-type is created per file (titled with the file
name, under --parent if given) and the file is attached to it. Up to
transfers.parallel_uploads files are uploaded at once; chunks of one file
are always sent in order. Interrupted uploads are not resumed: run the
command again to start over.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPut,
	}

	cmd.Flags().String("entity", "", "existing entity to attach the file to")
	cmd.Flags().String("entity-type", "file", "type of the entities created for each file")
	cmd.Flags().String("parent", "", "parent entity for created entities")
	cmd.Flags().String("type", "", "MIME type (default: guessed from the file extension)")
	cmd.Flags().String("bandwidth-limit", "", "upload rate limit, e.g. 5MB/s (overrides config)")

	return cmd
}

// putResult is the JSON schema for one file of `put --json`.
type putResult struct {
	File     string `json:"file"`
	EntityID string `json:"entity_id"`
	Size     int64  `json:"size"`
}

func runPut(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	entityID, _ := cmd.Flags().GetString("entity")
	if entityID != "" && len(args) > 1 {
		return errors.New("--entity accepts exactly one file")
	}

	parent, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client, closeFn, err := newClient(parent, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	u := &uploader{
		cc:         cc,
		client:     client,
		entityID:   entityID,
		mimeType:   stringFlag(cmd, "type"),
		entityType: stringFlag(cmd, "entity-type"),
		parentID:   stringFlag(cmd, "parent"),
		showBytes:  !cc.Flags.Quiet && !cc.Flags.JSON && isTerminal(cc.Err),
	}

	// First Ctrl-C stops the uploads between chunks; a second one exits.
	ctx := shutdownContext(parent, cc.Logger, u.inFlight)

	results := make([]putResult, len(args))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cc.Cfg.Transfers.ParallelUploads)

	for i, path := range args {
		g.Go(func() error {
			res, err := u.upload(gctx, path)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", path, err)
			}

			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, results)
	}

	return nil
}

func stringFlag(cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	return s
}

// uploader uploads one file per call. It is shared by the put workers.
type uploader struct {
	cc         *CLIContext
	client     *zentty.Client
	entityID   string
	mimeType   string
	entityType string
	parentID   string
	showBytes  bool

	mu     sync.Mutex // serializes progress output and guards active
	active map[string]int
}

// begin marks name as uploading.
func (u *uploader) begin(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.active == nil {
		u.active = make(map[string]int)
	}

	u.active[name]++
}

// end marks one upload of name as finished.
func (u *uploader) end(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.active[name]--; u.active[name] <= 0 {
		delete(u.active, name)
	}
}

// inFlight returns the names of the files currently uploading, sorted.
func (u *uploader) inFlight() []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	names := make([]string, 0, len(u.active))
	for name := range u.active {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (u *uploader) upload(ctx context.Context, path string) (putResult, error) {
	f, err := zentty.OpenFile(path)
	if err != nil {
		return putResult{}, err
	}
	defer f.Close()

	name := f.Name()

	u.begin(name)
	defer u.end(name)

	id := u.entityID
	if id == "" {
		title := name

		entity, err := u.client.CreateEntity(ctx, zentty.CreateEntityParams{
			Type:           u.entityType,
			Entity:         zentty.EntityInput{Title: &title},
			ParentEntityID: u.parentID,
		})
		if err != nil {
			return putResult{}, fmt.Errorf("creating entity: %w", err)
		}

		id = entity.ID
	}

	mimeType := u.mimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}

	u.cc.Logger.Debug("put",
		slog.String("local_path", path),
		slog.String("entity_id", id),
		slog.Int64("size", f.Size()),
	)

	err = u.client.UploadFile(ctx, zentty.UploadFileParams{
		EntityID: id,
		File:     f,
		Type:     mimeType,
	}, func(p zentty.Progress) {
		if !u.showBytes {
			return
		}

		u.mu.Lock()
		defer u.mu.Unlock()

		fmt.Fprintf(u.cc.Err, "\r%s: %s / %s", name, formatSize(p.BytesUploaded), formatSize(p.TotalBytes))

		if p.Complete {
			fmt.Fprintln(u.cc.Err)
		}
	})
	if err != nil {
		return putResult{}, err
	}

	u.mu.Lock()
	u.cc.Statusf("Uploaded %s (%s) to %s\n", name, formatSize(f.Size()), id)
	u.mu.Unlock()

	return putResult{File: path, EntityID: id, Size: f.Size()}, nil
}
