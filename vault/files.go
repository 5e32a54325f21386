package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/wetkeyorg/libwetkey-go/chunk"
	"github.com/wetkeyorg/libwetkey-go/store"
	"github.com/wetkeyorg/libwetkey-go/transfer"
)

// Upload stores file under the vault identity. A file created by a failed
// upload is still recorded in the registry with the status the store reports.
func (v *Vault) Upload(ctx context.Context, file transfer.File, opts transfer.UploadOptions) (uint64, error) {
	id, err := v.session().Upload(ctx, file, v.Identity, opts)
	if id != 0 {
		// The registry reflects the store even when ctx was cancelled mid-upload.
		if _, cerr := v.Files.Confirm(context.WithoutCancel(ctx), id); cerr != nil {
			v.log.Warn(ctx, "uploaded file not confirmed", "file_id", id, "error", cerr)
		}
		v.persist(ctx)
	}
	return id, err
}

// UploadFile uploads the local file at path under its base name.
func (v *Vault) UploadFile(ctx context.Context, path string, opts transfer.UploadOptions) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("vault: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	// Refuse before reading the content into memory.
	guard := chunk.Guard{MaxSize: v.transfer.MaxFileSize}
	if err := guard.Check(info.Size()); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", transfer.ErrInvalidInput, path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("vault: read %s: %w", path, err)
	}
	return v.Upload(ctx, transfer.File{
		Name:        filepath.Base(path),
		ContentType: DetectMimeType(path, data),
		Data:        data,
	}, opts)
}

// BatchResult is the outcome of one file in UploadBatch.
type BatchResult struct {
	Path   string
	FileID uint64 // zero if no file was created
	Err    error
}

// UploadBatch uploads paths concurrently, each in its own session, with at
// most the configured parallelism in flight. The first failure cancels the
// uploads that have not finished; the returned slice has one entry per path
// in input order. opts.Progress, if set, is called from several goroutines.
func (v *Vault) UploadBatch(ctx context.Context, paths []string, opts transfer.UploadOptions) ([]BatchResult, error) {
	results := make([]BatchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.parallelism)
	for i, p := range paths {
		g.Go(func() error {
			id, err := v.UploadFile(gctx, p, opts)
			results[i] = BatchResult{Path: p, FileID: id, Err: err}
			return err
		})
	}
	err := g.Wait()
	return results, err
}

// Download fetches the file with the current metadata reported by the store.
func (v *Vault) Download(ctx context.Context, fileID uint64) (*transfer.Download, error) {
	_, d, err := v.fetch(ctx, fileID)
	return d, err
}

func (v *Vault) fetch(ctx context.Context, fileID uint64) (store.FileMetadata, *transfer.Download, error) {
	meta, err := v.Files.Confirm(ctx, fileID)
	if err != nil {
		return store.FileMetadata{}, nil, err
	}
	d, err := v.session().Download(ctx, meta, v.Identity)
	if err != nil {
		return meta, nil, err
	}
	return meta, d, nil
}

// DownloadOpts controls where DownloadFile writes.
type DownloadOpts struct {
	LocalDir  string // base directory for default file placement
	LocalPath string // explicit local path (overrides LocalDir + file name)
}

// DownloadFile downloads a file to the local filesystem and returns the path
// written. A partially written file is removed.
func (v *Vault) DownloadFile(ctx context.Context, fileID uint64, opts DownloadOpts) (path string, err error) {
	meta, d, err := v.fetch(ctx, fileID)
	if err != nil {
		return "", err
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Join(opts.LocalDir, localName(meta))
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", fmt.Errorf("vault: create local directory: %w", err)
	}

	f, err := os.OpenFile(localPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("vault: create local file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("vault: close local file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(localPath)
		}
	}()

	if _, err := f.Write(d.Data); err != nil {
		return "", fmt.Errorf("vault: write local file: %w", err)
	}
	v.log.Info(ctx, "file downloaded", "file_id", fileID, "path", localPath, "bytes", len(d.Data))
	return localPath, nil
}

// localName is the store's file name reduced to a single path element.
func localName(meta store.FileMetadata) string {
	name := filepath.Base(filepath.Clean("/" + meta.Name))
	if name == "/" || name == "." || name == "" {
		return "file-" + strconv.FormatUint(meta.FileID, 10)
	}
	return name
}

// List refreshes the registry from the store and returns the caller's files.
func (v *Vault) List(ctx context.Context) ([]store.FileMetadata, error) {
	files, err := v.Files.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	v.persist(ctx)
	return files, nil
}

// Delete removes a file and its chunks from the store.
func (v *Vault) Delete(ctx context.Context, fileID uint64) error {
	if err := v.Store.DeleteFile(ctx, fileID); err != nil {
		return fmt.Errorf("vault: delete file %d: %w", fileID, err)
	}
	v.Files.Forget(fileID)
	v.persist(ctx)
	return nil
}

// Register records a file whose content lives with another storage
// provider. The vault lists it but will not download it.
func (v *Vault) Register(ctx context.Context, req store.RegisterRequest) (uint64, error) {
	id, err := v.Store.RegisterFile(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("vault: register %q: %w", req.Name, err)
	}
	if _, err := v.Files.Confirm(ctx, id); err != nil {
		return id, err
	}
	v.persist(ctx)
	return id, nil
}
