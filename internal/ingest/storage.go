package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"docingest/internal/config"
	"docingest/internal/fileutil"
	"docingest/internal/registry"
	"docingest/internal/scanner"
	"docingest/internal/services"
	"docingest/internal/transport"
)

// ContentStore places a matched document's bytes and returns the reference
// recorded with it.
type ContentStore interface {
	Mode() string
	Put(ctx context.Context, fd scanner.FileDescriptor, owner registry.Employee) (string, error)
}

// Uploader is the subset of transport.Uploader used by RemoteStore.
type Uploader interface {
	Upload(ctx context.Context, localPath string, ownerID int64, originalName string) (transport.Result, error)
}

// MetadataStore leaves files where they are and records their path.
type MetadataStore struct{}

func (MetadataStore) Mode() string { return config.StorageModeMetadata }

func (MetadataStore) Put(_ context.Context, fd scanner.FileDescriptor, _ registry.Employee) (string, error) {
	return fd.Path, nil
}

// CopyStore copies documents into <Dir>/<employee id>/ with verified writes.
type CopyStore struct {
	Dir   string
	Namer *transport.Namer
}

func (CopyStore) Mode() string { return config.StorageModeCopy }

func (s CopyStore) Put(ctx context.Context, fd scanner.FileDescriptor, owner registry.Employee) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	namer := s.Namer
	if namer == nil {
		namer = transport.NewNamer()
	}
	dst := filepath.Join(s.Dir, strconv.FormatInt(owner.ID, 10), namer.Name(owner.ID, fd.DisplayName))
	if _, err := fileutil.CopyFileVerified(fd.Path, dst); err != nil {
		return "", services.Wrap(services.ErrExternal, "ingest", "copy document", fd.DisplayName, err)
	}
	return dst, nil
}

// RemoteStore uploads documents through the shared transport session.
type RemoteStore struct {
	Uploader Uploader
}

func (RemoteStore) Mode() string { return config.StorageModeRemote }

func (s RemoteStore) Put(ctx context.Context, fd scanner.FileDescriptor, owner registry.Employee) (string, error) {
	res, err := s.Uploader.Upload(ctx, fd.Path, owner.ID, fd.DisplayName)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

// ContentStoreFromConfig selects the store for ingest.storage_mode. The
// uploader is only required in remote mode.
func ContentStoreFromConfig(cfg *config.Config, uploader Uploader) (ContentStore, error) {
	switch cfg.Ingest.StorageMode {
	case config.StorageModeMetadata, "":
		return MetadataStore{}, nil
	case config.StorageModeCopy:
		return CopyStore{Dir: cfg.Paths.DocumentsDir, Namer: transport.NewNamer()}, nil
	case config.StorageModeRemote:
		if uploader == nil {
			return nil, services.Wrap(services.ErrConfiguration, "ingest", "storage mode", "remote mode requires a transport uploader", nil)
		}
		return RemoteStore{Uploader: uploader}, nil
	default:
		return nil, fmt.Errorf("unsupported storage mode %q", cfg.Ingest.StorageMode)
	}
}
