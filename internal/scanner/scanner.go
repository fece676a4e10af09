package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"docingest/internal/config"
	"docingest/internal/logging"
	"docingest/internal/services"
)

// DefaultBatchSize is the number of directory entries read at a time.
const DefaultBatchSize = 100

// Options configures the filters applied during a walk.
type Options struct {
	// AllowedExtensions lists lowercase extensions with a leading dot. Empty
	// allows every extension.
	AllowedExtensions []string
	// MaxFileSize rejects larger files. Zero disables the ceiling.
	MaxFileSize int64
	BatchSize   int
}

// OptionsFromConfig builds scanner options from the ingest section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AllowedExtensions: cfg.Ingest.AllowedExtensions,
		MaxFileSize:       cfg.MaxFileSizeBytes(),
		BatchSize:         cfg.Ingest.ScanBatchSize,
	}
}

// Scanner walks document trees.
type Scanner struct {
	allowed   map[string]struct{}
	maxSize   int64
	batchSize int
	logger    *slog.Logger
}

// New constructs a scanner. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Scanner{
		allowed:   allowed,
		maxSize:   opts.MaxFileSize,
		batchSize: batch,
		logger:    logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks root and returns every accepted descriptor.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileDescriptor, Stats, error) {
	var out []FileDescriptor
	stats, err := s.Walk(ctx, root, func(fd FileDescriptor) error {
		out = append(out, fd)
		return nil
	})
	return out, stats, err
}

type dirItem struct {
	path string
	real string
}

type walk struct {
	s       *Scanner
	ctx     context.Context
	fn      func(FileDescriptor) error
	stats   Stats
	visited map[string]struct{}
	seen    map[string]struct{}
}

// Walk visits root depth-first and calls fn for each accepted file. An
// inaccessible root is a fatal error; an error from fn or a cancelled
// context stops the walk and is returned as is.
func (s *Scanner) Walk(ctx context.Context, root string, fn func(FileDescriptor) error) (Stats, error) {
	w := &walk{
		s:       s,
		ctx:     ctx,
		fn:      fn,
		stats:   newStats(),
		visited: make(map[string]struct{}),
		seen:    make(map[string]struct{}),
	}

	info, err := os.Stat(root)
	if err != nil {
		return w.stats, services.Fatal("scanner", "open root", err)
	}
	if !info.IsDir() {
		return w.stats, services.Fatal("scanner", "open root", fmt.Errorf("%s is not a directory", root))
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return w.stats, services.Fatal("scanner", "resolve root", err)
	}
	dir, err := os.Open(root)
	if err != nil {
		return w.stats, services.Fatal("scanner", "open root", err)
	}
	_ = dir.Close()

	stack := []dirItem{{path: root, real: realRoot}}
	w.visited[realRoot] = struct{}{}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return w.stats, err
		}
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		subdirs, err := w.readDir(item)
		if err != nil {
			return w.stats, err
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	s.logger.Info("walk finished",
		logging.String("root", root),
		logging.Int("directories", w.stats.Directories),
		logging.Int("accepted", w.stats.Accepted),
		logging.Int("skipped", w.stats.SkippedTotal()),
	)
	return w.stats, nil
}

// readDir processes one directory in batches and returns its subdirectories
// in listing order. Only errors from fn or ctx are returned.
func (w *walk) readDir(item dirItem) ([]dirItem, error) {
	dir, err := os.Open(item.path)
	if err != nil {
		w.skipDirectory(item.path, err)
		return nil, nil
	}
	defer dir.Close()
	w.stats.Directories++

	var subdirs []dirItem
	for {
		entries, err := dir.ReadDir(w.s.batchSize)
		for _, entry := range entries {
			if ctxErr := w.ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			sub, err := w.visit(item, entry)
			if err != nil {
				return nil, err
			}
			if sub != nil {
				subdirs = append(subdirs, *sub)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			w.skipDirectory(item.path, err)
			break
		}
		if len(entries) == 0 {
			break
		}
	}
	return subdirs, nil
}

func (w *walk) visit(parent dirItem, entry fs.DirEntry) (*dirItem, error) {
	w.stats.Entries++
	path := filepath.Join(parent.path, entry.Name())
	real := filepath.Join(parent.real, entry.Name())

	var (
		info fs.FileInfo
		err  error
	)
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(path)
		if err == nil {
			real, err = filepath.EvalSymlinks(path)
		}
	} else {
		info, err = entry.Info()
	}
	if err != nil {
		w.skip(path, SkipUnreadable, "file could not be inspected", "check that the file still exists and is readable", logging.Error(err))
		return nil, nil
	}

	if info.IsDir() {
		if _, ok := w.visited[real]; ok {
			w.s.logger.Debug("directory already visited", logging.String(logging.FieldFile, path), logging.String("real_path", real))
			return nil, nil
		}
		w.visited[real] = struct{}{}
		return &dirItem{path: path, real: real}, nil
	}
	if !info.Mode().IsRegular() {
		w.stats.Skipped[SkipNotRegular]++
		w.s.logger.Debug("not a regular file", logging.String(logging.FieldFile, path))
		return nil, nil
	}

	ext := strings.ToLower(filepath.Ext(entry.Name()))
	if len(w.s.allowed) > 0 {
		if _, ok := w.s.allowed[ext]; !ok {
			w.skip(path, SkipExtension, "extension not allowed", "add the extension to ingest.allowed_extensions to ingest it", logging.String("extension", ext))
			return nil, nil
		}
	}
	size := info.Size()
	if size == 0 {
		w.skip(path, SkipEmpty, "file is empty", "rescan or replace the document")
		return nil, nil
	}
	if w.s.maxSize > 0 && size > w.s.maxSize {
		w.skip(path, SkipTooLarge, "file exceeds size limit", "raise ingest.max_file_size_mb to ingest it",
			logging.Int64("size_bytes", size), logging.Int64("max_bytes", w.s.maxSize))
		return nil, nil
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		w.skip(path, SkipUnreadable, "file is not readable", "grant read permission to the ingest user", logging.Error(err))
		return nil, nil
	}

	fd := FileDescriptor{
		Path:        path,
		DisplayName: entry.Name(),
		Extension:   ext,
		Size:        size,
		ModifiedAt:  info.ModTime(),
		Fingerprint: Fingerprint(real, size, info.ModTime()),
	}
	if _, dup := w.seen[fd.Fingerprint]; dup {
		w.stats.Skipped[SkipDuplicate]++
		w.s.logger.Debug("file already seen through another path", logging.String(logging.FieldFile, path), logging.String("real_path", real))
		return nil, nil
	}
	w.seen[fd.Fingerprint] = struct{}{}
	w.stats.accept(fd)
	return nil, w.fn(fd)
}

func (w *walk) skip(path string, reason SkipReason, msg, hint string, attrs ...logging.Attr) {
	w.stats.Skipped[reason]++
	attrs = append(attrs,
		logging.String(logging.FieldFile, path),
		logging.String("reason", string(reason)),
		logging.String(logging.FieldImpact, "file will not be ingested"),
		logging.String(logging.FieldErrorHint, hint),
	)
	logging.WarnWithContext(w.s.logger, "file skipped: "+msg, "file_skipped", attrs...)
}

func (w *walk) skipDirectory(path string, err error) {
	w.stats.UnreadableDirectories++
	logging.WarnWithContext(w.s.logger, "directory skipped", "directory_skipped",
		logging.String(logging.FieldFile, path),
		logging.Error(err),
		logging.String(logging.FieldImpact, "files below this directory will not be ingested"),
		logging.String(logging.FieldErrorHint, "check directory permissions"),
	)
}
