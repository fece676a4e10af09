package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
)

// CopyFileVerified streams src to dst with size and xxh3 integrity
// verification. The copy is written to a temporary sibling and renamed into
// place, so dst either holds the full content or does not exist. Parent
// directories are created as needed. Returns the number of bytes copied.
func CopyFileVerified(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create destination dir: %w", err)
	}
	out, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return 0, err
	}
	tmp := out.Name()
	defer func() {
		_ = out.Close()
		_ = os.Remove(tmp)
	}()

	srcHasher := xxh3.New()
	dstHasher := xxh3.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return 0, err
	}
	if err := out.Sync(); err != nil {
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}

	if written != srcSize {
		return 0, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if srcHasher.Sum64() != dstHasher.Sum64() {
		return 0, fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	if err := os.Rename(tmp, dst); err != nil {
		return 0, fmt.Errorf("move copy into place: %w", err)
	}
	return written, nil
}
