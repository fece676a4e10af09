package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalOptions configures directory-backed sessions.
type LocalOptions struct {
	Dir     string
	BaseURL string
}

type localSession struct {
	opts LocalOptions
}

// DialLocal returns a Dialer for a local directory. It is useful for
// single-host deployments and tests.
func DialLocal(opts LocalOptions) Dialer {
	return func(context.Context) (Session, error) {
		if opts.Dir == "" {
			return nil, errors.New("local transport directory is empty")
		}
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create transport directory: %w", err)
		}
		return &localSession{opts: opts}, nil
	}
}

// Store implements Session. Existing objects are never overwritten.
func (s *localSession) Store(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(s.opts.Dir, filepath.Base(obj.Name))
	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(out, obj.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && obj.Size >= 0 && written != obj.Size {
		err = fmt.Errorf("short write: %d of %d bytes", written, obj.Size)
	}
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return objectURL(s.opts.BaseURL, "file://"+s.opts.Dir, obj.Name), nil
}

func (s *localSession) Close() error {
	return nil
}
