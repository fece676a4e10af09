package transport

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPOptions configures FTP sessions.
type FTPOptions struct {
	Address   string
	Username  string
	Password  string
	RemoteDir string
	// BaseURL prefixes returned object URLs. Empty yields ftp:// URLs.
	BaseURL string
	Timeout time.Duration
}

type ftpSession struct {
	conn *ftp.ServerConn
	opts FTPOptions
}

// DialFTP returns a Dialer that logs in and changes into RemoteDir,
// creating it when missing.
func DialFTP(opts FTPOptions) Dialer {
	return func(ctx context.Context) (Session, error) {
		dialOpts := []ftp.DialOption{ftp.DialWithContext(ctx)}
		if opts.Timeout > 0 {
			dialOpts = append(dialOpts, ftp.DialWithTimeout(opts.Timeout))
		}
		conn, err := ftp.Dial(opts.Address, dialOpts...)
		if err != nil {
			return nil, fmt.Errorf("ftp dial %s: %w", opts.Address, err)
		}
		if err := conn.Login(opts.Username, opts.Password); err != nil {
			_ = conn.Quit()
			return nil, fmt.Errorf("ftp login: %w", err)
		}
		if dir := strings.TrimSpace(opts.RemoteDir); dir != "" {
			if err := conn.ChangeDir(dir); err != nil {
				if mkErr := conn.MakeDir(dir); mkErr != nil {
					_ = conn.Quit()
					return nil, fmt.Errorf("ftp make dir %s: %w", dir, mkErr)
				}
				if err := conn.ChangeDir(dir); err != nil {
					_ = conn.Quit()
					return nil, fmt.Errorf("ftp change dir %s: %w", dir, err)
				}
			}
		}
		return &ftpSession{conn: conn, opts: opts}, nil
	}
}

// Store implements Session. Cancelling ctx closes the control connection,
// which unblocks a transfer in progress.
func (s *ftpSession) Store(ctx context.Context, obj Object) (string, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.Quit()
	})
	defer stop()

	if err := s.conn.Stor(obj.Name, obj.Body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("ftp stor %s: %w", obj.Name, err)
	}
	return objectURL(s.opts.BaseURL, "ftp://"+s.opts.Address, path.Join("/", s.opts.RemoteDir, obj.Name)), nil
}

func (s *ftpSession) Close() error {
	return s.conn.Quit()
}

// objectURL joins base (or fallback when base is empty) with key.
func objectURL(base, fallback, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = fallback
	}
	return base + "/" + strings.TrimLeft(key, "/")
}
