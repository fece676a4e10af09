package transport

import (
	"fmt"

	"docingest/internal/config"
)

// DialerFromConfig selects the session implementation named by
// transport.kind.
func DialerFromConfig(cfg *config.Config) (Dialer, error) {
	t := cfg.Transport
	switch t.Kind {
	case config.TransportFTP:
		return DialFTP(FTPOptions{
			Address:   t.Address,
			Username:  t.Username,
			Password:  t.Password,
			RemoteDir: t.RemoteDir,
			BaseURL:   t.BaseURL,
			Timeout:   cfg.TransportTimeout(),
		}), nil
	case config.TransportS3:
		return DialS3(S3Options{
			Endpoint:  t.Endpoint,
			Bucket:    t.Bucket,
			AccessKey: t.AccessKey,
			SecretKey: t.SecretKey,
			UseSSL:    t.UseSSL,
			Prefix:    t.RemoteDir,
			BaseURL:   t.BaseURL,
		}), nil
	case config.TransportLocal:
		return DialLocal(LocalOptions{Dir: t.RemoteDir, BaseURL: t.BaseURL}), nil
	default:
		return nil, fmt.Errorf("unsupported transport kind %q", t.Kind)
	}
}
