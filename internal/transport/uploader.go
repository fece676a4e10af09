package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"docingest/internal/logging"
	"docingest/internal/services"
)

// Object is one upload handed to a Session.
type Object struct {
	Name        string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Session is one physical connection to remote storage. Implementations need
// not be safe for concurrent use; the Uploader serializes every call.
type Session interface {
	Store(ctx context.Context, obj Object) (url string, err error)
	Close() error
}

// Dialer opens a new Session.
type Dialer func(ctx context.Context) (Session, error)

// Result describes a stored object.
type Result struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ErrClosed is returned for uploads submitted after Close or Abort.
var ErrClosed = errors.New("transport uploader closed")

const queueCapacity = 64

type request struct {
	ctx          context.Context
	localPath    string
	ownerID      int64
	originalName string
	probe        bool
	reply        chan response
}

type response struct {
	result Result
	err    error
	// sessionFailed marks errors raised by the session itself.
	sessionFailed bool
}

// Uploader serializes uploads over one lazily dialed Session.
type Uploader struct {
	dial   Dialer
	namer  *Namer
	logger *slog.Logger

	requests chan *request
	done     chan struct{}

	mu     sync.RWMutex
	closed bool

	base   context.Context
	cancel context.CancelFunc

	// Owned by the pump goroutine.
	session Session
	dials   int
}

// NewUploader starts the pump goroutine. Close or Abort must be called to
// release it.
func NewUploader(dial Dialer, namer *Namer, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	if namer == nil {
		namer = NewNamer()
	}
	base, cancel := context.WithCancel(context.Background())
	u := &Uploader{
		dial:     dial,
		namer:    namer,
		logger:   logging.NewComponentLogger(logger, "transport"),
		requests: make(chan *request, queueCapacity),
		done:     make(chan struct{}),
		base:     base,
		cancel:   cancel,
	}
	go u.pump()
	return u
}

// Upload stores the file at localPath under a name derived from ownerID and
// originalName, waiting for its turn on the shared session.
func (u *Uploader) Upload(ctx context.Context, localPath string, ownerID int64, originalName string) (Result, error) {
	return u.submit(ctx, &request{
		ctx:          ctx,
		localPath:    localPath,
		ownerID:      ownerID,
		originalName: originalName,
	})
}

// Probe establishes the session if none is open. A run calls it once at
// startup so an unreachable storage endpoint fails before any file is
// processed.
func (u *Uploader) Probe(ctx context.Context) error {
	_, err := u.submit(ctx, &request{ctx: ctx, probe: true})
	return err
}

// Pending returns the number of queued requests not yet taken by the pump.
func (u *Uploader) Pending() int {
	return len(u.requests)
}

func (u *Uploader) submit(ctx context.Context, req *request) (Result, error) {
	req.reply = make(chan response, 1)

	u.mu.RLock()
	if u.closed {
		u.mu.RUnlock()
		return Result{}, ErrClosed
	}
	select {
	case u.requests <- req:
		u.mu.RUnlock()
	case <-ctx.Done():
		u.mu.RUnlock()
		return Result{}, ctx.Err()
	case <-u.base.Done():
		u.mu.RUnlock()
		return Result{}, ErrClosed
	}

	select {
	case resp := <-req.reply:
		return resp.result, resp.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Close stops accepting uploads, waits until every queued request has been
// served, and closes the session. After Abort it returns without waiting.
func (u *Uploader) Close() error {
	u.stop()
	if u.base.Err() != nil {
		return nil
	}
	<-u.done
	u.cancel()
	return nil
}

// Abort cancels the in-flight command, fails every queued request, and lets
// the pump close the session in the background. It never blocks on the
// session.
func (u *Uploader) Abort() {
	u.cancel()
	u.stop()
}

func (u *Uploader) stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.closed {
		u.closed = true
		close(u.requests)
	}
}

func (u *Uploader) pump() {
	defer close(u.done)
	for req := range u.requests {
		resp := u.serve(req)
		req.reply <- resp
		if resp.sessionFailed {
			u.failQueued(resp.err)
		}
	}
	u.closeSession()
}

func (u *Uploader) serve(req *request) response {
	if err := u.base.Err(); err != nil {
		return response{err: ErrClosed}
	}
	if err := req.ctx.Err(); err != nil {
		return response{err: err}
	}

	ctx, cancel := context.WithCancel(req.ctx)
	defer cancel()
	stop := context.AfterFunc(u.base, cancel)
	defer stop()

	if err := u.ensureSession(ctx); err != nil {
		return response{err: err, sessionFailed: true}
	}
	if req.probe {
		return response{}
	}

	file, err := os.Open(req.localPath)
	if err != nil {
		return response{err: services.Wrap(services.ErrNotFound, "transport", "open local file", req.localPath, err)}
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return response{err: services.Wrap(services.ErrNotFound, "transport", "stat local file", req.localPath, err)}
	}
	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(req.localPath); err == nil {
		contentType = mtype.String()
	}

	obj := Object{
		Name:        u.namer.Name(req.ownerID, req.originalName),
		Body:        file,
		Size:        info.Size(),
		ContentType: contentType,
	}
	url, err := u.session.Store(ctx, obj)
	if err != nil {
		u.logger.Warn("remote store failed; dropping session",
			logging.String("object", obj.Name),
			logging.Error(err),
			logging.String(logging.FieldEventType, "transport_session_failed"),
			logging.String(logging.FieldErrorHint, "queued uploads fail with this error; the next upload reconnects"),
			logging.String(logging.FieldImpact, "queued files are reported as errors"),
		)
		u.closeSession()
		return response{err: services.Wrap(services.ErrExternal, "transport", "store object", obj.Name, err), sessionFailed: true}
	}
	u.logger.Debug("object stored", logging.String("object", obj.Name), logging.Int64("size_bytes", obj.Size))
	return response{result: Result{URL: url, Name: obj.Name, Size: obj.Size}}
}

func (u *Uploader) ensureSession(ctx context.Context) error {
	if u.session != nil {
		return nil
	}
	if u.dial == nil {
		return services.Wrap(services.ErrConfiguration, "transport", "dial", "no dialer configured", nil)
	}
	session, err := u.dial(ctx)
	if err != nil {
		return services.Wrap(services.ErrExternal, "transport", "dial", "remote session unavailable", err)
	}
	u.dials++
	u.session = session
	u.logger.Info("remote session established", logging.Int("session", u.dials))
	return nil
}

// failQueued answers every request already waiting in the queue with err.
func (u *Uploader) failQueued(err error) {
	for {
		select {
		case req, ok := <-u.requests:
			if !ok {
				return
			}
			req.reply <- response{err: err}
		default:
			return
		}
	}
}

func (u *Uploader) closeSession() {
	if u.session == nil {
		return
	}
	if err := u.session.Close(); err != nil {
		u.logger.Debug("session close failed", logging.Error(err))
	}
	u.session = nil
}
