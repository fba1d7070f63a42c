package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/httpx"
)

const (
	HeaderName       = "Idempotency-Key"
	ReplayHeaderName = "X-Idempotent-Replay"
	maxKeyLength     = 255
)

// Logger is the printf-style sink for store failures.
type Logger interface {
	Printf(format string, args ...any)
}

type config struct {
	ttl      time.Duration
	clock    func() time.Time
	logger   Logger
	required bool
}

type Option func(*config)

func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(l Logger) Option {
	return func(c *config) { c.logger = l }
}

// Required rejects requests without a key with 400 idempotency_key_required.
// By default a missing key simply bypasses the middleware.
func Required() Option {
	return func(c *config) { c.required = true }
}

// Middleware guards the wrapped handler. Keys are scoped to the
// authenticated user. Only 2xx responses are stored; any other outcome
// releases the key so the client can retry once the problem is fixed.
func Middleware(store Store, opts ...Option) func(http.Handler) http.Handler {
	cfg := config{ttl: DefaultTTL, clock: time.Now}
	for _, o := range opts {
		o(&cfg)
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderName))
			if key == "" {
				if cfg.required {
					httpx.JSONError(w, http.StatusBadRequest, "idempotency_key_required", nil)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				httpx.JSONError(w, http.StatusBadRequest, "idempotency_key_too_long", nil)
				return
			}

			body, err := readAndReplayBody(r)
			if err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
				return
			}

			identity := requester(r)
			scoped := key + "|" + identity
			fp := fingerprint(r, body, identity)
			ctx := r.Context()

			res, err := store.Reserve(ctx, scoped, fp, cfg.clock(), cfg.ttl)
			switch {
			case errors.Is(err, ErrFingerprintMismatch):
				httpx.JSONError(w, http.StatusConflict, "idempotency_key_conflict", nil)
				return
			case err != nil:
				cfg.logf("idempotency: reserve %s: %v", key, err)
				httpx.JSONError(w, http.StatusInternalServerError, "idempotency_store_error", nil)
				return
			}

			switch res.State {
			case ReservationStateCompleted:
				writeStored(w, res.Record)
				return
			case ReservationStatePending:
				httpx.JSONError(w, http.StatusConflict, "idempotency_in_progress", nil)
				return
			}

			rec := newRecorder()
			func() {
				defer func() {
					if p := recover(); p != nil {
						_ = store.Release(ctx, scoped, fp)
						panic(p)
					}
				}()
				next.ServeHTTP(rec, r)
			}()

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			if rec.status >= 200 && rec.status < 300 {
				resp := Response{Status: rec.status, Headers: rec.header, Body: rec.body.Bytes()}
				if err := store.SaveResponse(ctx, scoped, fp, resp, cfg.clock(), cfg.ttl); err != nil {
					cfg.logf("idempotency: save %s: %v", key, err)
					_ = store.Release(ctx, scoped, fp)
				}
			} else if err := store.Release(ctx, scoped, fp); err != nil {
				cfg.logf("idempotency: release %s: %v", key, err)
			}
			rec.flush(w)
		})
	}
}

func (c config) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

func requester(r *http.Request) string {
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatUint(uint64(uid), 10)
	}
	return "anonymous"
}

func readAndReplayBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, httpx.MaxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func fingerprint(r *http.Request, body []byte, identity string) string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteString("|")
	b.WriteString(r.URL.Path)
	b.WriteString("|")
	b.WriteString(r.URL.RawQuery)
	b.WriteString("|")
	b.WriteString(identity)
	b.WriteString("|")
	b.WriteString(sha256Hex(body))
	return sha256Hex([]byte(b.String()))
}

func writeStored(w http.ResponseWriter, rec Record) {
	for k, vs := range rec.ResponseHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(ReplayHeaderName, "true")
	status := rec.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(rec.ResponseBody)
}

// recorder buffers the response so it can be stored before it is sent.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *recorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(p)
}

func (r *recorder) flush(w http.ResponseWriter) {
	dst := w.Header()
	for k, vs := range r.header {
		dst[k] = vs
	}
	w.WriteHeader(r.status)
	_, _ = w.Write(r.body.Bytes())
}
