package api

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hdevalence/ed25519consensus"
	"github.com/labstack/echo/v4"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

const (
	HEADER_CALLER    = "X-Caller"
	HEADER_SIGNATURE = "X-Signature"
	HEADER_TIMESTAMP = "X-Timestamp"
	HEADER_NONCE     = "X-Nonce"
	CONTEXT_CALLER   = "caller"

	DEFAULT_SIGNATURE_WINDOW = 5 * time.Minute
	MAX_NONCE_LENGTH         = 128
	REQUEST_DOMAIN_TAG       = "lending-bridge/request/v1"
)

// RequestMessage is the byte string a caller signs:
// tag, method, request URI, unix timestamp and nonce separated by newlines,
// followed by sha256(body).
func RequestMessage(method, uri string, timestamp int64, nonce string, body []byte) []byte {
	digest := sha256.Sum256(body)
	var buf bytes.Buffer
	buf.WriteString(REQUEST_DOMAIN_TAG)
	buf.WriteByte('\n')
	buf.WriteString(strings.ToUpper(method))
	buf.WriteByte('\n')
	buf.WriteString(uri)
	buf.WriteByte('\n')
	buf.WriteString(strconv.FormatInt(timestamp, 10))
	buf.WriteByte('\n')
	buf.WriteString(nonce)
	buf.WriteByte('\n')
	buf.Write(digest[:])
	return buf.Bytes()
}

// nonceCache remembers the nonces each caller used inside the signature window.
// Entries older than the window are pruned; their timestamps fail the skew
// check anyway.
type nonceCache struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]int64
}

func newNonceCache(window time.Duration) *nonceCache {
	return &nonceCache{window: window, seen: make(map[string]int64)}
}

// use records caller/nonce and reports false when it was already recorded.
func (n *nonceCache) use(caller types.Identity, nonce string, timestamp int64, now time.Time) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := now.Add(-n.window).Unix()
	for key, ts := range n.seen {
		if ts < cutoff {
			delete(n.seen, key)
		}
	}
	key := caller.String() + "/" + nonce
	if _, ok := n.seen[key]; ok {
		return false
	}
	n.seen[key] = timestamp
	return true
}

// CallerAuth verifies that X-Signature is the X-Caller key's ed25519
// signature over RequestMessage, that X-Timestamp lies within window of the
// server clock and that X-Nonce was not used before by the same caller.
func CallerAuth(window time.Duration) echo.MiddlewareFunc {
	if window <= 0 {
		window = DEFAULT_SIGNATURE_WINDOW
	}
	nonces := newNonceCache(window)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			caller, err := types.ParseIdentity(req.Header.Get(HEADER_CALLER))
			if err != nil {
				return fmt.Errorf("%w: %w", types.ErrUnauthorized, err)
			}
			signature, err := base58.Decode(req.Header.Get(HEADER_SIGNATURE))
			if err != nil || len(signature) != ed25519.SignatureSize {
				return fmt.Errorf("%w: malformed %s header", types.ErrInvalidSignature, HEADER_SIGNATURE)
			}
			timestamp, err := strconv.ParseInt(req.Header.Get(HEADER_TIMESTAMP), 10, 64)
			if err != nil {
				return fmt.Errorf("%w: malformed %s header", types.ErrUnauthorized, HEADER_TIMESTAMP)
			}
			nonce := req.Header.Get(HEADER_NONCE)
			if nonce == "" || len(nonce) > MAX_NONCE_LENGTH || strings.ContainsAny(nonce, "\r\n") {
				return fmt.Errorf("%w: malformed %s header", types.ErrUnauthorized, HEADER_NONCE)
			}
			now := time.Now()
			skew := now.Sub(time.Unix(timestamp, 0))
			if skew > window || skew < -window {
				return fmt.Errorf("%w: request timestamp outside %s window", types.ErrUnauthorized, window)
			}
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return err
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			message := RequestMessage(req.Method, req.URL.RequestURI(), timestamp, nonce, body)
			if !ed25519consensus.Verify(ed25519.PublicKey(caller[:]), message, signature) {
				log.Debug().Str("caller", caller.String()).Str("path", req.URL.Path).
					Msg("[ApiServer] [CallerAuth] signature rejected")
				return types.ErrInvalidSignature
			}
			if !nonces.use(caller, nonce, timestamp, now) {
				log.Warn().Str("caller", caller.String()).Str("nonce", nonce).
					Msg("[ApiServer] [CallerAuth] replayed request")
				return fmt.Errorf("%w: nonce already used", types.ErrUnauthorized)
			}
			c.Set(CONTEXT_CALLER, caller)
			return next(c)
		}
	}
}

func callerOf(c echo.Context) types.Identity {
	caller, _ := c.Get(CONTEXT_CALLER).(types.Identity)
	return caller
}

// SignedHeaders carries the authentication headers of one request.
type SignedHeaders struct {
	Caller    string
	Signature string
	Timestamp string
	Nonce     string
}

// Apply sets the headers on req.
func (h SignedHeaders) Apply(req *http.Request) {
	req.Header.Set(HEADER_CALLER, h.Caller)
	req.Header.Set(HEADER_SIGNATURE, h.Signature)
	req.Header.Set(HEADER_TIMESTAMP, h.Timestamp)
	req.Header.Set(HEADER_NONCE, h.Nonce)
}

// SignRequest signs a request with the current time and a fresh nonce.
func SignRequest(key ed25519.PrivateKey, method, uri string, body []byte) SignedHeaders {
	return SignRequestAt(key, method, uri, body, time.Now(), uuid.NewString())
}

func SignRequestAt(key ed25519.PrivateKey, method, uri string, body []byte, at time.Time, nonce string) SignedHeaders {
	pub := key.Public().(ed25519.PublicKey)
	timestamp := at.Unix()
	signature := ed25519.Sign(key, RequestMessage(method, uri, timestamp, nonce, body))
	return SignedHeaders{
		Caller:    base58.Encode(pub),
		Signature: base58.Encode(signature),
		Timestamp: strconv.FormatInt(timestamp, 10),
		Nonce:     nonce,
	}
}
