package socketrpc

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/tinytelemetry/concentration/internal/deck"
	"github.com/tinytelemetry/concentration/internal/model"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.GameService over a Unix domain socket,
// one JSON object per line. Each method maps 1:1 to the interface.
//
//   Method            Params                                   Result
//   ───────────────   ──────────────────────────────────────   ────────
//   NewGame           {PairCount: int, Seed: *uint64}          Snapshot
//   Reveal            {GameID: string, Slot: int}              Update
//   ResolveMismatch   {GameID: string, First: int, Second: int} Update
//   Reset             {GameID: string}                         Update
//   Poll              {GameID: string, AfterSeq: uint64}       Update
//   EndGame           {GameID: string}                         null
//
// NewGame accepts empty or null params and uses the host defaults.
//
// Error codes:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error
//   -32001  Catalog unavailable
//   -32002  Insufficient distinct items
//   -32004  Game not found

const (
	codeParseError        = -32700
	codeMethodNotFound    = -32601
	codeInvalidParams     = -32602
	codeInternal          = -32603
	codeApplication       = -32000
	codeCatalogUnavail    = -32001
	codeInsufficientItems = -32002
	codeGameNotFound      = -32004
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Unwrap restores the sentinel error behind an application code so callers
// can use errors.Is on the client side.
func (e *RPCError) Unwrap() error {
	switch e.Code {
	case codeGameNotFound:
		return model.ErrGameNotFound
	case codeCatalogUnavail:
		return model.ErrCatalogUnavailable
	case codeInsufficientItems:
		return deck.ErrInsufficientItems
	default:
		return nil
	}
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, model.ErrGameNotFound):
		return codeGameNotFound
	case errors.Is(err, model.ErrCatalogUnavailable):
		return codeCatalogUnavail
	case errors.Is(err, deck.ErrInsufficientItems):
		return codeInsufficientItems
	default:
		return codeApplication
	}
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/memory/memoryd.sock, falling back to
// ~/.local/state/memory/memoryd.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "memory", "memoryd.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/memoryd.sock"
	}
	return filepath.Join(home, ".local", "state", "memory", "memoryd.sock")
}
