package socketrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tinytelemetry/concentration/internal/model"
)

const defaultCallTimeout = 30 * time.Second

// Client implements model.GameService over a Unix domain socket using JSON-RPC 2.0.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

var _ model.GameService = (*Client)(nil)

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest. The
// connection deadline follows ctx, or defaultCallTimeout without one.
func (c *Client) call(ctx context.Context, method string, params any, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("socketrpc: marshal params: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultCallTimeout)
	}
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(Request{JSONRPC: "2.0", ID: id, Method: method, Params: paramsData}); err != nil {
		return fmt.Errorf("socketrpc: send: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("socketrpc: read: %w", err)
		}
		return fmt.Errorf("socketrpc: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
	}
	if resp.ID != id && resp.Error == nil {
		return fmt.Errorf("socketrpc: response id %d for request %d", resp.ID, id)
	}
	if resp.Error != nil {
		return resp.Error
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *Client) NewGame(ctx context.Context, opts model.NewGameOptions) (model.Snapshot, error) {
	var result model.Snapshot
	err := c.call(ctx, "NewGame", map[string]any{"PairCount": opts.PairCount, "Seed": opts.Seed}, &result)
	return result, err
}

func (c *Client) Reveal(gameID string, slot int) (model.Update, error) {
	var result model.Update
	err := c.call(context.Background(), "Reveal", map[string]any{"GameID": gameID, "Slot": slot}, &result)
	return result, err
}

func (c *Client) ResolveMismatch(gameID string, first, second int) (model.Update, error) {
	var result model.Update
	err := c.call(context.Background(), "ResolveMismatch", map[string]any{"GameID": gameID, "First": first, "Second": second}, &result)
	return result, err
}

func (c *Client) Reset(gameID string) (model.Update, error) {
	var result model.Update
	err := c.call(context.Background(), "Reset", map[string]any{"GameID": gameID}, &result)
	return result, err
}

func (c *Client) Poll(gameID string, afterSeq uint64) (model.Update, error) {
	var result model.Update
	err := c.call(context.Background(), "Poll", map[string]any{"GameID": gameID, "AfterSeq": afterSeq}, &result)
	return result, err
}

func (c *Client) EndGame(gameID string) error {
	return c.call(context.Background(), "EndGame", map[string]any{"GameID": gameID}, nil)
}
