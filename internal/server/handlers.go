package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"solana-wallet-watcher/internal/metacache"
	"solana-wallet-watcher/internal/queue"
	"solana-wallet-watcher/internal/storage"
	"solana-wallet-watcher/internal/stream"
)

// StreamController is the subset of the stream manager the API drives
type StreamController interface {
	AddAddress(address string) bool
	RemoveAddress(address string) bool
	WatchedAddresses() map[string]bool
	State() stream.State
	Connected() bool
	GaveUp() bool
	WatchedCount() int
	Retry()
}

// QueueInspector exposes read-only backlog depths
type QueueInspector interface {
	Depth(kind queue.Kind) int
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Stream  StreamController   // Watched-address set and connection lifecycle
	Cache   storage.EventCache // Redis-backed event cache (optional)
	Meta    *metacache.Cache   // In-process asset metadata cache (optional)
	Queue   QueueInspector     // Rate-limited call queue (optional)
	DevMode bool               // Enable detailed error responses in development
	Logger  *logrus.Logger     // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Echo returns the received JSON payload as-is (useful for testing)
func (h *Handlers) Echo(c echo.Context) error {
	var v any
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(&v); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	return c.JSON(http.StatusOK, v)
}

// Status reports the connection state, the watched set, and backlog depths
func (h *Handlers) Status(c echo.Context) error {
	resp := StatusResponse{
		Connected: h.Stream.Connected(),
		State:     string(h.Stream.State()),
		GaveUp:    h.Stream.GaveUp(),
		Watched:   sortedAddresses(h.Stream.WatchedAddresses()),
	}
	resp.WatchedCount = len(resp.Watched)

	if h.Meta != nil {
		resp.MetadataCacheSize = h.Meta.Size()
	}
	if h.Queue != nil {
		resp.QueueDepths = map[string]int{
			string(queue.KindTransaction): h.Queue.Depth(queue.KindTransaction),
			string(queue.KindAssetBatch):  h.Queue.Depth(queue.KindAssetBatch),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// WatchList returns every currently watched address
func (h *Handlers) WatchList(c echo.Context) error {
	items := sortedAddresses(h.Stream.WatchedAddresses())
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// WatchAdd starts watching the address given in the path
// Malformed addresses are rejected; re-adding a watched address is a conflict
func (h *Handlers) WatchAdd(c echo.Context) error {
	address := strings.TrimSpace(c.Param("address"))
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid address", map[string]any{"address": "not a base58 public key"})
	}
	if !h.Stream.AddAddress(address) {
		return h.err(c, http.StatusConflict, "address already watched", nil)
	}
	return c.JSON(http.StatusOK, WatchResponse{Address: address, Watched: true})
}

// WatchRemove stops watching the address given in the path
// Returns 404 if the address was not watched
func (h *Handlers) WatchRemove(c echo.Context) error {
	address := strings.TrimSpace(c.Param("address"))
	if !h.Stream.RemoveAddress(address) {
		return h.err(c, http.StatusNotFound, "address not watched", nil)
	}
	return c.JSON(http.StatusOK, WatchResponse{Address: address, Watched: false})
}

// StreamRetry forces a reconnect attempt after the manager exhausted its
// automatic retries
func (h *Handlers) StreamRetry(c echo.Context) error {
	h.Stream.Retry()
	return c.JSON(http.StatusAccepted, map[string]any{"retrying": true})
}

// RecentEvents returns the most recent classified events with optional limit parameter
// Accepts limit query parameter (default: 100, range: 1-200)
func (h *Handlers) RecentEvents(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusServiceUnavailable, "event cache is not configured", nil)
	}

	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentEvents(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get events", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func sortedAddresses(watched map[string]bool) []string {
	out := make([]string, 0, len(watched))
	for a := range watched {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
