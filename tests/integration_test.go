package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-watcher/internal/cache"
	"solana-wallet-watcher/internal/constants"
	"solana-wallet-watcher/internal/models"
	"solana-wallet-watcher/internal/server"
	"solana-wallet-watcher/internal/stream"
)

const (
	testAPIAddr    = ":8091"
	testAPIKey     = "test-api-key-integration"
	watchedAddress = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
)

// memoryStream satisfies the control-plane interface without opening a
// websocket, so the API can be exercised against a real Redis alone.
type memoryStream struct {
	watched map[string]bool
}

func (m *memoryStream) AddAddress(address string) bool {
	if m.watched[address] {
		return false
	}
	m.watched[address] = true
	return true
}

func (m *memoryStream) RemoveAddress(address string) bool {
	if !m.watched[address] {
		return false
	}
	delete(m.watched, address)
	return true
}

func (m *memoryStream) WatchedAddresses() map[string]bool { return m.watched }

func (m *memoryStream) State() stream.State { return stream.StateIdle }

func (m *memoryStream) Connected() bool { return false }

func (m *memoryStream) GaveUp() bool { return false }

func (m *memoryStream) WatchedCount() int { return len(m.watched) }

func (m *memoryStream) Retry() {}

func setupIntegrationTest(t *testing.T) (*server.Server, *redis.Client, func()) {
	// Check if Redis is available
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   2, // Use different DB for integration tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}

	// Clear test DB
	_ = redisClient.FlushDB(ctx).Err()

	logger := logrus.New()
	eventCache := cache.NewEventCacheFromClient(redisClient, logger)

	handlers := &server.Handlers{
		Stream:  &memoryStream{watched: make(map[string]bool)},
		Cache:   eventCache,
		DevMode: true,
		Logger:  logger,
	}

	serverConfig := server.ServerConfig{
		Addr:    testAPIAddr,
		DevMode: true,
		APIKey:  testAPIKey,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: handlers,
		Config:   serverConfig,
	})
	require.NoError(t, err)

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			t.Logf("Server error: %v", err)
		}
	}()

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)
		_ = redisClient.FlushDB(ctx).Err()
		_ = redisClient.Close()
	}

	return srv, redisClient, cleanup
}

func makeRequest(t *testing.T, method, url string, body interface{}, expectedStatus int) *http.Response {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequest(method, url, reqBody)
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)

	assert.Equal(t, expectedStatus, resp.StatusCode, "Expected status %d, got %d", expectedStatus, resp.StatusCode)

	return resp
}

func TestIntegration_Health(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/health", nil, http.StatusOK)
	defer resp.Body.Close()

	var response server.HealthResponse
	err := json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)

	assert.True(t, response.OK)
}

func TestIntegration_Echo(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	payload := map[string]interface{}{"message": "hello", "count": 42}
	resp := makeRequest(t, http.MethodPost, "http://localhost:8091/v1/echo", payload, http.StatusOK)
	defer resp.Body.Close()

	var response map[string]interface{}
	err := json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, payload["message"], response["message"])
}

func TestIntegration_WatchLifecycle(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Add a watched address
	resp := makeRequest(t, http.MethodPost, "http://localhost:8091/v1/watch/"+watchedAddress, nil, http.StatusOK)
	defer resp.Body.Close()

	var watchResponse server.WatchResponse
	err := json.NewDecoder(resp.Body).Decode(&watchResponse)
	require.NoError(t, err)
	assert.Equal(t, watchedAddress, watchResponse.Address)
	assert.True(t, watchResponse.Watched)

	// Re-adding is a conflict
	resp = makeRequest(t, http.MethodPost, "http://localhost:8091/v1/watch/"+watchedAddress, nil, http.StatusConflict)
	defer resp.Body.Close()

	// The watched set shows up in status
	resp = makeRequest(t, http.MethodGet, "http://localhost:8091/v1/status", nil, http.StatusOK)
	defer resp.Body.Close()

	var statusResponse server.StatusResponse
	err = json.NewDecoder(resp.Body).Decode(&statusResponse)
	require.NoError(t, err)
	assert.Equal(t, []string{watchedAddress}, statusResponse.Watched)
	assert.Equal(t, 1, statusResponse.WatchedCount)

	// Remove it again
	resp = makeRequest(t, http.MethodDelete, "http://localhost:8091/v1/watch/"+watchedAddress, nil, http.StatusOK)
	defer resp.Body.Close()

	resp = makeRequest(t, http.MethodDelete, "http://localhost:8091/v1/watch/"+watchedAddress, nil, http.StatusNotFound)
	defer resp.Body.Close()
}

func TestIntegration_WatchValidation(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	resp := makeRequest(t, http.MethodPost, "http://localhost:8091/v1/watch/not-an-address", nil, http.StatusBadRequest)
	defer resp.Body.Close()

	var errorResponse server.ErrorResponse
	err := json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Contains(t, errorResponse.Error, "invalid address")
}

func TestIntegration_RecentEvents(t *testing.T) {
	_, redisClient, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()

	// Seed the event cache the way the pipeline writes it
	eventData := `{"signature":"test_sig","wallet":"` + watchedAddress + `","symbol":"FOO","direction":"BUY","sol_amount":2.0,"amount_text":"2.000 SOL"}`
	err := redisClient.LPush(ctx, constants.RedisKeyRecentEvents, eventData).Err()
	require.NoError(t, err)

	resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/events/recent?limit=5", nil, http.StatusOK)
	defer resp.Body.Close()

	var eventsResponse struct {
		Items []*models.ClassifiedEvent `json:"items"`
	}
	err = json.NewDecoder(resp.Body).Decode(&eventsResponse)
	require.NoError(t, err)
	require.Len(t, eventsResponse.Items, 1)
	assert.Equal(t, "test_sig", eventsResponse.Items[0].Signature)
	assert.Equal(t, "FOO", eventsResponse.Items[0].Symbol)
	assert.Equal(t, models.DirectionBuy, eventsResponse.Items[0].Direction)
}

func TestIntegration_RecentEventsValidation(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/events/recent?limit=500", nil, http.StatusBadRequest)
	defer resp.Body.Close()

	var errorResponse server.ErrorResponse
	err := json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Contains(t, errorResponse.Error, "invalid limit")
}

func TestIntegration_EventCacheRoundTrip(t *testing.T) {
	_, redisClient, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	eventCache := cache.NewEventCacheFromClient(redisClient, logrus.New())

	ev := &models.ClassifiedEvent{
		Signature:  "round_trip_sig",
		Wallet:     watchedAddress,
		Symbol:     "BAR",
		Direction:  models.DirectionSell,
		SolAmount:  1.5,
		AmountText: "1.500 SOL",
		Timestamp:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, eventCache.AddRecentEvent(ctx, ev))

	events, err := eventCache.GetRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ev.Signature, events[0].Signature)
	assert.Equal(t, ev.Direction, events[0].Direction)
}

func TestIntegration_Authentication(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Test without API key
	req, err := http.NewRequest(http.MethodGet, "http://localhost:8091/v1/health", nil)
	require.NoError(t, err)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Test with invalid API key
	req, err = http.NewRequest(http.MethodGet, "http://localhost:8091/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "invalid-key")

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_ErrorHandling(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Test 404 for non-existent endpoint
	req, err := http.NewRequest(http.MethodGet, "http://localhost:8091/v1/nonexistent", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAPIKey)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errorResponse server.ErrorResponse
	err = json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Equal(t, "not found", errorResponse.Error)
	assert.Equal(t, http.StatusNotFound, errorResponse.Code)
}

func TestIntegration_ConcurrentRequests(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	const numRequests = 50
	const numGoroutines = 10

	results := make(chan error, numRequests)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < numRequests/numGoroutines; j++ {
				resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/health", nil, http.StatusOK)
				resp.Body.Close()
				results <- nil
			}
		}()
	}

	// Collect all results
	for i := 0; i < numRequests; i++ {
		err := <-results
		assert.NoError(t, err)
	}
}
