package enrich

import (
	"fmt"
	"strings"
)

// HTTPError represents a non-2xx response from the enrichment API.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("helius http %d", e.StatusCode)
	}
	return fmt.Sprintf("helius http %d: %s", e.StatusCode, b)
}

// assetBatchRequest is the JSON-RPC body for the DAS getAssetBatch method.
type assetBatchRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      string           `json:"id"`
	Method  string           `json:"method"`
	Params  assetBatchParams `json:"params"`
}

type assetBatchParams struct {
	IDs            []string       `json:"ids"`
	DisplayOptions displayOptions `json:"displayOptions"`
}

type displayOptions struct {
	ShowFungible bool `json:"showFungible"`
}

// assetBatchResponse is the JSON-RPC envelope of a getAssetBatch result.
type assetBatchResponse struct {
	Result []assetEntry `json:"result"`
	Error  *rpcError    `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return e.Message
}

type assetEntry struct {
	ID      string       `json:"id"`
	Content assetContent `json:"content"`
}

type assetContent struct {
	Metadata assetMetadata `json:"metadata"`
	Links    assetLinks    `json:"links"`
}

type assetMetadata struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type assetLinks struct {
	Image string `json:"image"`
}

// transactionsRequest is the body for the enhanced-transactions endpoint.
type transactionsRequest struct {
	Transactions []string `json:"transactions"`
}
