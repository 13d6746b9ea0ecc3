package stream

import "encoding/json"

// subscribeRequest is the JSON-RPC logsSubscribe message sent once per
// watched address after the socket opens.
type subscribeRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type mentionsFilter struct {
	Mentions []string `json:"mentions"`
}

type commitmentOption struct {
	Commitment string `json:"commitment"`
}

func newSubscribeRequest(id int, address string) subscribeRequest {
	return subscribeRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "logsSubscribe",
		Params: []interface{}{
			mentionsFilter{Mentions: []string{address}},
			commitmentOption{Commitment: "finalized"},
		},
	}
}

// pushFrame covers both notification frames and subscription confirmations.
type pushFrame struct {
	Method string          `json:"method"`
	Params *notifyParams   `json:"params"`
	Result json.RawMessage `json:"result"`
	ID     int             `json:"id"`
}

type notifyParams struct {
	Result notifyResult `json:"result"`
}

type notifyResult struct {
	Value notifyValue `json:"value"`
}

type notifyValue struct {
	Signature string `json:"signature"`
}

// parseFrame extracts the pushed signature from a logsNotification frame.
// Confirmation frames and anything unrecognizable return ok=false.
func parseFrame(data []byte) (signature string, ok bool) {
	var frame pushFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return "", false
	}
	if frame.Method != "logsNotification" || frame.Params == nil {
		return "", false
	}
	sig := frame.Params.Result.Value.Signature
	if sig == "" {
		return "", false
	}
	return sig, true
}
