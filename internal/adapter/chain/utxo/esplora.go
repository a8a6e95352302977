package utxo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// output is one spendable output as reported by an Esplora explorer.
type output struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  int64  `json:"value"`
	Status struct {
		Confirmed bool `json:"confirmed"`
	} `json:"status"`
}

// esplora talks to the Esplora REST API (blockstream.info, mempool.space).
type esplora struct {
	http    *http.Client
	baseURL string
}

func newEsplora(baseURL string, client *http.Client) *esplora {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &esplora{http: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (e *esplora) outputs(ctx context.Context, address string) ([]output, error) {
	var outs []output
	if err := e.getJSON(ctx, "/address/"+address+"/utxo", &outs); err != nil {
		return nil, fmt.Errorf("get utxos: %w", err)
	}
	return outs, nil
}

// feeEstimates maps confirmation targets in blocks to sat/vB.
func (e *esplora) feeEstimates(ctx context.Context) (map[string]float64, error) {
	est := map[string]float64{}
	if err := e.getJSON(ctx, "/fee-estimates", &est); err != nil {
		return nil, fmt.Errorf("get fee estimates: %w", err)
	}
	return est, nil
}

// broadcast posts a hex-encoded transaction and returns its txid.
func (e *esplora) broadcast(ctx context.Context, rawHex string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/tx", strings.NewReader(rawHex))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	body, err := e.do(req)
	if err != nil {
		return "", fmt.Errorf("broadcast: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

func (e *esplora) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	body, err := e.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (e *esplora) do(req *http.Request) ([]byte, error) {
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
