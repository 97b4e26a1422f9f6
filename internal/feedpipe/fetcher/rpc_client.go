package fetcher

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RPCClient talks to an oracle node's read-only HTTP RPC.
type RPCClient struct {
	base string
	hc   *http.Client
}

func NewRPCClient(base string) *RPCClient {
	base = strings.TrimRight(base, "/")
	return &RPCClient{
		base: base,
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type HeadResp struct {
	HeadTs int64 `json:"head_ts"`
	Empty  bool  `json:"empty"`
}

type PayloadResp struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Payload     string `json:"payload"` // 0x-hex
}

type SignersResp struct {
	Addresses []string `json:"addresses"`
}

func (c *RPCClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("rpc %s status=%d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *RPCClient) Head(ctx context.Context) (HeadResp, error) {
	var out HeadResp
	err := c.getJSON(ctx, "/node/head", &out)
	return out, err
}

func (c *RPCClient) Signers(ctx context.Context) ([]string, error) {
	var out SignersResp
	err := c.getJSON(ctx, "/node/signers", &out)
	return out.Addresses, err
}

// LatestPayload returns the newest raw payload bytes and their timestamp.
func (c *RPCClient) LatestPayload(ctx context.Context) ([]byte, int64, error) {
	var out PayloadResp
	if err := c.getJSON(ctx, "/payload/latest", &out); err != nil {
		return nil, 0, err
	}
	raw, err := decodeHexPayload(out.Payload)
	if err != nil {
		return nil, 0, err
	}
	return raw, out.TimestampMs, nil
}

func decodeHexPayload(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("fetcher: decode payload hex: %w", err)
	}
	return raw, nil
}
