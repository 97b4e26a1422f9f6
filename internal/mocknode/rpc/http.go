package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chenzhangda16/web3-feedpipe/internal/mocknode/store"
)

// Server is the mock node's read-only RPC: consumers poll it for the latest
// signed payload and discover the signer set.
type Server struct {
	st      *store.RocksStore
	signers []common.Address
}

func NewServer(st *store.RocksStore, signers []common.Address) *Server {
	return &Server{st: st, signers: signers}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/node/head", s.handleHead)
	mux.HandleFunc("/node/signers", s.handleSigners)
	mux.HandleFunc("/payload/latest", s.handlePayloadLatest)
	mux.HandleFunc("/payload/by-time/", s.handlePayloadByTime)

	return mux
}

// -------------------- helpers --------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type PayloadResp struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Payload     string `json:"payload"` // 0x-hex of the raw payload bytes
}

type HeadResp struct {
	HeadTs int64 `json:"head_ts"`
	Empty  bool  `json:"empty"`
}

type SignersResp struct {
	Addresses []string `json:"addresses"`
}

// -------------------- handlers --------------------

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	ts, ok, err := s.st.Head()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if !ok {
		writeJSON(w, 200, HeadResp{Empty: true})
		return
	}
	writeJSON(w, 200, HeadResp{HeadTs: ts})
}

func (s *Server) handleSigners(w http.ResponseWriter, r *http.Request) {
	out := SignersResp{Addresses: make([]string, 0, len(s.signers))}
	for _, a := range s.signers {
		out.Addresses = append(out.Addresses, a.Hex())
	}
	writeJSON(w, 200, out)
}

func (s *Server) handlePayloadLatest(w http.ResponseWriter, r *http.Request) {
	raw, ts, err := s.st.GetLatestRaw()
	if err != nil {
		if errors.Is(err, store.ErrPayloadNotFound) {
			http.Error(w, "no payload yet", 404)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, 200, PayloadResp{TimestampMs: ts, Payload: "0x" + hex.EncodeToString(raw)})
}

func (s *Server) handlePayloadByTime(w http.ResponseWriter, r *http.Request) {
	tsStr := strings.TrimPrefix(r.URL.Path, "/payload/by-time/")
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil || ts <= 0 {
		http.Error(w, "bad timestamp", http.StatusBadRequest)
		return
	}
	raw, err := s.st.GetPayloadRaw(ts)
	if err != nil {
		if errors.Is(err, store.ErrPayloadNotFound) {
			http.Error(w, err.Error(), 404)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, 200, PayloadResp{TimestampMs: ts, Payload: "0x" + hex.EncodeToString(raw)})
}
