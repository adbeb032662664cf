package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errs "github.com/mezonai/snapledger/errors"
	"github.com/mezonai/snapledger/exception"
	"github.com/mezonai/snapledger/jsonx"
	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/monitoring"
	"github.com/mezonai/snapledger/ratelimit"
	"github.com/mezonai/snapledger/system"
	"github.com/mezonai/snapledger/types"
	"github.com/mezonai/snapledger/utils"
)

const maxBodyBytes = 1 << 16

// Server exposes ledger reads, transfers and claims over HTTP. Callers name
// themselves in the request body; the server is meant for local operation.
type Server struct {
	sys        *system.System
	router     *mux.Router
	limiter    *ratelimit.RateLimiter
	listenAddr string
	httpServer *http.Server
}

func NewServer(sys *system.System, listenAddr string, limiter *ratelimit.RateLimiter) *Server {
	s := &Server{
		sys:        sys,
		router:     mux.NewRouter(),
		limiter:    limiter,
		listenAddr: listenAddr,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.router.HandleFunc("/token", s.handleToken).Methods(http.MethodGet)
	s.router.HandleFunc("/supply", s.handleSupply).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts/{address}", s.handleAccount).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts/{address}/snapshots/{id:[0-9]+}", s.handleBalanceAt).Methods(http.MethodGet)
	s.router.HandleFunc("/period", s.handlePeriod).Methods(http.MethodGet)
	s.router.HandleFunc("/claims", s.handleClaims).Methods(http.MethodGet)

	s.router.HandleFunc("/transfer", s.handleTransfer).Methods(http.MethodPost)
	s.router.HandleFunc("/claim", s.handleClaim).Methods(http.MethodPost)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background until Shutdown
func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logx.Info("API", "Listening on", s.listenAddr)
	exception.SafeGoWithPanic("API server", func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error("API", "Server stopped:", err)
		}
	})
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var resp tokenResponse
	err := s.sys.View(func(sys *system.System) error {
		meta := sys.Ledger.Metadata()
		revision, hash, err := sys.StateHash()
		if err != nil {
			return err
		}
		resp = tokenResponse{
			Name:              meta.Name,
			Symbol:            meta.Symbol,
			Decimals:          meta.Decimals,
			Owner:             sys.Ledger.Owner(),
			TotalSupply:       sys.Ledger.TotalSupply().Dec(),
			CurrentSnapshotID: sys.Ledger.CurrentSnapshotID(),
			Revision:          revision,
			StateHash:         hash,
		}
		if price, err := sys.Ledger.IndexPrice(); err == nil {
			resp.IndexPrice = price.Dec()
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("snapshot")
	if raw == "" {
		var resp amountResponse
		_ = s.sys.View(func(sys *system.System) error {
			resp.Amount = sys.Ledger.TotalSupply().Dec()
			return nil
		})
		s.writeJSON(w, r, http.StatusOK, resp)
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid snapshot param: %w", err))
		return
	}
	var supply *uint256.Int
	err = s.sys.View(func(sys *system.System) error {
		var err error
		supply, err = sys.Ledger.TotalSupplyAt(id)
		return err
	})
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, amountResponse{Amount: supply.Dec(), SnapshotID: id})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["address"]
	var resp accountResponse
	_ = s.sys.View(func(sys *system.System) error {
		acc := sys.Ledger.GetAccount(addr)
		resp = accountResponse{
			Address:       acc.Address,
			Balance:       acc.Balance.Dec(),
			Frozen:        acc.Frozen.Dec(),
			Available:     acc.Available().Dec(),
			Blacklisted:   acc.Blacklisted,
			PayoutBalance: sys.Payout.BalanceOf(addr).Dec(),
			HasClaimed:    sys.Engine.HasClaimed(addr),
		}
		return nil
	})
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleBalanceAt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var balance *uint256.Int
	err = s.sys.View(func(sys *system.System) error {
		var err error
		balance, err = sys.Ledger.BalanceOfAt(vars["address"], id)
		return err
	})
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, amountResponse{Amount: balance.Dec(), SnapshotID: id})
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	var period *types.DistributionPeriod
	_ = s.sys.View(func(sys *system.System) error {
		period = sys.Engine.Period()
		return nil
	})
	if period == nil {
		s.writeLedgerError(w, r, errs.NewError(errs.ErrCodeNoActivePeriod, errs.ErrMsgNoActivePeriod))
		return
	}
	s.writeJSON(w, r, http.StatusOK, periodResponse{
		SnapshotID:            period.SnapshotID,
		PoolAmount:            period.PoolAmount.Dec(),
		TotalSupplyAtSnapshot: period.TotalSupplyAtSnapshot.Dec(),
		FundedAt:              period.FundedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	var resp []claimResponse
	_ = s.sys.View(func(sys *system.System) error {
		claims := sys.Engine.Claims()
		resp = make([]claimResponse, 0, len(claims))
		for _, c := range claims {
			resp = append(resp, claimResponse{Account: c.Account, Amount: c.Amount.Dec(), SnapshotID: c.SnapshotID})
		}
		return nil
	})
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferReq
	if !s.readBody(w, r, &req) {
		return
	}
	if req.Caller == "" || req.To == "" {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("caller and to are required"))
		return
	}
	if !s.allow(w, r, req.Caller) {
		return
	}
	var decimals uint8
	_ = s.sys.View(func(sys *system.System) error {
		decimals = sys.Ledger.Metadata().Decimals
		return nil
	})
	amount, err := utils.ParseUnits(req.Amount, decimals)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	err = s.sys.Execute("transfer", func(sys *system.System) error {
		return sys.Ledger.Transfer(req.Caller, req.To, amount)
	})
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, amountResponse{Amount: amount.Dec()})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimReq
	if !s.readBody(w, r, &req) {
		return
	}
	if req.Caller == "" {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("caller is required"))
		return
	}
	if !s.allow(w, r, req.Caller) {
		return
	}

	var amount *uint256.Int
	var snapshotID uint64
	err := s.sys.Execute("claim", func(sys *system.System) error {
		record, err := sys.Engine.ClaimInterest(req.Caller)
		if err != nil {
			return err
		}
		amount, snapshotID = record.Amount, record.SnapshotID
		return nil
	})
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, claimResponse{Account: req.Caller, Amount: amount.Dec(), SnapshotID: snapshotID})
}

func (s *Server) allow(w http.ResponseWriter, r *http.Request, caller string) bool {
	if s.limiter == nil || s.limiter.Allow(caller) {
		return true
	}
	logx.Warn("API", fmt.Sprintf("Rate limit exceeded | caller=%s | route=%s", caller, r.URL.Path))
	s.writeError(w, r, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
	return false
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("empty body"))
		return false
	}
	if err := jsonx.Unmarshal(body, out); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return false
	}
	return true
}

// writeLedgerError maps the error kind to an HTTP status
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindAuthorization, errs.KindRestriction:
		status = http.StatusForbidden
	case errs.KindState:
		status = http.StatusConflict
	case errs.KindArithmetic:
		status = http.StatusUnprocessableEntity
	case errs.KindValidation:
		status = http.StatusBadRequest
	}
	if errs.CodeOf(err) == errs.ErrCodeNonexistentSnapshot || errs.CodeOf(err) == errs.ErrCodeNoActivePeriod {
		status = http.StatusNotFound
	}
	s.writeError(w, r, status, err)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var le *errs.LedgerError
	if errors.As(err, &le) {
		resp = errorResponse{Error: le.Message, Code: string(le.Code), Kind: string(le.Kind)}
	}
	s.writeJSON(w, r, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	route := r.URL.Path
	if current := mux.CurrentRoute(r); current != nil {
		if tpl, err := current.GetPathTemplate(); err == nil {
			route = tpl
		}
	}
	monitoring.RecordAPIRequest(route, status)

	body, err := jsonx.Marshal(data)
	if err != nil {
		logx.Error("API", "Failed to encode JSON response:", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
