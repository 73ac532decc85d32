package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metasoccer/scouting-contracts/pkg/entropy"
	"github.com/metasoccer/scouting-contracts/pkg/fault"
	"github.com/metasoccer/scouting-contracts/pkg/httpx"
	"github.com/metasoccer/scouting-contracts/pkg/roles"
	"github.com/metasoccer/scouting-contracts/pkg/scoutsig"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/config"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/issuance"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/journal"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/ledger"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/metrics"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/oracle"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/settlement"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/tokens"
)

type server struct {
	cfg     config.Config
	log     *zap.Logger
	engine  *ledger.Engine
	coord   *oracle.Coordinator
	settle  *settlement.Settlement
	orch    *issuance.Orchestrator
	reg     *roles.Registry
	vault   *tokens.Vault
	bank    *tokens.Bank
	items   *tokens.Collection
	journal journal.Journal
	metrics *metrics.Metrics
	dev     bool
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Method("GET", "/metrics", s.metrics.Handler())

	r.Route("/scouting", func(api chi.Router) {
		api.Post("/records", s.handleStart)
		api.Get("/records/{record_id}", s.handleGetRecord)
		api.Get("/records/{record_id}/events", s.handleRecordEvents)
		api.Post("/records/{record_id}/cancel", s.handleCancel)
		api.Post("/records/{record_id}/finish", s.handleFinish)
		api.Post("/records/{record_id}/claim", s.handleClaim)
		api.Get("/owners/{owner}/records", s.handleOwnerRecords)
		api.Get("/collateral/{collateral_id}/last-record", s.handleLastRecord)
		api.Post("/oracle/fulfill", s.handleFulfill)

		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/pause", s.handlePause)
			admin.Post("/beneficiary", s.handleSetBeneficiary)
			admin.Post("/currencies", s.handleSetCurrencies)
			admin.Post("/prices", s.handleSetPrice)
			admin.Post("/derivative-counts", s.handleSetDerivativeCount)
			admin.Post("/oracle-account", s.handleSetOracleAccount)
			admin.Post("/roles:grant", s.handleGrantRole)
			admin.Post("/roles:revoke", s.handleRevokeRole)
		})

		if s.dev {
			// DEV helpers to seed tokens for smoke tests.
			api.Post("/dev/mint-collateral", s.handleDevMintCollateral)
			api.Post("/dev/fund", s.handleDevFund)
		}
	})
	return r
}

func urlID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fault.InvalidInputf("invalid " + name)
	}
	return id, nil
}

func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller       string            `json:"caller"`
		CollateralID uint64            `json:"collateral_id"`
		Level        uint8             `json:"level"`
		Role         string            `json:"role"`
		LockDuration int64             `json:"lock_duration"`
		Expiry       int64             `json:"expiry"`
		Signature    scoutsig.Envelope `json:"signature"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	rec, err := s.engine.Start(r.Context(), ledger.StartParams{
		Caller:       req.Caller,
		CollateralID: req.CollateralID,
		Level:        req.Level,
		Role:         req.Role,
		LockDuration: req.LockDuration,
		Expiry:       req.Expiry,
		Signature:    req.Signature,
	})
	if err != nil {
		httpx.WriteFault(w, err)
		return
	}
	httpx.WriteJSON(w, 201, map[string]any{"request_id": httpx.NewRequestID(), "record": rec})
}

func (s *server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.Cancel)
}

func (s *server) handleFinish(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.Finish)
}

func (s *server) handleClaim(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.Claim)
}

func (s *server) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, uint64, string) (ledger.Record, error)) {
	recordID, err := urlID(r, "record_id")
	if err != nil {
		httpx.WriteFault(w, err)
		return
	}
	var req struct {
		Caller string `json:"caller"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	rec, err := op(r.Context(), recordID, req.Caller)
	if err != nil {
		httpx.WriteFault(w, err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "record": rec})
}

func (s *server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	recordID, err := urlID(r, "record_id")
	if err != nil {
		httpx.WriteFault(w, err)
		return
	}
	rec, err := s.engine.Get(recordID)
	if err != nil {
		httpx.WriteFault(w, err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"record":     rec,
		"fulfilled":  s.coord.Fulfilled(recordID),
	})
}

func (s *server) handleRecordEvents(w http.ResponseWriter, r *http.Request) {
	recordID, err := urlID(r, "record_id")
	if err != nil {
		httpx.WriteFault(w, err)
		return
	}
	events, err := s.journal.ListByRecord(r.Context(), recordID)
	if err != nil {
		httpx.WriteError(w, 500, "JOURNAL_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "events": events})
}

func (s *server) handleOwnerRecords(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"records":    s.engine.RecordsByOwner(owner),
	})
}

func (s *server) handleLastRecord(w http.ResponseWriter, r *http.Request) {
	collateralID, err := urlID(r, "collateral_id")
	if err != nil {
		httpx.WriteFault(w, err)
		return
	}
	recordID, err := s.engine.LastRecordIDFor(collateralID)
	if err != nil {
		httpx.WriteFault(w, err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "record_id": recordID})
}

func (s *server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller   string `json:"caller"`
		RecordID uint64 `json:"record_id"`
		Value    string `json:"value"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	seed, err := entropy.ParseSeed(req.Value)
	if err != nil {
		httpx.WriteFault(w, fault.Wrap(fault.InvalidInput, "invalid seed value", err))
		return
	}
	if err := s.coord.Fulfill(req.Caller, req.RecordID, seed); err != nil {
		httpx.WriteFault(w, err)
		return
	}
	s.appendAdminEvent(r.Context(), req.RecordID, journal.EventSeedFulfilled, req.Caller, nil)
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "fulfilled": true})
}

// requireAdmin rejects callers without the administrate-config role.
func (s *server) requireAdmin(w http.ResponseWriter, caller string) bool {
	if !s.reg.Has(caller, roles.AdministrateConfig) {
		httpx.WriteFault(w, fault.Authorizationf("caller lacks administrate-config role"))
		return false
	}
	return true
}

func (s *server) appendAdminEvent(ctx context.Context, recordID uint64, typ, actor string, payload map[string]any) {
	err := s.journal.Append(ctx, journal.Event{
		ID:       "evt_" + uuid.NewString(),
		RecordID: recordID,
		Type:     typ,
		Actor:    actor,
		At:       time.Now().UTC(),
		Payload:  payload,
	})
	if err != nil {
		s.log.Warn("journal append failed", zap.String("type", typ), zap.Error(err))
	}
}

func (s *server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Paused bool   `json:"paused"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if !s.requireAdmin(w, req.Caller) {
		return
	}
	s.engine.SetPaused(req.Paused)
	s.appendAdminEvent(r.Context(), 0, journal.EventPaused, req.Caller, map[string]any{"paused": req.Paused})
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "paused": req.Paused})
}

func (s *server) handleSetBeneficiary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Account string `json:"account"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if !s.requireAdmin(w, req.Caller) {
		return
	}
	if err := s.settle.SetBeneficiary(req.Account); err != nil {
		httpx.WriteFault(w, err)
		return
	}
	s.configChanged(r, req.Caller, "beneficiary", req.Account)
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "beneficiary": req.Account})
}

func (s *server) handleSetCurrencies(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller     string   `json:"caller"`
		Currencies []string `json:"currencies"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if !s.requireAdmin(w, req.Caller) {
		return
	}
	if err := s.settle.SetCurrencies(req.Currencies); err != nil {
		httpx.WriteFault(w, err)
		return
	}
	s.configChanged(r, req.Caller, "currencies", req.Currencies)
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "currencies": req.Currencies})
}

func (s *server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller   string `json:"caller"`
		Currency string `json:"currency"`
		Level    uint8  `json:"level"`
		Amount   uint64 `json:"amount"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if !s.requireAdmin(w, req.Caller) {
		return
	}
	if err := s.settle.SetPrice(req.Currency, req.Level, req.Amount); err != nil {
		httpx.WriteFault(w, err)
		return
	}
	s.configChanged(r, req.Caller, "price", map[string]any{
		"currency": req.Currency, "level": req.Level, "amount": req.Amount,
	})
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "ok": true})
}

func (s *server) handleSetDerivativeCount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Level  uint8  `json:"level"`
		Count  uint32 `json:"count"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if !s.requireAdmin(w, req.Caller) {
		return
	}
	if err := s.orch.SetCount(req.Level, req.Count); err != nil {
		httpx.WriteFault(w, err)
		return
	}
	s.configChanged(r, req.Caller, "derivative_count", map[string]any{
		"level": req.Level, "count": req.Count,
	})
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "ok": true})
}

func (s *server) handleSetOracleAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Account string `json:"account"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if !s.requireAdmin(w, req.Caller) {
		return
	}
	if err := s.coord.SetOracleAccount(req.Account); err != nil {
		httpx.WriteFault(w, err)
		return
	}
	s.configChanged(r, req.Caller, "oracle_account", req.Account)
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "oracle_account": req.Account})
}

func (s *server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	s.handleRoleChange(w, r, true)
}

func (s *server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	s.handleRoleChange(w, r, false)
}

func (s *server) handleRoleChange(w http.ResponseWriter, r *http.Request, grant bool) {
	var req struct {
		Caller     string `json:"caller"`
		Account    string `json:"account"`
		Permission string `json:"permission"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if !s.requireAdmin(w, req.Caller) {
		return
	}
	perm := roles.Permission(req.Permission)
	switch perm {
	case roles.AdministrateConfig, roles.AuthorizeRequests, roles.MintDerivatives, roles.WriteEntropy:
	default:
		httpx.WriteFault(w, fault.InvalidInputf("unknown permission"))
		return
	}
	if grant {
		s.reg.Grant(req.Account, perm)
	} else {
		s.reg.Revoke(req.Account, perm)
	}
	s.configChanged(r, req.Caller, "role", map[string]any{
		"account": req.Account, "permission": req.Permission, "granted": grant,
	})
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "ok": true})
}

func (s *server) configChanged(r *http.Request, caller, key string, value any) {
	s.appendAdminEvent(r.Context(), 0, journal.EventConfigChanged, caller, map[string]any{key: value})
	s.log.Info("config changed", zap.String("key", key), zap.String("by", caller))
}

func (s *server) handleDevMintCollateral(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner string `json:"owner"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	id := s.vault.Mint(req.Owner)
	httpx.WriteJSON(w, 201, map[string]any{"request_id": httpx.NewRequestID(), "collateral_id": id})
}

func (s *server) handleDevFund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
		Account  string `json:"account"`
		Amount   uint64 `json:"amount"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	s.bank.Mint(req.Currency, req.Account, req.Amount)
	s.bank.Approve(req.Currency, req.Account, s.cfg.ServiceAccount, req.Amount)
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "funded": true})
}
