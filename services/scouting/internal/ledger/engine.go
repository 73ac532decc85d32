// Package ledger owns the scouting record state machine: start, cancel,
// finish and claim, with custody escrow, fee settlement and randomness
// coordination executed inline with the transitions.
package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metasoccer/scouting-contracts/pkg/entropy"
	"github.com/metasoccer/scouting-contracts/pkg/fault"
	"github.com/metasoccer/scouting-contracts/pkg/scoutsig"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/journal"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/metrics"
)

// Custody is the collateral escrow boundary.
type Custody interface {
	OwnerOf(id uint64) (string, error)
	TransferToEscrow(from string, id uint64) error
	ReleaseFromEscrow(to string, id uint64) error
}

// Settler charges the start fee. A charge either fully applies or
// returns an error with nothing persisted.
type Settler interface {
	Charge(ctx context.Context, payer string, level uint8) error
}

// EntropySource is the randomness coordination boundary.
type EntropySource interface {
	Request(ctx context.Context, recordID uint64) error
	Seed(recordID uint64) entropy.Seed
	Fulfilled(recordID uint64) bool
}

// Issuer mints the derivative batch at claim time.
type Issuer interface {
	Issue(ctx context.Context, recordID uint64, owner string, level uint8, seed entropy.Seed) ([]uint64, error)
	CountForLevel(level uint8) (uint32, bool)
}

// Verifier validates a signed scouting authorization and returns the
// signer identity.
type Verifier interface {
	Verify(r scoutsig.Request, env scoutsig.Envelope, now time.Time) (string, error)
}

type Deps struct {
	Custody  Custody
	Settler  Settler
	Entropy  EntropySource
	Issuer   Issuer
	Verifier Verifier
	Journal  journal.Journal
	Metrics  *metrics.Metrics
	Log      *zap.Logger
	Now      func() time.Time
}

type Engine struct {
	mu                 sync.Mutex
	paused             bool
	records            []*Record
	byOwner            map[string][]uint64
	byCollateral       map[uint64][]uint64
	activeByCollateral map[uint64]uint64
	busyRecords        map[uint64]struct{}
	busyCollateral     map[uint64]struct{}

	custody  Custody
	settler  Settler
	entropy  EntropySource
	issuer   Issuer
	verifier Verifier
	journal  journal.Journal
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func New(d Deps) *Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Journal == nil {
		d.Journal = journal.NewMemory()
	}
	return &Engine{
		byOwner:            map[string][]uint64{},
		byCollateral:       map[uint64][]uint64{},
		activeByCollateral: map[uint64]uint64{},
		busyRecords:        map[uint64]struct{}{},
		busyCollateral:     map[uint64]struct{}{},
		custody:            d.Custody,
		settler:            d.Settler,
		entropy:            d.Entropy,
		issuer:             d.Issuer,
		verifier:           d.Verifier,
		journal:            d.Journal,
		metrics:            d.Metrics,
		log:                d.Log,
		now:                d.Now,
	}
}

// SetPaused flips the process-wide pause switch. While paused, every
// state-mutating operation fails with a State fault.
func (e *Engine) SetPaused(paused bool) {
	e.mu.Lock()
	e.paused = paused
	e.mu.Unlock()
	e.log.Info("pause switch", zap.Bool("paused", paused))
}

func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// StartParams carries the start transition inputs. The signature covers
// exactly (CollateralID, Level, Role, LockDuration, Expiry).
type StartParams struct {
	Caller       string
	CollateralID uint64
	Level        uint8
	Role         string
	LockDuration int64
	Expiry       int64
	Signature    scoutsig.Envelope
}

// Start locks the collateral into escrow, charges the level fee, and
// creates a new scouting record. Restart after cancel or finish is
// allowed and creates a new record id; history is additive.
func (e *Engine) Start(ctx context.Context, p StartParams) (Record, error) {
	if strings.TrimSpace(p.Caller) == "" {
		return Record{}, e.fail(fault.InvalidInputf("caller identity required"))
	}
	if p.CollateralID == 0 {
		return Record{}, e.fail(fault.InvalidInputf("collateral id required"))
	}
	if p.LockDuration <= 0 {
		return Record{}, e.fail(fault.InvalidInputf("lock duration must be positive"))
	}
	if _, ok := e.issuer.CountForLevel(p.Level); !ok {
		return Record{}, e.fail(fault.InvalidInputf("level not configured"))
	}

	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return Record{}, e.fail(fault.Statef("paused"))
	}
	if _, busy := e.busyCollateral[p.CollateralID]; busy {
		e.mu.Unlock()
		return Record{}, e.fail(fault.Reentrancyf("start in progress for collateral"))
	}
	if _, active := e.activeByCollateral[p.CollateralID]; active {
		e.mu.Unlock()
		return Record{}, e.fail(fault.Statef("collateral already in scouting"))
	}
	e.busyCollateral[p.CollateralID] = struct{}{}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.busyCollateral, p.CollateralID)
		e.mu.Unlock()
	}()

	owner, err := e.custody.OwnerOf(p.CollateralID)
	if err != nil {
		return Record{}, e.fail(err)
	}
	if owner != p.Caller {
		return Record{}, e.fail(fault.Ownershipf("caller does not own collateral"))
	}

	now := e.now().UTC()
	req := scoutsig.Request{
		CollateralID: p.CollateralID,
		Level:        p.Level,
		Role:         p.Role,
		LockDuration: p.LockDuration,
		Expiry:       p.Expiry,
	}
	signer, err := e.verifier.Verify(req, p.Signature, now)
	if err != nil {
		return Record{}, e.fail(err)
	}

	// Fees first: the charge is atomic on its own, and the custody
	// transfer below cannot fail after the ownership check because the
	// collateral guard keeps this start exclusive for the collateral.
	if err := e.settler.Charge(ctx, p.Caller, p.Level); err != nil {
		return Record{}, e.fail(err)
	}
	if err := e.custody.TransferToEscrow(p.Caller, p.CollateralID); err != nil {
		return Record{}, e.fail(err)
	}

	e.mu.Lock()
	rec := &Record{
		ID:           uint64(len(e.records)) + 1,
		Owner:        p.Caller,
		CollateralID: p.CollateralID,
		Level:        p.Level,
		Role:         p.Role,
		StartTime:    now.Unix(),
		LockDuration: p.LockDuration,
	}
	e.records = append(e.records, rec)
	e.byOwner[p.Caller] = append(e.byOwner[p.Caller], rec.ID)
	e.byCollateral[p.CollateralID] = append(e.byCollateral[p.CollateralID], rec.ID)
	e.activeByCollateral[p.CollateralID] = rec.ID
	snap := rec.snapshot()
	e.mu.Unlock()

	e.appendEvent(ctx, snap.ID, journal.EventStarted, p.Caller, map[string]any{
		"collateral_id": snap.CollateralID,
		"level":         snap.Level,
		"role":          snap.Role,
		"lock_duration": snap.LockDuration,
		"authorized_by": signer,
	})
	e.metrics.Transition("start")
	e.log.Info("scouting started",
		zap.Uint64("record_id", snap.ID),
		zap.Uint64("collateral_id", snap.CollateralID),
		zap.Uint8("level", snap.Level),
		zap.String("owner", snap.Owner))
	return snap, nil
}

// Cancel releases the collateral back to the record owner at any time.
// The fee already paid is forfeited.
func (e *Engine) Cancel(ctx context.Context, recordID uint64, caller string) (Record, error) {
	rec, release, err := e.begin(recordID)
	if err != nil {
		return Record{}, e.fail(err)
	}
	defer release()

	if caller != rec.Owner {
		return Record{}, e.fail(fault.Ownershipf("caller is not record owner"))
	}
	if !rec.Active() {
		return Record{}, e.fail(fault.Statef("record not active"))
	}
	if err := e.custody.ReleaseFromEscrow(caller, rec.CollateralID); err != nil {
		return Record{}, e.fail(err)
	}

	e.mu.Lock()
	stored := e.records[recordID-1]
	stored.StartTime = 0
	delete(e.activeByCollateral, stored.CollateralID)
	snap := stored.snapshot()
	e.mu.Unlock()

	e.appendEvent(ctx, recordID, journal.EventCancelled, caller, nil)
	e.metrics.Transition("cancel")
	e.log.Info("scouting cancelled", zap.Uint64("record_id", recordID))
	return snap, nil
}

// Finish requests randomness for the record and releases the collateral
// back to the record owner once the lock period has fully elapsed. Any
// party may trigger finish; custody always returns to the true owner.
func (e *Engine) Finish(ctx context.Context, recordID uint64, caller string) (Record, error) {
	rec, release, err := e.begin(recordID)
	if err != nil {
		return Record{}, e.fail(err)
	}
	defer release()

	if !rec.Active() {
		return Record{}, e.fail(fault.Statef("record not active"))
	}
	if !rec.Ready(e.now().Unix()) {
		return Record{}, e.fail(fault.Statef("lock period not elapsed"))
	}

	// The randomness request carries no state of its own; issue it
	// before any mutation so an abort leaves nothing half-done.
	if err := e.entropy.Request(ctx, recordID); err != nil {
		return Record{}, e.fail(fault.Wrap(fault.State, "randomness request failed", err))
	}
	if err := e.custody.ReleaseFromEscrow(rec.Owner, rec.CollateralID); err != nil {
		return Record{}, e.fail(err)
	}

	e.mu.Lock()
	stored := e.records[recordID-1]
	stored.Finished = true
	stored.StartTime = 0
	delete(e.activeByCollateral, stored.CollateralID)
	snap := stored.snapshot()
	e.mu.Unlock()

	e.appendEvent(ctx, recordID, journal.EventFinished, caller, map[string]any{
		"owner": snap.Owner,
	})
	e.metrics.Transition("finish")
	e.log.Info("scouting finished", zap.Uint64("record_id", recordID), zap.String("triggered_by", caller))
	return snap, nil
}

// Claim mints the derivative batch for a finished record and distributes
// the expanded entropy to the new items. Only the record owner may
// claim, and only once.
func (e *Engine) Claim(ctx context.Context, recordID uint64, caller string) (Record, error) {
	rec, release, err := e.begin(recordID)
	if err != nil {
		return Record{}, e.fail(err)
	}
	defer release()

	if rec.Claimed {
		return Record{}, e.fail(fault.Statef("already claimed"))
	}
	if caller != rec.Owner {
		return Record{}, e.fail(fault.Ownershipf("caller is not record owner"))
	}
	if !rec.Finished {
		return Record{}, e.fail(fault.Statef("record not finished"))
	}

	seed := e.entropy.Seed(recordID)
	if seed.IsZero() && !e.entropy.Fulfilled(recordID) {
		e.log.Warn("claim with unfulfilled seed", zap.Uint64("record_id", recordID))
	}

	// The claimed flag goes down before any mint so a reentrant claim
	// observes it even if the guard were bypassed.
	e.mu.Lock()
	stored := e.records[recordID-1]
	stored.Claimed = true
	e.mu.Unlock()

	ids, err := e.issuer.Issue(ctx, recordID, rec.Owner, rec.Level, seed)
	if err != nil {
		e.mu.Lock()
		stored.Claimed = false
		e.mu.Unlock()
		return Record{}, e.fail(err)
	}

	e.mu.Lock()
	stored.DerivativeIDs = append([]uint64(nil), ids...)
	snap := stored.snapshot()
	e.mu.Unlock()

	e.appendEvent(ctx, recordID, journal.EventClaimed, caller, map[string]any{
		"record": snap,
	})
	e.metrics.Transition("claim")
	e.log.Info("scouting claimed",
		zap.Uint64("record_id", recordID),
		zap.Int("derivatives", len(ids)))
	return snap, nil
}

// Get returns a snapshot of the record. Records are permanently
// retrievable once created.
func (e *Engine) Get(recordID uint64) (Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if recordID == 0 || recordID > uint64(len(e.records)) {
		return Record{}, fault.NotFoundf("record does not exist")
	}
	return e.records[recordID-1].snapshot(), nil
}

// RecordsByOwner returns snapshots of every record the owner ever
// created, in creation order.
func (e *Engine) RecordsByOwner(owner string) []Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := e.byOwner[owner]
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.records[id-1].snapshot())
	}
	return out
}

// CollateralHistory returns the record ids ever created for the
// collateral, oldest first.
func (e *Engine) CollateralHistory(collateralID uint64) []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint64(nil), e.byCollateral[collateralID]...)
}

// LastRecordIDFor resolves the most recent record for the collateral.
func (e *Engine) LastRecordIDFor(collateralID uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := e.byCollateral[collateralID]
	if len(ids) == 0 {
		return 0, fault.NotFoundf("no scouting history for collateral")
	}
	return ids[len(ids)-1], nil
}

// begin opens the per-record critical section: it snapshots the record,
// rejects when paused, and marks the record busy until release is
// called. A reentrant call on the same record fails instead of
// deadlocking.
func (e *Engine) begin(recordID uint64) (Record, func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return Record{}, nil, fault.Statef("paused")
	}
	if recordID == 0 || recordID > uint64(len(e.records)) {
		return Record{}, nil, fault.Statef("record does not exist")
	}
	if _, busy := e.busyRecords[recordID]; busy {
		return Record{}, nil, fault.Reentrancyf("operation in progress for record")
	}
	e.busyRecords[recordID] = struct{}{}
	release := func() {
		e.mu.Lock()
		delete(e.busyRecords, recordID)
		e.mu.Unlock()
	}
	return e.records[recordID-1].snapshot(), release, nil
}

func (e *Engine) appendEvent(ctx context.Context, recordID uint64, typ, actor string, payload map[string]any) {
	err := e.journal.Append(ctx, journal.Event{
		ID:       "evt_" + uuid.NewString(),
		RecordID: recordID,
		Type:     typ,
		Actor:    actor,
		At:       e.now().UTC(),
		Payload:  payload,
	})
	if err != nil {
		e.log.Warn("journal append failed", zap.String("type", typ), zap.Error(err))
	}
}

func (e *Engine) fail(err error) error {
	if kind, ok := fault.KindOf(err); ok {
		e.metrics.Fault(string(kind))
	}
	return err
}
