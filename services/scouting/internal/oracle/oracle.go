// Package oracle coordinates the asynchronous randomness boundary: a
// request message sent out at finish time, and a later independent
// fulfillment callback matched by record id. The only guarantee assumed
// is that a callback arrives at most once, at an unspecified time after
// the request.
package oracle

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/metasoccer/scouting-contracts/pkg/entropy"
	"github.com/metasoccer/scouting-contracts/pkg/fault"
)

// Requester delivers the outgoing randomness request. Implementations
// must treat it as fire-and-forget: no value is available synchronously.
type Requester interface {
	RequestRandomness(ctx context.Context, consumer string, recordID uint64, auxIndex uint32) error
}

type Coordinator struct {
	mu        sync.Mutex
	requester Requester
	oracle    string
	consumer  string
	requested map[uint64]struct{}
	seeds     map[uint64]entropy.Seed
	log       *zap.Logger
}

// NewCoordinator builds a coordinator that accepts fulfillments only
// from oracleAccount. requester may be nil when the external oracle
// observes requests out of band.
func NewCoordinator(requester Requester, oracleAccount, consumer string, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		requester: requester,
		oracle:    oracleAccount,
		consumer:  consumer,
		requested: map[uint64]struct{}{},
		seeds:     map[uint64]entropy.Seed{},
		log:       log,
	}
}

// Request asks the oracle for one random value keyed by recordID.
func (c *Coordinator) Request(ctx context.Context, recordID uint64) error {
	c.mu.Lock()
	c.requested[recordID] = struct{}{}
	requester := c.requester
	consumer := c.consumer
	c.mu.Unlock()

	c.log.Info("randomness requested", zap.Uint64("record_id", recordID))
	if requester == nil {
		return nil
	}
	return requester.RequestRandomness(ctx, consumer, recordID, 0)
}

// Fulfill is the oracle callback. Only the configured oracle account may
// deliver, at most once per record, and only for records that were
// actually requested.
func (c *Coordinator) Fulfill(caller string, recordID uint64, value entropy.Seed) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.oracle {
		return fault.Authorizationf("caller is not the configured oracle")
	}
	if _, ok := c.requested[recordID]; !ok {
		return fault.Statef("no randomness request for record")
	}
	if _, done := c.seeds[recordID]; done {
		return fault.Statef("randomness already fulfilled")
	}
	c.seeds[recordID] = value
	c.log.Info("randomness fulfilled", zap.Uint64("record_id", recordID))
	return nil
}

// Seed returns the delivered value for recordID, or the zero seed when
// fulfillment has not happened. Callers that must distinguish should
// check Fulfilled first.
func (c *Coordinator) Seed(recordID uint64) entropy.Seed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seeds[recordID]
}

func (c *Coordinator) Fulfilled(recordID uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seeds[recordID]
	return ok
}

// SetOracleAccount rotates the identity allowed to fulfill.
func (c *Coordinator) SetOracleAccount(account string) error {
	if account == "" {
		return fault.InvalidInputf("oracle account required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.oracle = account
	return nil
}

// SetRequester installs the outgoing request transport. Exists because
// a loopback requester needs the coordinator built first.
func (c *Coordinator) SetRequester(r Requester) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requester = r
}

func (c *Coordinator) OracleAccount() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.oracle
}

// InstantRequester fulfills requests synchronously with a value derived
// from a local secret. Development and test use only: it collapses the
// asynchronous boundary on purpose.
type InstantRequester struct {
	Secret      entropy.Seed
	Coordinator *Coordinator
	Oracle      string
}

func (r *InstantRequester) RequestRandomness(_ context.Context, _ string, recordID uint64, _ uint32) error {
	return r.Coordinator.Fulfill(r.Oracle, recordID, entropy.Derive(r.Secret, recordID))
}
