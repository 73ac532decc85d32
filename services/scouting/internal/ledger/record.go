package ledger

// Record is the per-cycle scouting state entity. Records live in an
// append-only arena keyed by id; they are never deleted, only marked
// inactive by zeroing StartTime.
type Record struct {
	ID            uint64   `json:"id"`
	Owner         string   `json:"owner"`
	CollateralID  uint64   `json:"collateral_id"`
	Level         uint8    `json:"level"`
	Role          string   `json:"role"`
	StartTime     int64    `json:"start_time"`
	LockDuration  int64    `json:"lock_duration"`
	Finished      bool     `json:"finished"`
	Claimed       bool     `json:"claimed"`
	DerivativeIDs []uint64 `json:"derivative_ids"`
}

// Active reports whether the record currently holds its collateral in
// escrow.
func (r Record) Active() bool { return r.StartTime != 0 }

// Ready reports whether the lock period has fully elapsed at now
// (unix seconds). The record must also still be active.
func (r Record) Ready(now int64) bool {
	return r.StartTime != 0 && r.StartTime+r.LockDuration <= now
}

func (r *Record) snapshot() Record {
	out := *r
	out.DerivativeIDs = append([]uint64(nil), r.DerivativeIDs...)
	return out
}
