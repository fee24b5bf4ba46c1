package model

// DistributeRequest represents the incoming JSON body for a distribution.
// Either Total or Preset must be set; Preset indexes the configured quick
// amounts and always uses the noisy mode.
type DistributeRequest struct {
	Platform   string   `json:"platform" binding:"required"`
	AccountIDs []string `json:"account_ids" binding:"required"`
	Total      float64  `json:"total,omitempty"`
	Preset     *int     `json:"preset,omitempty"`
	Mode       string   `json:"mode,omitempty"` // even or noisy
}

// AllocationResult maps account ids to allocated stakes. Shortfall is the
// part of the requested total that no account had headroom for; it is a
// normal outcome, not an error.
type AllocationResult struct {
	Allocations map[string]float64 `json:"allocations"`
	Assigned    float64            `json:"assigned"`
	Shortfall   float64            `json:"shortfall"`
	Mode        string             `json:"mode"`
}

// Selection is one (account, amount) pair inside a submission.
type Selection struct {
	AccountID string  `json:"account_id" binding:"required"`
	Amount    float64 `json:"amount"`
}

// SubmitRequest represents a bet batch submission.
type SubmitRequest struct {
	Platform   string      `json:"platform" binding:"required"`
	MatchID    string      `json:"match_id" binding:"required"`
	Market     string      `json:"market" binding:"required"`
	Odds       string      `json:"odds,omitempty"` // defaults to the match's listed odds
	Selections []Selection `json:"selections" binding:"required"`
}

// BatchSnapshot is the point-in-time view of a submitted batch.
type BatchSnapshot struct {
	BatchID    string      `json:"batch_id"`
	State      string      `json:"state"` // running, settled, closed, cancelled
	Records    []BetRecord `json:"records"`
	AllSettled bool        `json:"all_settled"`
	AllWon     bool        `json:"all_won"`
}
