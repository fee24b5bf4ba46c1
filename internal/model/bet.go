package model

import "time"

// BetStatus is the externally visible status of a history record.
type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetAcked   BetStatus = "acked"
	BetWon     BetStatus = "won"
	BetLost    BetStatus = "lost"
)

// Terminal reports whether no further status change is possible.
func (s BetStatus) Terminal() bool {
	return s == BetWon || s == BetLost
}

// BetRecord is the persisted history entry for a single account's bet.
// It is created in pending at submission time, mutated exactly once to
// acked and exactly once more to a terminal state, never after.
type BetRecord struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	BatchID     string    `json:"batch_id" gorm:"index"`
	AccountID   string    `json:"account_id"`
	AccountName string    `json:"account_name"`
	Platform    string    `json:"platform" gorm:"index"`
	League      string    `json:"league"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	Market      string    `json:"market"`
	Odds        string    `json:"odds"`
	Amount      float64   `json:"amount"`
	Status      BetStatus `json:"status" gorm:"index"`

	// Terminal-only fields.
	Payout          *float64   `json:"payout,omitempty"`
	Error           string     `json:"error,omitempty"`
	ErrorScreenshot string     `json:"error_screenshot,omitempty"`
	ElapsedMs       *int64     `json:"elapsed_ms,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// BetPatch carries the fields merged into a record by UpdateRecord.
// Nil fields are left untouched.
type BetPatch struct {
	Status          *BetStatus
	Payout          *float64
	Error           *string
	ErrorScreenshot *string
	ElapsedMs       *int64
	CompletedAt     *time.Time
}
