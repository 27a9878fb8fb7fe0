package models

import (
	"encoding/json"
	"time"
)

// Retryable operation types. The four sibling-feature writes plus the two
// match-request lifecycle writes replayed through the queue.
const (
	OpTypeProfileUpdate       = "profile_update"
	OpTypePostCreate          = "post_create"
	OpTypeMessageSend         = "message_send"
	OpTypeTournamentRegister  = "tournament_register"
	OpTypeMatchRequestCreate  = "match_request_create"
	OpTypeMatchRequestRespond = "match_request_respond"
)

// Operation priorities, high > medium > low.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// PriorityRank orders priorities for queue selection; lower rank runs first.
var PriorityRank = map[string]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// Operation statuses. Completed and failed are terminal and pruned by the
// cleanup sweep.
const (
	OpStatusPending   = "pending"
	OpStatusRetrying  = "retrying"
	OpStatusCompleted = "completed"
	OpStatusFailed    = "failed"
)

// RetryOperation is one pending durable write awaiting (re)delivery.
type RetryOperation struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	OwnerID     string          `json:"ownerId"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	LastAttempt time.Time       `json:"lastAttempt"`
	NextRetry   time.Time       `json:"nextRetry"`
	Priority    string          `json:"priority"`
	Status      string          `json:"status"`
	FinishedAt  time.Time       `json:"finishedAt,omitempty"` // set on completed/failed, drives pruning
}

// RetryPolicy is the per-type backoff configuration.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// RetryPolicies maps operation types to their backoff configuration. Latency
// sensitive writes retry fast with a tight cap; bulkier ones back off harder.
var RetryPolicies = map[string]RetryPolicy{
	OpTypeProfileUpdate:       {MaxAttempts: 3, BaseDelay: 1 * time.Second, MaxDelay: 30 * time.Second, Multiplier: 2},
	OpTypePostCreate:          {MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second, Multiplier: 2},
	OpTypeMessageSend:         {MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second, Multiplier: 2},
	OpTypeTournamentRegister:  {MaxAttempts: 3, BaseDelay: 3 * time.Second, MaxDelay: 60 * time.Second, Multiplier: 2},
	OpTypeMatchRequestCreate:  {MaxAttempts: 5, BaseDelay: 1 * time.Second, MaxDelay: 30 * time.Second, Multiplier: 2},
	OpTypeMatchRequestRespond: {MaxAttempts: 5, BaseDelay: 1 * time.Second, MaxDelay: 30 * time.Second, Multiplier: 2},
}

// QueueStats is the counters snapshot returned by getQueueStats.
type QueueStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Retrying  int `json:"retrying"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
