package domain

import "time"

// Event types
const (
	EventTypeTransactionApplied = "transaction.applied"
	EventTypeLoanRequested      = "loan.requested"
	EventTypeLoanApproved       = "loan.approved"
	EventTypeLoanPaid           = "loan.paid"
	EventTypeAccountOpened      = "account.opened"
)

// Aggregate types
const (
	AggregateTypeEntry   = "entry"
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewEntryEvent builds the outbox event describing an entry change.
func NewEntryEvent(id, eventType string, e *TransactionEntry, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   e.ID,
		AggregateType: AggregateTypeEntry,
		EventType:     eventType,
		Payload: map[string]any{
			"entry_id":      e.ID,
			"account_id":    e.AccountID,
			"type":          string(e.EffectiveType()),
			"loan_state":    string(e.LoanState),
			"amount":        e.Amount.String(),
			"balance_after": e.BalanceAfter.String(),
			"applied_at":    e.AppliedAt.Format(time.RFC3339Nano),
		},
		CreatedAt: at,
	}
}

// NewAccountOpenedEvent builds the outbox event for a provisioned account.
func NewAccountOpenedEvent(id string, a *Account) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   a.ID,
		AggregateType: AggregateTypeAccount,
		EventType:     EventTypeAccountOpened,
		Payload: map[string]any{
			"account_id":      a.ID,
			"owner_id":        a.OwnerID,
			"initial_balance": a.InitialBalance.String(),
		},
		CreatedAt: a.CreatedAt,
	}
}
