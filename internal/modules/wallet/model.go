// README: Wallet aggregate, ledger entries, and recharge orders.
package wallet

import (
	"time"

	"cabdesk/internal/types"
)

// Wallet holds a non-negative balance per owner. Vendors hold the
// acceptance-gating wallet; drivers hold an earnings wallet on the
// same table.
type Wallet struct {
	OwnerID   types.ID
	Balance   types.Money
	UpdatedAt time.Time
}

type EntryType string

const (
	EntryCredit EntryType = "credit"
	EntryDebit  EntryType = "debit"
)

// LedgerEntry records one applied balance change.
type LedgerEntry struct {
	ID            int64
	OwnerID       types.ID
	Type          EntryType
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	Reference     string
	CreatedAt     time.Time
}

type RechargeStatus string

const (
	RechargePending RechargeStatus = "pending"
	RechargePaid    RechargeStatus = "paid"
)

// RechargeOrder tracks one gateway top-up from creation to the signed
// confirmation callback.
type RechargeOrder struct {
	ID        types.ID
	OwnerID   types.ID
	Amount    int64
	Status    RechargeStatus
	PayURL    string
	CreatedAt time.Time
	PaidAt    *time.Time
}
