// README: Wallet service; threshold guard, atomic debit/credit, gateway recharges.
package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"cabdesk/internal/types"
)

var (
	ErrNotFound          = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBelowThreshold    = errors.New("balance below threshold")
	ErrBadRequest        = errors.New("bad request")
	ErrInvalidSignature  = errors.New("invalid gateway signature")
	ErrRechargeNotFound  = errors.New("recharge order not found")
)

// Gateway is the payment collaborator. Signature verification is its
// whole contract here; SDK-level concerns stay outside this module.
type Gateway interface {
	PayURL(orderID, ownerID types.ID, amount int64) string
	VerifySignature(orderID, ownerID types.ID, amount int64, signature string) bool
}

type Service struct {
	store      *Store
	gateway    Gateway
	minBalance int64
}

func NewService(store *Store, gateway Gateway, minBalance int64) *Service {
	if minBalance <= 0 {
		minBalance = 500
	}
	return &Service{store: store, gateway: gateway, minBalance: minBalance}
}

// Get returns the owner's wallet, creating a zero-balance one on first use.
func (s *Service) Get(ctx context.Context, ownerID types.ID) (*Wallet, error) {
	if ownerID == "" {
		return nil, ErrBadRequest
	}
	if err := s.store.Ensure(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, ownerID)
}

// CheckThreshold gates new-booking acceptance: ok iff balance >= the
// configured minimum. A balance of exactly the minimum passes.
func (s *Service) CheckThreshold(ctx context.Context, ownerID types.ID) error {
	w, err := s.Get(ctx, ownerID)
	if err != nil {
		return err
	}
	if w.Balance.Amount < s.minBalance {
		return ErrBelowThreshold
	}
	return nil
}

// Recharge credits the wallet. Callers must have verified the gateway
// confirmation first; ConfirmRecharge is the usual path in.
func (s *Service) Recharge(ctx context.Context, ownerID types.ID, amount int64, reference string) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrBadRequest
	}
	if err := s.store.Ensure(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := s.store.Credit(ctx, ownerID, amount, reference); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, ownerID)
}

// Debit decreases the balance; it never overdraws. Penalty debits take
// the same path and fail the same way.
func (s *Service) Debit(ctx context.Context, ownerID types.ID, amount int64, reference string) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrBadRequest
	}
	ok, err := s.store.Debit(ctx, ownerID, amount, reference)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Either no wallet or not enough in it.
		if _, err := s.store.Get(ctx, ownerID); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientFunds
	}
	return s.store.Get(ctx, ownerID)
}

// CreditEarnings pays the driver's trip earnings after completion.
func (s *Service) CreditEarnings(ctx context.Context, driverID types.ID, amount types.Money, bookingID types.ID) error {
	if amount.Amount <= 0 {
		return nil
	}
	_, err := s.Recharge(ctx, driverID, amount.Amount, "earnings:"+string(bookingID))
	return err
}

// CreateRecharge opens a pending top-up order and returns the pay URL
// the vendor is redirected to.
func (s *Service) CreateRecharge(ctx context.Context, ownerID types.ID, amount int64) (*RechargeOrder, error) {
	if ownerID == "" || amount <= 0 {
		return nil, ErrBadRequest
	}
	o := &RechargeOrder{
		ID:      newOrderID(),
		OwnerID: ownerID,
		Amount:  amount,
		Status:  RechargePending,
	}
	if err := s.store.CreateRecharge(ctx, o); err != nil {
		return nil, err
	}
	o.PayURL = s.gateway.PayURL(o.ID, ownerID, amount)
	return o, nil
}

// ConfirmRecharge handles the signed gateway callback. Marking the
// order paid is a compare-and-swap, so a replayed callback cannot
// credit the wallet twice.
func (s *Service) ConfirmRecharge(ctx context.Context, orderID types.ID, signature string) (*Wallet, error) {
	o, err := s.store.GetRecharge(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.gateway.VerifySignature(o.ID, o.OwnerID, o.Amount, signature) {
		return nil, ErrInvalidSignature
	}
	ok, err := s.store.MarkRechargePaid(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if ok {
		return s.Recharge(ctx, o.OwnerID, o.Amount, "recharge:"+string(o.ID))
	}
	// Already processed; report the current balance.
	return s.Get(ctx, o.OwnerID)
}

func newOrderID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
