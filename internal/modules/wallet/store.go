// README: Wallet store backed by PostgreSQL; balance changes and ledger rows share a transaction.
package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cabdesk/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Ensure(ctx context.Context, ownerID types.ID) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO wallets (owner_id, balance, currency, updated_at)
		VALUES ($1, 0, 'INR', NOW())
		ON CONFLICT (owner_id) DO NOTHING`,
		string(ownerID),
	)
	return err
}

func (s *Store) Get(ctx context.Context, ownerID types.ID) (*Wallet, error) {
	row := s.db.QueryRow(ctx, `
		SELECT owner_id, balance, currency, updated_at
		FROM wallets
		WHERE owner_id = $1`, string(ownerID),
	)
	var w Wallet
	err := row.Scan(&w.OwnerID, &w.Balance.Amount, &w.Balance.Currency, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Credit adds to the balance and writes the ledger row in one transaction.
// The UPDATE itself is the serialization point, so concurrent recharges
// cannot lose updates.
func (s *Store) Credit(ctx context.Context, ownerID types.ID, amount int64, reference string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var after int64
	err = tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance + $1, updated_at = NOW()
		WHERE owner_id = $2
		RETURNING balance`,
		amount, string(ownerID),
	).Scan(&after)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := appendLedger(ctx, tx, ownerID, EntryCredit, amount, after-amount, after, reference); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Debit subtracts only when the balance covers the amount; ok=false
// means no row qualified (missing wallet or would go negative).
func (s *Store) Debit(ctx context.Context, ownerID types.ID, amount int64, reference string) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var after int64
	err = tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance - $1, updated_at = NOW()
		WHERE owner_id = $2 AND balance >= $1
		RETURNING balance`,
		amount, string(ownerID),
	).Scan(&after)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := appendLedger(ctx, tx, ownerID, EntryDebit, amount, after+amount, after, reference); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func appendLedger(ctx context.Context, tx pgx.Tx, ownerID types.ID, kind EntryType, amount, before, after int64, reference string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO wallet_ledger (
			owner_id, entry_type, amount, balance_before, balance_after, reference, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		string(ownerID), string(kind), amount, before, after, reference,
	)
	return err
}

func (s *Store) Ledger(ctx context.Context, ownerID types.ID, limit int) ([]*LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, entry_type, amount, balance_before, balance_after, reference, created_at
		FROM wallet_ledger
		WHERE owner_id = $1
		ORDER BY id DESC
		LIMIT $2`, string(ownerID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Type, &e.Amount, &e.BalanceBefore, &e.BalanceAfter, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *Store) CreateRecharge(ctx context.Context, o *RechargeOrder) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO recharge_orders (id, owner_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		string(o.ID), string(o.OwnerID), o.Amount, string(o.Status),
	)
	return err
}

func (s *Store) GetRecharge(ctx context.Context, id types.ID) (*RechargeOrder, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, amount, status, created_at, paid_at
		FROM recharge_orders
		WHERE id = $1`, string(id),
	)
	var o RechargeOrder
	var paidAt sql.NullTime
	err := row.Scan(&o.ID, &o.OwnerID, &o.Amount, &o.Status, &o.CreatedAt, &paidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRechargeNotFound
	}
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	return &o, nil
}

// MarkRechargePaid flips pending→paid exactly once.
func (s *Store) MarkRechargePaid(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE recharge_orders
		SET status = 'paid', paid_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
