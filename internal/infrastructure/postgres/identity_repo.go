package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

type IdentityRepository struct {
	pool *pgxpool.Pool
}

func NewIdentityRepository(pool *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// q returns the transaction opened by WithSubjectLock when ctx carries one,
// so reads and writes inside the locked section see the same snapshot.
func (r *IdentityRepository) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.pool
}

func (r *IdentityRepository) FindBySubject(ctx context.Context, subjectID string) (*domain.Identity, error) {
	query := `
		SELECT subject_id,
		       COALESCE(linked_account_id, ''),
		       COALESCE(linked_status, ''),
		       COALESCE(phone_number, '')
		FROM identities
		WHERE subject_id = $1`

	var id domain.Identity
	err := r.q(ctx).QueryRow(ctx, query, subjectID).Scan(
		&id.SubjectID, &id.LinkedAccountID, &id.LinkedStatus, &id.PhoneNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &id, nil
}

func (r *IdentityRepository) SaveLinkedAccount(ctx context.Context, subjectID string, linked *domain.LinkedAccount) error {
	if linked == nil || linked.ID == "" {
		return errors.New("save linked account: linked account id is required")
	}
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO identities (subject_id, linked_account_id, linked_status)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject_id) DO UPDATE
		SET linked_account_id = EXCLUDED.linked_account_id,
		    linked_status     = EXCLUDED.linked_status,
		    updated_at        = now()`,
		subjectID, linked.ID, linked.Status,
	)
	if err != nil {
		return fmt.Errorf("save linked account: %w", err)
	}
	return nil
}

func (r *IdentityRepository) SavePhoneNumber(ctx context.Context, subjectID, phone string) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO identities (subject_id, phone_number)
		VALUES ($1, $2)
		ON CONFLICT (subject_id) DO UPDATE
		SET phone_number = EXCLUDED.phone_number,
		    updated_at   = now()`,
		subjectID, phone,
	)
	if err != nil {
		return fmt.Errorf("save phone number: %w", err)
	}
	return nil
}

// WithSubjectLock runs fn inside a transaction holding a transaction-scoped
// advisory lock derived from subjectID. The lock is released on commit or
// rollback, including when the connection drops.
func (r *IdentityRepository) WithSubjectLock(ctx context.Context, subjectID string, fn func(ctx context.Context) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, subjectID); err != nil {
		return fmt.Errorf("acquire subject lock: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
