package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

const ownerSelect = `SELECT id, name, email, image, created_at, updated_at FROM owners`

func scanOwner(row rowScanner) (*domain.Owner, error) {
	var o domain.Owner
	if err := row.Scan(&o.ID, &o.Name, &o.Email, &o.Image, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, err
	}
	return &o, nil
}

func ownerErr(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrOwnerNotFound):
		return err
	case isUniqueViolation(err):
		return domain.InvalidInput("owner id or email already registered")
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func (r *PostgresRepository) GetOwner(ctx context.Context, id string) (*domain.Owner, error) {
	o, err := scanOwner(r.db.QueryRowContext(ctx, ownerSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, ownerErr("get owner", err)
	}
	return o, nil
}

func (r *PostgresRepository) GetOwnerByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	o, err := scanOwner(r.db.QueryRowContext(ctx, ownerSelect+` WHERE lower(email) = lower($1) LIMIT 1`, email))
	if err != nil {
		return nil, ownerErr("get owner by email", err)
	}
	return o, nil
}

func (r *PostgresRepository) CreateOwner(ctx context.Context, owner *domain.Owner) (*domain.Owner, error) {
	id := owner.ID
	if id == "" {
		id = uuid.NewString()
	}
	o, err := scanOwner(r.db.QueryRowContext(ctx, `
		INSERT INTO owners (id, name, email, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, image, created_at, updated_at`,
		id, owner.Name, owner.Email, owner.Image))
	if err != nil {
		return nil, ownerErr("create owner", err)
	}
	return o, nil
}

// ReassignOwnerID store_ownerships follows via ON UPDATE CASCADE.
func (r *PostgresRepository) ReassignOwnerID(ctx context.Context, email string, owner *domain.Owner) (*domain.Owner, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM owners WHERE lower(email) = lower($1) LIMIT 1 FOR UPDATE`, email).Scan(&oldID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get owner by email: %w", err)
	}

	o, err := scanOwner(tx.QueryRowContext(ctx, `
		UPDATE owners SET
			id = $2,
			name = COALESCE(NULLIF($3::text, ''), name),
			image = COALESCE(NULLIF($4::text, ''), image),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, image, created_at, updated_at`,
		oldID, owner.ID, owner.Name, owner.Image))
	if err != nil {
		return nil, ownerErr("reassign owner id", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE stores SET owner_id = $2 WHERE owner_id = $1`, oldID, owner.ID); err != nil {
		return nil, fmt.Errorf("failed to move store owner ids: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit owner reassignment: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) UpdateOwner(ctx context.Context, id string, patch domain.OwnerPatch) (*domain.Owner, error) {
	o, err := scanOwner(r.db.QueryRowContext(ctx, `
		UPDATE owners SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			image = COALESCE($4, image),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, image, created_at, updated_at`,
		id, strOrNil(patch.Name), strOrNil(patch.Email), strOrNil(patch.Image)))
	if err != nil {
		return nil, ownerErr("update owner", err)
	}
	return o, nil
}

func (r *PostgresRepository) DeleteOwner(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE stores SET owner_id = NULL WHERE owner_id = $1`, id); err != nil {
		return fmt.Errorf("failed to detach stores: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete owner: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrOwnerNotFound
	}
	return tx.Commit()
}
