package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/graph"

	"github.com/google/uuid"
)

func ownerFromRecord(rec graph.Record) *domain.Owner {
	m := rec.Map("user")
	return &domain.Owner{
		ID:        graph.AsString(m["id"]),
		Name:      graph.AsString(m["name"]),
		Email:     graph.AsString(m["email"]),
		Image:     graph.AsString(m["image"]),
		CreatedAt: graph.AsTime(m["createdAt"]),
		UpdatedAt: graph.AsTime(m["updatedAt"]),
	}
}

func (r *Neo4jRepository) oneOwner(ctx context.Context, op, cypher string, params map[string]any) (*domain.Owner, error) {
	recs, err := r.run.Run(ctx, cypher, params)
	if err != nil {
		if errors.Is(err, graph.ErrConstraint) {
			return nil, domain.InvalidInput("owner id or email already registered")
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	if len(recs) == 0 {
		return nil, domain.ErrOwnerNotFound
	}
	return ownerFromRecord(recs[0]), nil
}

func (r *Neo4jRepository) GetOwner(ctx context.Context, id string) (*domain.Owner, error) {
	return r.oneOwner(ctx, "get owner",
		`MATCH (u:User {id: $id}) RETURN u {.*} AS user`,
		map[string]any{"id": id})
}

func (r *Neo4jRepository) GetOwnerByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	return r.oneOwner(ctx, "get owner by email",
		`MATCH (u:User) WHERE toLower(u.email) = toLower($email) RETURN u {.*} AS user LIMIT 1`,
		map[string]any{"email": email})
}

func (r *Neo4jRepository) CreateOwner(ctx context.Context, owner *domain.Owner) (*domain.Owner, error) {
	id := owner.ID
	if id == "" {
		id = uuid.NewString()
	}
	return r.oneOwner(ctx, "create owner", `
		CREATE (u:User {id: $id, name: $name, email: $email, image: $image,
		                createdAt: datetime(), updatedAt: datetime()})
		RETURN u {.*} AS user`,
		map[string]any{"id": id, "name": owner.Name, "email": owner.Email, "image": owner.Image})
}

func (r *Neo4jRepository) ReassignOwnerID(ctx context.Context, email string, owner *domain.Owner) (*domain.Owner, error) {
	return r.oneOwner(ctx, "reassign owner id", `
		MATCH (u:User) WHERE toLower(u.email) = toLower($email)
		WITH u LIMIT 1
		SET u.id = $id,
		    u.name = CASE WHEN $name <> '' THEN $name ELSE u.name END,
		    u.image = CASE WHEN $image <> '' THEN $image ELSE u.image END,
		    u.updatedAt = datetime()
		WITH u, [(u)-[:OWNS]->(s:Store) | s] AS stores
		FOREACH (s IN stores | SET s.ownerId = u.id)
		RETURN u {.*} AS user`,
		map[string]any{"email": email, "id": owner.ID, "name": owner.Name, "image": owner.Image})
}

func (r *Neo4jRepository) UpdateOwner(ctx context.Context, id string, patch domain.OwnerPatch) (*domain.Owner, error) {
	return r.oneOwner(ctx, "update owner", `
		MATCH (u:User {id: $id})
		SET u.name = coalesce($name, u.name),
		    u.email = coalesce($email, u.email),
		    u.image = coalesce($image, u.image),
		    u.updatedAt = datetime()
		RETURN u {.*} AS user`,
		map[string]any{
			"id":    id,
			"name":  strOrNil(patch.Name),
			"email": strOrNil(patch.Email),
			"image": strOrNil(patch.Image),
		})
}

func (r *Neo4jRepository) DeleteOwner(ctx context.Context, id string) error {
	recs, err := r.run.Run(ctx, `
		MATCH (u:User {id: $id})
		WITH u, [(u)-[:OWNS]->(s:Store) | s] AS stores
		FOREACH (s IN stores | REMOVE s.ownerId)
		DETACH DELETE u
		RETURN size(stores) AS detached`,
		map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete owner: %w", err)
	}
	if len(recs) == 0 {
		return domain.ErrOwnerNotFound
	}
	return nil
}
