package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"

	"go.uber.org/zap"
)

// IdentityService 会话身份与 :User 记录同步
type IdentityService interface {
	// EnsureOwner 按 id -> email -> 新建 的顺序落库
	EnsureOwner(ctx context.Context, ident domain.Identity) (*domain.Owner, error)
	// SyncOwner is EnsureOwner behind the owner-sync cache window.
	SyncOwner(ctx context.Context, ident domain.Identity) error
	GetOwner(ctx context.Context, id string) (*domain.Owner, error)
	UpdateOwner(ctx context.Context, id string, patch domain.OwnerPatch) (*domain.Owner, error)
	DeleteOwner(ctx context.Context, id string) error
}

type identityService struct {
	owners  repository.OwnersRepository
	cache   store.KV
	syncTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewIdentityService 创建 IdentityService；cache 可为 nil
func NewIdentityService(owners repository.OwnersRepository, cache store.KV, syncTTL time.Duration, logger *zap.Logger) IdentityService {
	return &identityService{
		owners:  owners,
		cache:   cache,
		syncTTL: syncTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// ownerSyncMarker 只表示窗口内已同步过，读取方不解析
const ownerSyncMarker = "1"

func ownerSyncKey(id string) string { return "owner-sync:" + id }

func (s *identityService) EnsureOwner(ctx context.Context, ident domain.Identity) (*domain.Owner, error) {
	ident.ID = strings.TrimSpace(ident.ID)
	if ident.ID == "" {
		return nil, domain.ErrAuthRequired
	}

	owner, err := s.owners.GetOwner(ctx, ident.ID)
	if err == nil {
		return owner, nil
	}
	if !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get owner %s: %w", ident.ID, err)
	}

	if email := strings.TrimSpace(ident.Email); email != "" {
		existing, err := s.owners.GetOwnerByEmail(ctx, email)
		switch {
		case err == nil:
			owner, err := s.owners.ReassignOwnerID(ctx, existing.Email, &domain.Owner{
				ID:    ident.ID,
				Name:  ident.Name,
				Image: ident.Image,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to reassign owner %s: %w", existing.ID, err)
			}
			s.logger.Info("Owner id reassigned by email",
				zap.String("old_id", existing.ID),
				zap.String("new_id", ident.ID))
			return owner, nil
		case !domain.IsNotFound(err):
			return nil, fmt.Errorf("failed to get owner by email: %w", err)
		}
	}

	name := strings.TrimSpace(ident.Name)
	if name == "" {
		name = domain.DefaultOwnerName
	}
	email := strings.TrimSpace(ident.Email)
	if email == "" {
		email = fmt.Sprintf("user-%s-%d@example.com", ident.ID, s.now().Unix())
	}
	owner, err = s.owners.CreateOwner(ctx, &domain.Owner{
		ID:    ident.ID,
		Name:  name,
		Email: email,
		Image: ident.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create owner %s: %w", ident.ID, err)
	}
	s.logger.Info("Owner created", zap.String("owner_id", owner.ID))
	return owner, nil
}

func (s *identityService) SyncOwner(ctx context.Context, ident domain.Identity) error {
	if s.cache != nil && ident.ID != "" {
		if _, err := s.cache.Get(ctx, ownerSyncKey(ident.ID)); err == nil {
			return nil
		} else if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("Owner sync cache read failed", zap.Error(err))
		}
	}

	owner, err := s.EnsureOwner(ctx, ident)
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ownerSyncKey(owner.ID), ownerSyncMarker, s.syncTTL); err != nil {
			s.logger.Warn("Owner sync cache write failed", zap.Error(err))
		}
	}
	return nil
}

func (s *identityService) GetOwner(ctx context.Context, id string) (*domain.Owner, error) {
	if id == "" {
		return nil, domain.ErrAuthRequired
	}
	return s.owners.GetOwner(ctx, id)
}

func (s *identityService) UpdateOwner(ctx context.Context, id string, patch domain.OwnerPatch) (*domain.Owner, error) {
	if id == "" {
		return nil, domain.ErrAuthRequired
	}
	if patch.Email != nil && !strings.Contains(*patch.Email, "@") {
		return nil, domain.InvalidInput("email %q is not valid", *patch.Email)
	}
	owner, err := s.owners.UpdateOwner(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.forget(ctx, id)
	return owner, nil
}

func (s *identityService) DeleteOwner(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrAuthRequired
	}
	if err := s.owners.DeleteOwner(ctx, id); err != nil {
		return err
	}
	s.forget(ctx, id)
	s.logger.Info("Owner deleted", zap.String("owner_id", id))
	return nil
}

func (s *identityService) forget(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, ownerSyncKey(id)); err != nil {
		s.logger.Warn("Owner sync cache delete failed", zap.Error(err))
	}
}
