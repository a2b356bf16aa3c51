package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"palisade/internal/domain"

	"gorm.io/gorm"
)

type PrincipalRepository struct {
	db *gorm.DB
}

func NewPrincipalRepository(db *gorm.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

func (r *PrincipalRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Credential, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model PrincipalModel
	err := r.db.WithContext(ctx).First(&model, "identifier = ?", identifier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnknownPrincipal
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}
	roles, err := decodeRoles(model.Roles)
	if err != nil {
		return nil, fmt.Errorf("principal %s: %w", identifier, err)
	}
	return &domain.Credential{
		Identifier: model.Identifier,
		SecretHash: model.SecretHash,
		Roles:      roles,
	}, nil
}

func decodeRoles(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var roles []string
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	return roles, nil
}
