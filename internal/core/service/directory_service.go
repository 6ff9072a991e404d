package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

type directoryService struct {
	accounts ports.AccountRepository
	roles    ports.RoleRepository
	log      zerolog.Logger
}

// NewDirectoryService returns a DirectoryService backed by the account and
// role repositories.
func NewDirectoryService(accounts ports.AccountRepository, roles ports.RoleRepository, log zerolog.Logger) ports.DirectoryService {
	return &directoryService{accounts: accounts, roles: roles, log: log}
}

func (s *directoryService) ListUsers(ctx context.Context) ([]domain.User, error) {
	accounts, err := s.accounts.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	roles, err := s.roleIndex(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(accounts))
	for _, a := range accounts {
		ref := a.Cargo
		if r, ok := roles[a.RoleID]; ok {
			ref = domain.StructuredRole(r)
		}
		users = append(users, a.ToUser(ref))
	}
	return users, nil
}

// UserOptions lists active users as {id, name} pairs.
func (s *directoryService) UserOptions(ctx context.Context) ([]domain.UserOption, error) {
	accounts, err := s.accounts.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("user options: %w", err)
	}
	opts := make([]domain.UserOption, 0, len(accounts))
	for _, a := range accounts {
		opts = append(opts, domain.UserOption{ID: a.ID, Name: a.Name})
	}
	return opts, nil
}

func (s *directoryService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (s *directoryService) roleIndex(ctx context.Context) (map[string]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	idx := make(map[string]domain.Role, len(roles))
	for _, r := range roles {
		idx[r.ID] = r
	}
	return idx, nil
}
