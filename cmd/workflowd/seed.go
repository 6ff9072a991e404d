package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
	"github.com/gestaoprojetos/workflow-system/internal/core/service"
	mongodb "github.com/gestaoprojetos/workflow-system/internal/infrastructure/db/mongo"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo roles, users, a project and its stages",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := cmd.Flags().GetString("password")
		if err != nil {
			return err
		}
		return seed(cmd.Context(), password)
	},
}

func init() {
	seedCmd.Flags().String("password", "changeme", "password for every seeded user")
	rootCmd.AddCommand(seedCmd)
}

type seedUser struct {
	name   string
	email  string
	legacy string
	roleID string
}

var seedUsers = []seedUser{
	{name: "Diana Diretora", email: "diretor@example.com", legacy: domain.RoleDiretor},
	{name: "Sergio Supervisor", email: "supervisor@example.com", legacy: domain.RoleSupervisor},
	{name: "Elisa Executora", email: "executor@example.com", legacy: domain.RoleExecutor},
	{name: "Marcos Equipe", email: "equipe@example.com", legacy: domain.RoleExecutor},
	{name: "Olga Orcamentista", email: "orcamentista@example.com", roleID: "orcamentista"},
}

func seed(ctx context.Context, password string) error {
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}
	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	accounts := mongodb.NewAccountRepository(db)
	roles := mongodb.NewRoleRepository(db)

	// A structured role with an explicit page list, next to the legacy names.
	if err := roles.Save(ctx, &domain.Role{
		ID:           "orcamentista",
		Name:         "ORCAMENTISTA",
		Active:       true,
		AllowedPages: []string{domain.CapabilityQuotes, domain.CapabilityRequests},
		AccessLevel:  2,
	}); err != nil {
		return err
	}

	// Logout is never called while seeding, so no revoker is needed.
	auth := service.NewAuthService(accounts, roles, nil, cfg.JWTSecret, cfg.TokenTTL, log)
	ids := make(map[string]string, len(seedUsers))
	for _, u := range seedUsers {
		id, err := ensureUser(ctx, auth, accounts, u, password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", u.email, err)
		}
		ids[u.email] = id
	}

	now := time.Now().UTC()
	project := &domain.Project{
		ID:             "seed-project",
		Name:           "Reforma da sede",
		Status:         domain.ProjectInProgress,
		SupervisorID:   ids["supervisor@example.com"],
		ResponsibleIDs: []string{ids["diretor@example.com"]},
		TotalValue:     decimal.RequireFromString("125000.00"),
		Progress:       10,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := ignoreDuplicate(mongodb.NewProjectRepository(db).Create(ctx, project)); err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	stageRepo := mongodb.NewStageRepository(db)
	stages := []domain.Stage{
		{
			ID: "seed-stage-1", Name: "Demolição", Description: "Remover divisórias e piso antigo",
			Checklist: []domain.ChecklistItem{{Text: "Divisórias removidas"}, {Text: "Piso removido"}, {Text: "Entulho descartado"}},
		},
		{
			ID: "seed-stage-2", Name: "Elétrica", Description: "Refazer circuitos do andar",
			Checklist: []domain.ChecklistItem{{Text: "Quadro instalado"}, {Text: "Tomadas testadas"}},
		},
	}
	for i := range stages {
		s := &stages[i]
		s.ProjectID = project.ID
		s.Status = domain.StagePending
		s.ExecutorID = ids["executor@example.com"]
		s.TeamIDs = []string{ids["equipe@example.com"]}
		s.CreatedAt, s.UpdatedAt = now, now
		if err := ignoreDuplicate(stageRepo.Create(ctx, s)); err != nil {
			return fmt.Errorf("seed stage %s: %w", s.ID, err)
		}
	}

	log.Info().
		Int("users", len(ids)).
		Int("stages", len(stages)).
		Str("project_id", project.ID).
		Msg("seed complete")
	return nil
}

func ensureUser(ctx context.Context, auth *service.AuthService, accounts ports.AccountRepository, u seedUser, password string) (string, error) {
	user, err := auth.Register(ctx, ports.RegisterInput{
		Name:       u.name,
		Email:      u.email,
		Password:   password,
		RoleID:     u.roleID,
		LegacyRole: u.legacy,
	})
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, domain.ErrUserExists) {
		return "", err
	}
	existing, err := accounts.FindByEmail(ctx, u.email)
	if err != nil {
		return "", err
	}
	return existing.ID, nil
}

func ignoreDuplicate(err error) error {
	if err != nil && mongodriver.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}
