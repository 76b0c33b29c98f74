package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"docflow/internal/auth/password"
	"docflow/internal/config"
	"docflow/internal/database"
	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/service"
	"docflow/pkg/logger"

	"go.uber.org/zap"
)

var defaultAccounts = []service.CreateUserRequest{
	{Username: "owner", Fullname: "System Owner", Password: "owner123", Role: model.RoleOwner},
	{Username: "admin", Fullname: "System Admin", Password: "admin123", Role: model.RoleAdmin},
	{Username: "staff1", Fullname: "Staff User", Password: "staff123", Role: model.RoleStaff},
	{Username: "user1", Fullname: "Regular User", Password: "user123", Role: model.RoleUser},
}

func main() {
	seed := flag.Bool("seed", false, "create the default accounts when no user exists")
	purge := flag.Bool("purge-activity", false, "delete every activity log entry")
	flag.Parse()

	if !*seed && !*purge {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zapLogger, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	db, err := database.NewConnection(cfg.GetDSN(), cfg.DBLogLevel, zapLogger)
	if err != nil {
		zapLogger.Fatal("Database connection failed", zap.Error(err))
	}
	ctx := context.Background()

	if *seed {
		hasher, err := password.New(cfg.PasswordHasher)
		if err != nil {
			zapLogger.Fatal("Invalid password hasher", zap.Error(err))
		}
		userRepo := repository.NewUserRepository(db)
		users := service.NewUserService(userRepo, repository.NewTransactionManager(db), hasher, zapLogger)
		if err := seedAccounts(ctx, userRepo, users, zapLogger); err != nil {
			zapLogger.Fatal("Seeding failed", zap.Error(err))
		}
	}

	if *purge {
		deleted, err := repository.NewActivityRepository(db).Purge(ctx)
		if err != nil {
			zapLogger.Fatal("Purging activity log failed", zap.Error(err))
		}
		fmt.Printf("Deleted %d activity log entries.\n", deleted)
	}
}

func seedAccounts(ctx context.Context, repo repository.UserRepository, users service.UserService, logger *zap.Logger) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Users already exist, skipping seed", zap.Int64("count", count))
		return nil
	}

	for _, req := range defaultAccounts {
		if _, err := users.CreateUser(ctx, req); err != nil {
			return fmt.Errorf("create %s: %w", req.Username, err)
		}
		logger.Info("Created account", zap.String("username", req.Username), zap.String("role", req.Role))
	}
	logger.Warn("Default accounts use well-known passwords, change them before going live")
	return nil
}
