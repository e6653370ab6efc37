package routes

import (
	"context"
	"fmt"

	"construction_estimator/internal/adapter/persistence/repository"
	"construction_estimator/internal/config"
	"construction_estimator/internal/infrastructure/ai"
	"construction_estimator/internal/infrastructure/database"
	"construction_estimator/internal/infrastructure/documents"
	"construction_estimator/internal/logger"
	"construction_estimator/internal/usecase"
	"construction_estimator/internal/usecase/interfaces"
)

// BuildEstimateUseCase opens the configured snapshot store and assembles the
// lifecycle engine. The returned func releases the store.
func BuildEstimateUseCase(ctx context.Context, cfg config.Config) (*usecase.EstimateUseCase, func() error, error) {
	table, err := cfg.RateTable()
	if err != nil {
		return nil, nil, fmt.Errorf("load rates: %w", err)
	}

	repo, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	var drafter interfaces.IDraftGenerator
	anthropicDrafter, err := ai.NewAnthropicDrafter(ai.Settings{
		APIKey:     cfg.AI.APIKey,
		Model:      cfg.AI.Model,
		BaseURL:    cfg.AI.BaseURL,
		MaxTokens:  cfg.AI.MaxTokens,
		MaxRetries: cfg.AI.MaxRetries,
	})
	if err != nil {
		logger.Log.Warnf("[estimate][wiring] AI drafts disabled, estimates will use the fallback: %v", err)
	} else {
		drafter = anthropicDrafter
	}

	uc := usecase.NewEstimateUseCase(repo, documents.NewExtractor(), drafter, table, usecase.EstimateOptions{
		Currency:            cfg.Estimate.Currency,
		FallbackAmount:      cfg.Estimate.FallbackAmount,
		CollaboratorTimeout: cfg.AI.Timeout,
		DefaultListLimit:    cfg.Estimate.RecentLimit,
	})
	return uc, closeStore, nil
}

func openStore(ctx context.Context, s config.StoreConfig) (interfaces.IEstimateRepository, func() error, error) {
	switch s.Driver {
	case config.DriverDynamoDB:
		ddb, err := database.ConnectDynamoDB(ctx, database.DynamoDBSettings{
			Region:          s.DynamoDB.Region,
			Endpoint:        s.DynamoDB.Endpoint,
			AccessKeyID:     s.DynamoDB.AccessKeyID,
			SecretAccessKey: s.DynamoDB.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect dynamodb: %w", err)
		}
		repo := repository.NewEstimateDynamoRepository(ddb, s.DynamoDB.EstimatesTable, s.DynamoDB.ChangesTable)
		return repo, func() error { return nil }, nil
	default:
		db, err := database.OpenSQLite(s.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", s.SQLitePath, err)
		}
		return repository.NewEstimateSQLiteRepository(db), db.Close, nil
	}
}
