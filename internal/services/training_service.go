package services

import (
	"context"
	"fmt"

	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/models"
	"github.com/AI2HU/askdb/internal/vanna"
)

// SchemaSource describes a database as DDL statements
type SchemaSource interface {
	Schema(ctx context.Context) ([]string, error)
}

// TrainingService provides business logic for managing training data
type TrainingService struct {
	assistant *vanna.Assistant
}

// NewTrainingService creates a new training service
func NewTrainingService(assistant *vanna.Assistant) *TrainingService {
	return &TrainingService{assistant: assistant}
}

// ListTrainingData returns every training item
func (s *TrainingService) ListTrainingData(ctx context.Context) ([]*models.TrainingData, error) {
	items, err := s.assistant.Store().GetTrainingData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get training data: %w", err)
	}
	return items, nil
}

// GetTrainingData returns the first training items as a table
func (s *TrainingService) GetTrainingData(ctx context.Context) (*models.DataFrame, error) {
	items, err := s.ListTrainingData(ctx)
	if err != nil {
		return nil, err
	}
	return models.TrainingFrame(items).Head(TrainingDataRows), nil
}

// RemoveTrainingData deletes one training item
func (s *TrainingService) RemoveTrainingData(ctx context.Context, id string) (bool, error) {
	return s.assistant.Store().RemoveTrainingData(ctx, id)
}

// Train adds one training request
func (s *TrainingService) Train(ctx context.Context, req models.TrainingRequest) (string, error) {
	return s.assistant.Train(ctx, req)
}

// TrainAll adds several requests and returns their ids. It stops at the
// first failure.
func (s *TrainingService) TrainAll(ctx context.Context, reqs []models.TrainingRequest) ([]string, error) {
	ids := make([]string, 0, len(reqs))
	for i, req := range reqs {
		id, err := s.assistant.Train(ctx, req)
		if err != nil {
			return ids, fmt.Errorf("training item %d: %w", i+1, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// TrainSchema adds the DDL of every table in the database
func (s *TrainingService) TrainSchema(ctx context.Context, source SchemaSource) ([]string, error) {
	statements, err := source.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	logger.Info("Training on %d table definitions", len(statements))
	reqs := make([]models.TrainingRequest, 0, len(statements))
	for _, ddl := range statements {
		reqs = append(reqs, models.TrainingRequest{DDL: ddl})
	}
	return s.TrainAll(ctx, reqs)
}
