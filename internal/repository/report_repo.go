package repository

import (
	"context"
	"fmt"

	"wordrush/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepo archives finished games in MongoDB
type ReportRepo interface {
	SaveResult(ctx context.Context, result *model.GameResult) error
	// GetLatest returns the most recent game finished under a room code, or nil
	GetLatest(ctx context.Context, roomCode string) (*model.GameResult, error)
}

type reportRepo struct {
	results *mongo.Collection
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		results: db.Collection("game_results"),
	}
}

// EnsureIndexes creates the lookup index used by GetLatest
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("game_results").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "roomCode", Value: 1}, {Key: "finishedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create game_results index: %w", err)
	}
	return nil
}

// SaveResult is idempotent: a retried save replaces the same document
func (r *reportRepo) SaveResult(ctx context.Context, result *model.GameResult) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"roomCode": result.RoomCode, "finishedAt": result.FinishedAt}
	_, err := r.results.ReplaceOne(ctx, filter, result, opts)
	return err
}

func (r *reportRepo) GetLatest(ctx context.Context, roomCode string) (*model.GameResult, error) {
	var result model.GameResult
	opts := options.FindOne().SetSort(bson.D{{Key: "finishedAt", Value: -1}})
	err := r.results.FindOne(ctx, bson.M{"roomCode": roomCode}, opts).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
