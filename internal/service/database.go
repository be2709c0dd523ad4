package service

import (
	"context"
	"fmt"
	"time"

	"iccrelay-go/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoJournal stores trades and summaries in MongoDB
type MongoJournal struct {
	client    *mongo.Client
	trades    *mongo.Collection
	summaries *mongo.Collection
	logger    *zap.Logger
}

func NewMongoJournal(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoJournal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	j := &MongoJournal{
		client:    client,
		trades:    db.Collection("trades"),
		summaries: db.Collection("summaries"),
		logger:    logger.Named("mongo"),
	}

	_, err = j.trades.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "symbol", Value: 1}, {Key: "closed_at", Value: -1}}},
	})
	if err != nil {
		j.logger.Warn("⚠️ creating trade indexes failed", zap.Error(err))
	}

	j.logger.Info("✅ MongoDB connected", zap.String("database", database))
	return j, nil
}

// SaveTrade upserts the trade document keyed by trade id
func (j *MongoJournal) SaveTrade(ctx context.Context, trade model.Trade) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := j.trades.ReplaceOne(ctx, bson.M{"_id": trade.ID}, trade, opts); err != nil {
		return fmt.Errorf("failed to save trade %s: %w", trade.ID, err)
	}

	j.logger.Debug("💾 trade saved", zap.String("id", trade.ID), zap.String("status", string(trade.Status)))
	return nil
}

// SaveSummary inserts one summary document per window rollover. The trade
// list is left out; trades live in their own collection.
func (j *MongoJournal) SaveSummary(ctx context.Context, stats model.WindowStats) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stats.Trades = nil
	if _, err := j.summaries.InsertOne(ctx, stats); err != nil {
		return fmt.Errorf("failed to save %s summary: %w", stats.Window, err)
	}
	return nil
}

// Close closes the database connection
func (j *MongoJournal) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := j.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	j.logger.Info("🔌 MongoDB connection closed")
	return nil
}
