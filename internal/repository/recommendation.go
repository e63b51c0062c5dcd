package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"dzukou/pricer/internal/domain"
)

type RecommendationRepository interface {
	SaveRecommendation(ctx context.Context, rec *domain.PriceRecommendation) error
	ListRecommendations(ctx context.Context) ([]domain.PriceRecommendation, error)
}

type recommendationRepository struct {
	db *pgxpool.Pool
}

func NewRecommendationRepository(db *pgxpool.Pool) RecommendationRepository {
	return &recommendationRepository{
		db: db,
	}
}

func (r *recommendationRepository) SaveRecommendation(ctx context.Context, rec *domain.PriceRecommendation) error {
	query := `
	INSERT INTO price_recommendations (item_id, data)
	VALUES ($1, $2)
	ON CONFLICT (item_id)
	DO UPDATE SET data = $2`
	_, err := r.db.Exec(ctx, query, rec.ItemID, rec)
	if err != nil {
		return fmt.Errorf("failed to save recommendation for item %s: %w", rec.ItemID, err)
	}

	return nil
}

func (r *recommendationRepository) ListRecommendations(ctx context.Context) ([]domain.PriceRecommendation, error) {
	rows, err := r.db.Query(ctx, `SELECT data FROM price_recommendations ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]domain.PriceRecommendation, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation row: %w", err)
		}

		var rec domain.PriceRecommendation
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}

	return recs, nil
}
