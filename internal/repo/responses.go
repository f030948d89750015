// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the response cache used by the network
// interception layer: named generations holding raw HTTP responses keyed by
// request identity (method + absolute URL).
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/bpguard/internal/domain"
)

// OpenGeneration creates the named generation if it does not exist yet.
func OpenGeneration(ctx context.Context, db *gorm.DB, name string) error {
	g := &domain.CacheGeneration{Name: name, CreatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(g).Error
}

// ListGenerations returns the names of all generations, oldest first.
func ListGenerations(ctx context.Context, db *gorm.DB) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).
		Model(&domain.CacheGeneration{}).
		Order("created_at ASC").
		Pluck("name", &names).Error
	return names, err
}

// DeleteGeneration removes a generation and every response stored in it.
// Responses are deleted explicitly so eviction does not depend on the
// foreign_keys PRAGMA of the connection that happens to run it.
func DeleteGeneration(ctx context.Context, db *gorm.DB, name string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("generation = ?", name).Delete(&domain.CachedResponse{}).Error; err != nil {
			return err
		}
		return tx.Where("name = ?", name).Delete(&domain.CacheGeneration{}).Error
	})
}

// MatchResponse returns the stored response for (generation, method, url),
// or ErrNotFound.
func MatchResponse(ctx context.Context, db *gorm.DB, generation, method, url string) (*domain.CachedResponse, error) {
	var rec domain.CachedResponse
	err := db.WithContext(ctx).
		Where("generation = ? AND method = ? AND url = ?", generation, method, url).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// PutResponse stores a response copy, replacing any previous copy with the
// same request identity in the generation.
func PutResponse(ctx context.Context, db *gorm.DB, generation, method, url string, status int, header http.Header, body []byte) error {
	h, err := json.Marshal(header)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec := &domain.CachedResponse{
		ID:         uuid.NewString(),
		Generation: generation,
		Method:     method,
		URL:        url,
		Status:     status,
		Header:     string(h),
		Body:       body,
		StoredAt:   now,
	}
	return db.WithContext(ctx).
		Omit("CacheGeneration").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "generation"}, {Name: "method"}, {Name: "url"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":    status,
				"header":    rec.Header,
				"body":      body,
				"stored_at": now,
			}),
		}).
		Create(rec).Error
}

// ResponseCache exposes the response functions as a value that satisfies the
// worker.CacheStorage interface.
type ResponseCache struct {
	DB *gorm.DB
}

// Open proxies OpenGeneration.
func (c ResponseCache) Open(ctx context.Context, generation string) error {
	return OpenGeneration(ctx, c.DB, generation)
}

// Generations proxies ListGenerations.
func (c ResponseCache) Generations(ctx context.Context) ([]string, error) {
	return ListGenerations(ctx, c.DB)
}

// Delete proxies DeleteGeneration.
func (c ResponseCache) Delete(ctx context.Context, generation string) error {
	return DeleteGeneration(ctx, c.DB, generation)
}

// Match returns the stored copy for the request identity of req, or
// (nil, nil) when nothing matches.
func (c ResponseCache) Match(ctx context.Context, generation string, req *http.Request) (*domain.CachedResponse, error) {
	rec, err := MatchResponse(ctx, c.DB, generation, req.Method, req.URL.String())
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Put proxies PutResponse using the request identity of req.
func (c ResponseCache) Put(ctx context.Context, generation string, req *http.Request, status int, header http.Header, body []byte) error {
	return PutResponse(ctx, c.DB, generation, req.Method, req.URL.String(), status, header, body)
}
