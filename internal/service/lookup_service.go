package service

import (
	"context"
	"encoding/json"
	"time"

	"supplytrack/internal/dto"
	"supplytrack/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const lookupsCacheKey = "lookups:v1"

// LookupService serves the category and tag lists used by filter dropdowns.
// With Redis configured the result is cached until the TTL expires or a category
// or tag changes; without Redis every call reads the database.
type LookupService interface {
	Lookups(ctx context.Context) (*dto.LookupsResponse, error)
	Invalidate(ctx context.Context)
}

type lookupService struct {
	categories repository.CategoryRepository
	tags       repository.TagRepository
	rdb        *redis.Client
	ttl        time.Duration
}

// NewLookupService accepts a nil rdb.
func NewLookupService(categories repository.CategoryRepository, tags repository.TagRepository, rdb *redis.Client, ttl time.Duration) LookupService {
	return &lookupService{categories: categories, tags: tags, rdb: rdb, ttl: ttl}
}

func (s *lookupService) Lookups(ctx context.Context) (*dto.LookupsResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, lookupsCacheKey).Bytes(); err == nil {
			var resp dto.LookupsResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	cats, err := s.categories.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.LookupsResponse{
		Categories: make([]dto.LookupItem, len(cats)),
		Tags:       make([]dto.LookupItem, len(tags)),
	}
	for i, c := range cats {
		resp.Categories[i] = dto.LookupItem{ID: c.ID.String(), Name: c.Name}
	}
	for i, t := range tags {
		resp.Tags[i] = dto.LookupItem{ID: t.ID.String(), Name: t.Name}
	}

	// Populate cache — best effort
	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, lookupsCacheKey, b, s.ttl).Err()
		}
	}
	return resp, nil
}

func (s *lookupService) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, lookupsCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("lookups cache invalidation failed")
	}
}
