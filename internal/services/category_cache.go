package services

import (
	"fmt"
	"log/slog"
	"sync"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

// CategoryCache loads the whole category table on first use and serves reads from memory
// until Invalidate is called.
type CategoryCache struct {
	repo    repositories.CategoryRepositoryInterface
	metrics MetricsRecorderInterface
	logger  *slog.Logger

	mu       sync.RWMutex
	loaded   bool
	all      []models.Category
	topLevel []models.Category
	children map[uuid.UUID][]models.Category
}

func NewCategoryCache(repo repositories.CategoryRepositoryInterface, metrics MetricsRecorderInterface, logger *slog.Logger) *CategoryCache {
	return &CategoryCache{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
	}
}

// All returns every category in display order
func (c *CategoryCache) All() ([]models.Category, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneCategories(c.all), nil
}

func (c *CategoryCache) TopLevel() ([]models.Category, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneCategories(c.topLevel), nil
}

func (c *CategoryCache) Children(parentID uuid.UUID) ([]models.Category, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneCategories(c.children[parentID]), nil
}

// Invalidate drops the cached table; the next read reloads it
func (c *CategoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.all = nil
	c.topLevel = nil
	c.children = nil
}

func (c *CategoryCache) ensureLoaded() error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	all, err := c.repo.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	c.all = all
	c.topLevel = make([]models.Category, 0)
	c.children = make(map[uuid.UUID][]models.Category)
	for _, category := range all {
		if category.ParentID == nil {
			c.topLevel = append(c.topLevel, category)
		} else {
			c.children[*category.ParentID] = append(c.children[*category.ParentID], category)
		}
	}
	c.loaded = true

	if c.metrics != nil {
		c.metrics.IncrementCounter("category_cache_load", nil)
	}
	c.logger.Debug("category cache loaded", "categories", len(all))
	return nil
}

// cloneCategories keeps callers from mutating the cached slices
func cloneCategories(in []models.Category) []models.Category {
	out := make([]models.Category, len(in))
	copy(out, in)
	return out
}
