package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"bakehouse/internal/costing"
	applog "bakehouse/internal/log"
	"bakehouse/models"
)

const snapshotKey = "catalog-snapshot"

var (
	// ErrInUse is returned when deleting a record another recipe still references.
	ErrInUse = errors.New("store: record is still referenced by a recipe")
	// ErrDuplicateName is returned when a name collides with an existing record.
	ErrDuplicateName = errors.New("store: name already exists")
	// ErrInvalidComponent is returned when a component does not reference
	// exactly one ingredient or sub-recipe.
	ErrInvalidComponent = errors.New("store: component must reference exactly one ingredient or sub-recipe")
	// ErrInvalidRecord is returned when a record fails field validation.
	ErrInvalidRecord = errors.New("store: invalid record")
)

// CacheObserver is told whether each snapshot request was served from cache.
type CacheObserver interface {
	ObserveSnapshot(hit bool)
}

// Option configures a Store.
type Option func(*Store)

// WithCacheObserver reports snapshot cache hits and misses to o.
func WithCacheObserver(o CacheObserver) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// Store persists the catalog through gorm and serves immutable costing
// snapshots of it. Every write flushes the snapshot cache.
type Store struct {
	db       *gorm.DB
	cache    *cache.Cache
	observer CacheObserver
}

// New builds a Store over db. Snapshots are cached for ttl; a non-positive ttl
// keeps them until the next write.
func New(db *gorm.DB, ttl time.Duration, opts ...Option) *Store {
	expiration, cleanup := ttl, 2*ttl
	if ttl <= 0 {
		expiration, cleanup = cache.NoExpiration, 0
	}
	s := &Store{db: db, cache: cache.New(expiration, cleanup)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Invalidate drops any cached snapshot.
func (s *Store) Invalidate() {
	s.cache.Flush()
}

// Snapshot returns the current catalog as a costing repository. The returned
// value must not be modified.
func (s *Store) Snapshot(ctx context.Context) (*costing.Snapshot, error) {
	if cached, ok := s.cache.Get(snapshotKey); ok {
		s.observe(true)
		return cached.(*costing.Snapshot), nil
	}
	s.observe(false)

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(snapshotKey, snap, cache.DefaultExpiration)
	return snap, nil
}

func (s *Store) observe(hit bool) {
	if s.observer != nil {
		s.observer.ObserveSnapshot(hit)
	}
}

func (s *Store) load(ctx context.Context) (*costing.Snapshot, error) {
	db := s.db.WithContext(ctx)

	var ingredients []models.Ingredient
	if err := db.Order("id asc").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	var recipes []models.Recipe
	if err := db.Order("id asc").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	var components []models.RecipeComponent
	if err := db.Order("recipe_id asc, id asc").Find(&components).Error; err != nil {
		return nil, fmt.Errorf("load recipe components: %w", err)
	}

	snap := costing.NewSnapshot()
	for _, ingredient := range ingredients {
		info := costing.IngredientInfo{Name: ingredient.Name, Unit: ingredient.Unit, Priced: ingredient.Priced()}
		if info.Priced {
			info.UnitPrice = *ingredient.UnitPrice
		}
		snap.AddIngredient(ingredient.ID, info)
	}
	for _, recipe := range recipes {
		snap.AddRecipe(recipe.ID, costing.RecipeInfo{
			Name:         recipe.Name,
			Finished:     recipe.Finished,
			YieldPercent: recipe.YieldPercent,
		})
	}
	for _, component := range components {
		ref, err := componentRef(component)
		if err != nil {
			applog.Warn(ctx, "skipping malformed recipe component", "id", component.ID, "recipe", component.RecipeID)
			continue
		}
		snap.AddComponent(component.RecipeID, costing.Component{Ref: ref, Quantity: component.Quantity})
	}

	applog.Debug(ctx, "catalog snapshot loaded",
		"ingredients", len(ingredients), "recipes", len(recipes), "components", len(components))
	return snap, nil
}

func componentRef(c models.RecipeComponent) (costing.ComponentRef, error) {
	hasIngredient := c.IngredientID != nil && *c.IngredientID != 0
	switch {
	case hasIngredient && c.IsSubRecipe():
		return nil, ErrInvalidComponent
	case hasIngredient:
		return costing.IngredientRef(*c.IngredientID), nil
	case c.IsSubRecipe():
		return costing.RecipeRef(*c.SubRecipeID), nil
	default:
		return nil, ErrInvalidComponent
	}
}

func translate(err error, kind string, id uint) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %d: %w", kind, id, costing.ErrUnknownReference)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", kind, ErrDuplicateName)
	default:
		return err
	}
}
