//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package character

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/totegamma/personagens/core"
)

const (
	cacheTTL = 10 * time.Minute
	// cached in place of a deleted character so a racing read cannot refill it
	tombstone = "deleted"
)

// Repository is the interface for character repository
type Repository interface {
	Create(ctx context.Context, character core.Character) (core.Character, error)
	List(ctx context.Context) ([]core.Character, error)
	Get(ctx context.Context, id uint64) (core.Character, error)
	Update(ctx context.Context, character core.Character) (core.Character, error)
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db  *gorm.DB
	rdb *redis.Client
	mc  *memcache.Client
}

// NewRepository creates a new character repository
func NewRepository(db *gorm.DB, rdb *redis.Client, mc *memcache.Client) Repository {
	r := &repository{db, rdb, mc}
	r.refreshCount(context.Background())
	return r
}

func cacheKey(id uint64) string {
	return core.CharacterCachePrefix + strconv.FormatUint(id, 10)
}

// refreshCount recounts live characters and stores the result in memcached
func (r *repository) refreshCount(ctx context.Context) {
	var count int64
	err := r.db.WithContext(ctx).Model(&core.Character{}).Count(&count).Error
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to count characters",
			slog.String("error", err.Error()),
			slog.String("module", "character"),
		)
		return
	}

	err = r.mc.Set(&memcache.Item{Key: core.CharacterCountCacheKey, Value: []byte(strconv.FormatInt(count, 10))})
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to store character count",
			slog.String("error", err.Error()),
			slog.String("module", "character"),
		)
	}
}

// fill caches a character read from the database unless the key is already taken
func (r *repository) fill(ctx context.Context, character core.Character) error {
	data, err := json.Marshal(character)
	if err != nil {
		return err
	}
	return r.rdb.SetNX(ctx, cacheKey(character.ID), data, cacheTTL).Err()
}

func (r *repository) bury(ctx context.Context, id uint64) {
	err := r.rdb.Set(ctx, cacheKey(id), tombstone, cacheTTL).Err()
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to mark character deleted",
			slog.String("error", err.Error()),
			slog.String("module", "character"),
		)
	}
}

func (r *repository) evict(ctx context.Context, id uint64) {
	err := r.rdb.Del(ctx, cacheKey(id)).Err()
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to evict character cache",
			slog.String("error", err.Error()),
			slog.String("module", "character"),
		)
	}
}

// Count returns the number of live characters
func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Character.Repository.Count")
	defer span.End()

	item, err := r.mc.Get(core.CharacterCountCacheKey)
	if err == nil {
		count, err := strconv.ParseInt(string(item.Value), 10, 64)
		if err == nil {
			return count, nil
		}
		span.RecordError(err)
	}

	var count int64
	err = r.db.WithContext(ctx).Model(&core.Character{}).Count(&count).Error
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, pkgerrors.Wrap(err, "failed to count characters")
	}
	return count, nil
}

// Create inserts a new character and returns it with its assigned id
func (r *repository) Create(ctx context.Context, character core.Character) (core.Character, error) {
	ctx, span := tracer.Start(ctx, "Character.Repository.Create")
	defer span.End()

	character.ID = 0
	err := r.db.WithContext(ctx).Create(&character).Error
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return core.Character{}, pkgerrors.Wrap(err, "failed to create character")
	}

	r.refreshCount(ctx)

	return character, nil
}

// List returns every live character ordered by id
func (r *repository) List(ctx context.Context) ([]core.Character, error) {
	ctx, span := tracer.Start(ctx, "Character.Repository.List")
	defer span.End()

	var characters []core.Character
	err := r.db.WithContext(ctx).Order("id asc").Find(&characters).Error
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return []core.Character{}, pkgerrors.Wrap(err, "failed to list characters")
	}
	if characters == nil {
		return []core.Character{}, nil
	}
	return characters, nil
}

// Get returns a character by id, reading through the redis cache
func (r *repository) Get(ctx context.Context, id uint64) (core.Character, error) {
	ctx, span := tracer.Start(ctx, "Character.Repository.Get")
	defer span.End()

	key := cacheKey(id)
	val, err := r.rdb.Get(ctx, key).Result()
	if err == nil {
		if val == tombstone {
			span.AddEvent("cache tombstone")
			return core.Character{}, core.NewErrorNotFound()
		}
		var character core.Character
		err = json.Unmarshal([]byte(val), &character)
		if err == nil {
			span.AddEvent("cache hit")
			return character, nil
		}
		span.RecordError(err)
	} else if !errors.Is(err, redis.Nil) {
		span.RecordError(err)
	}

	var character core.Character
	err = r.db.WithContext(ctx).First(&character, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Character{}, core.NewErrorNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return core.Character{}, pkgerrors.Wrapf(err, "failed to get character %d", id)
	}

	err = r.fill(ctx, character)
	if err != nil {
		span.RecordError(err)
	}

	return character, nil
}

// Update replaces the mutable fields of an existing character
func (r *repository) Update(ctx context.Context, character core.Character) (core.Character, error) {
	ctx, span := tracer.Start(ctx, "Character.Repository.Update")
	defer span.End()

	var existing core.Character
	err := r.db.WithContext(ctx).First(&existing, "id = ?", character.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Character{}, core.NewErrorNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return core.Character{}, pkgerrors.Wrapf(err, "failed to get character %d", character.ID)
	}

	existing.CPF = character.CPF
	existing.Nome = character.Nome
	existing.DataNascimento = character.DataNascimento
	existing.Serie = character.Serie

	err = r.db.WithContext(ctx).Save(&existing).Error
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return core.Character{}, pkgerrors.Wrapf(err, "failed to update character %d", character.ID)
	}

	r.evict(ctx, existing.ID)

	return existing, nil
}

// Delete removes a character. Deleting an absent id is ErrorNotFound.
func (r *repository) Delete(ctx context.Context, id uint64) error {
	ctx, span := tracer.Start(ctx, "Character.Repository.Delete")
	defer span.End()

	result := r.db.WithContext(ctx).Delete(&core.Character{}, "id = ?", id)
	if result.Error != nil {
		span.SetStatus(codes.Error, result.Error.Error())
		return pkgerrors.Wrapf(result.Error, "failed to delete character %d", id)
	}
	if result.RowsAffected == 0 {
		return core.NewErrorNotFound()
	}

	r.bury(ctx, id)
	r.refreshCount(ctx)

	return nil
}
