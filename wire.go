//go:build wireinject

package personagens

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/totegamma/personagens/core"
	"github.com/totegamma/personagens/x/character"
)

var characterServiceProvider = wire.NewSet(character.NewService, character.NewRepository, core.NewValidator)

func SetupCharacterService(db *gorm.DB, rdb *redis.Client, mc *memcache.Client) core.CharacterService {
	wire.Build(characterServiceProvider)
	return nil
}

func SetupCharacterHandler(db *gorm.DB, rdb *redis.Client, mc *memcache.Client) character.Handler {
	wire.Build(character.NewHandler, SetupCharacterService)
	return nil
}
