package core

// CharacterBasePath is the fixed mount point of the character resource
const CharacterBasePath = "/api/personagens"

const (
	CharacterCountCacheKey = "character_count"
	CharacterCachePrefix   = "character:"
)
