package character

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/totegamma/personagens/core"
	"github.com/totegamma/personagens/internal/testutil"
)

func TestRepository(t *testing.T) {
	var ctx = context.Background()

	db, cleanup_db := testutil.CreateDB()
	defer cleanup_db()

	rdb, cleanup_rdb := testutil.CreateRDB()
	defer cleanup_rdb()

	mc, cleanup_mc := testutil.CreateMC()
	defer cleanup_mc()

	repo := NewRepository(db, rdb, mc)

	// empty table lists as an empty slice, not nil
	listed, err := repo.List(ctx)
	if assert.NoError(t, err) {
		assert.NotNil(t, listed)
		assert.Len(t, listed, 0)
	}

	created, err := repo.Create(ctx, core.Character{
		CPF:            int64Ptr(123),
		Nome:           "Galadriel",
		DataNascimento: strPtr("20-01-1900"),
		Serie:          strPtr("Aneis do Poder"),
	})
	if assert.NoError(t, err) {
		assert.NotZero(t, created.ID)
		assert.Equal(t, "Galadriel", created.Nome)
		assert.NotZero(t, created.CDate)
	}

	count, err := repo.Count(ctx)
	if assert.NoError(t, err) {
		assert.Equal(t, int64(1), count)
	}

	// first read fills the cache
	got, err := repo.Get(ctx, created.ID)
	if assert.NoError(t, err) {
		assert.Equal(t, int64(123), *got.CPF)
		assert.Equal(t, "Galadriel", got.Nome)
	}
	cached, err := rdb.Exists(ctx, core.CharacterCachePrefix+strconv.FormatUint(created.ID, 10)).Result()
	if assert.NoError(t, err) {
		assert.Equal(t, int64(1), cached)
	}

	// second read is served from the cache
	got, err = repo.Get(ctx, created.ID)
	if assert.NoError(t, err) {
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Aneis do Poder", *got.Serie)
	}

	listed, err = repo.List(ctx)
	if assert.NoError(t, err) {
		assert.Len(t, listed, 1)
	}

	// update evicts the cached copy
	updated, err := repo.Update(ctx, core.Character{
		ID:    created.ID,
		CPF:   int64Ptr(456),
		Nome:  "Galadriel of Lorien",
		Serie: strPtr("Aneis do Poder"),
	})
	if assert.NoError(t, err) {
		assert.Equal(t, created.ID, updated.ID)
		assert.Nil(t, updated.DataNascimento)
	}
	got, err = repo.Get(ctx, created.ID)
	if assert.NoError(t, err) {
		assert.Equal(t, "Galadriel of Lorien", got.Nome)
		assert.Equal(t, int64(456), *got.CPF)
	}

	_, err = repo.Update(ctx, core.Character{ID: created.ID + 1000, Nome: "Elrond"})
	assert.ErrorAs(t, err, &core.ErrorNotFound{})

	err = repo.Delete(ctx, created.ID)
	assert.NoError(t, err)

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorAs(t, err, &core.ErrorNotFound{})

	// a read that fetched the row before the delete cannot refill the cache afterwards
	err = repo.(*repository).fill(ctx, updated)
	assert.NoError(t, err)
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorAs(t, err, &core.ErrorNotFound{})

	err = repo.Delete(ctx, created.ID)
	assert.ErrorAs(t, err, &core.ErrorNotFound{})

	listed, err = repo.List(ctx)
	if assert.NoError(t, err) {
		assert.Len(t, listed, 0)
	}

	count, err = repo.Count(ctx)
	if assert.NoError(t, err) {
		assert.Equal(t, int64(0), count)
	}

	// ids keep increasing after a delete
	next, err := repo.Create(ctx, core.Character{Nome: "Elrond"})
	if assert.NoError(t, err) {
		assert.Greater(t, next.ID, created.ID)
		assert.Nil(t, next.CPF)
	}
}
