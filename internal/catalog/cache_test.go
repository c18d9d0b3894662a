package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"dryfruit_store/internal/model"
	"dryfruit_store/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHitAndInvalidate(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	c := NewCache(rdb, time.Minute)
	ctx := context.Background()

	loads := 0
	load := func() ([]model.Product, error) {
		loads++
		return []model.Product{{ID: uint(loads), Name: "Almonds"}}, nil
	}

	first, err := c.List(ctx, "", load)
	require.NoError(t, err)
	second, err := c.List(ctx, "", load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, mr.Exists("dryfruit:catalog:v0:list:all"))

	_, err = c.List(ctx, "nuts", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "categories are cached separately")

	c.Invalidate(ctx)
	third, err := c.List(ctx, "", load)
	require.NoError(t, err)
	assert.Equal(t, 3, loads)
	assert.EqualValues(t, 3, third[0].ID)
	assert.True(t, mr.Exists("dryfruit:catalog:v1:list:all"))
}

func TestCacheFallsBackToLoad(t *testing.T) {
	loads := 0
	load := func() ([]model.Product, error) { loads++; return nil, nil }

	var nilCache *Cache
	_, err := nilCache.List(context.Background(), "", load)
	require.NoError(t, err)
	nilCache.Invalidate(context.Background())

	rdb, mr := testutil.NewRedis(t)
	c := NewCache(rdb, time.Minute)
	mr.Close()
	_, err = c.List(context.Background(), "", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)

	boom := errors.New("db down")
	_, err = NewCache(nil, time.Minute).List(context.Background(), "", func() ([]model.Product, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestListActive(t *testing.T) {
	db := testutil.NewDB(t)
	nuts := model.Category{Name: "Nuts", Slug: "nuts"}
	require.NoError(t, db.Create(&nuts).Error)

	almonds := testutil.CreateProduct(t, db, "Almonds", testutil.Size("500g", 700, 3), testutil.Size("200g", 300, 5))
	require.NoError(t, db.Model(almonds).Updates(map[string]any{"category_id": nuts.ID, "sold_count": 10}).Error)
	cashews := testutil.CreateProduct(t, db, "Cashews", testutil.Size("200g", 320, 4))
	require.NoError(t, db.Model(cashews).Update("category_id", nuts.ID).Error)
	figs := testutil.CreateProduct(t, db, "Figs", testutil.Size("250g", 400, 2))
	hidden := testutil.CreateProduct(t, db, "Old Raisins", testutil.Size("250g", 150, 9))
	require.NoError(t, db.Model(hidden).Update("is_active", false).Error)

	all, err := ListActive(db, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Almonds", all[0].Name, "best sellers first")
	assert.Equal(t, "200g", all[0].Sizes[0].Label, "cheapest size first")

	inNuts, err := ListActive(db, "nuts")
	require.NoError(t, err)
	require.Len(t, inNuts, 2)
	for _, p := range inNuts {
		assert.NotEqual(t, figs.ID, p.ID)
	}
}
