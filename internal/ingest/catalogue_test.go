package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogue.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCatalogue(t *testing.T) {
	t.Run("normalizes column aliases", func(t *testing.T) {
		path := writeCSV(t, "SKU,Name,Cost,Price,Pack\nA1,Bamboo Straw,2.50,5.99,6\n")

		items, err := ReadCatalogue(path)
		require.NoError(t, err)
		require.Len(t, items, 1)

		item := items[0]
		assert.Equal(t, "A1", item.ItemID)
		assert.Equal(t, "Bamboo Straw", item.ItemName)
		require.NotNil(t, item.COGS)
		assert.InDelta(t, 2.50, *item.COGS, 1e-9)
		require.NotNil(t, item.CurrentPrice)
		assert.InDelta(t, 5.99, *item.CurrentPrice, 1e-9)
		require.NotNil(t, item.PackCount)
		assert.Equal(t, 6, *item.PackCount)
	})

	t.Run("bad numeric cells degrade to absent fields", func(t *testing.T) {
		path := writeCSV(t, "item_id,item_name,cogs,current_price,pack_count\nA2,Tote Bag,not-a-number,,6.0\n")

		items, err := ReadCatalogue(path)
		require.NoError(t, err)
		require.Len(t, items, 1)

		assert.Nil(t, items[0].COGS)
		assert.Nil(t, items[0].CurrentPrice)
		require.NotNil(t, items[0].PackCount)
		assert.Equal(t, 6, *items[0].PackCount)
	})

	t.Run("rows without identity are skipped", func(t *testing.T) {
		path := writeCSV(t, "item_id,item_name\nA3,Notebook\n,Unnamed\n")

		items, err := ReadCatalogue(path)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "A3", items[0].ItemID)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := ReadCatalogue(filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})
}
