package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"dzukou/pricer/internal/domain"
)

// columnAliases maps known header spellings to canonical field names.
var columnAliases = map[string]string{
	"id":            "item_id",
	"sku":           "item_id",
	"item_id":       "item_id",
	"name":          "item_name",
	"title":         "item_name",
	"item_name":     "item_name",
	"brand":         "brand",
	"brand_name":    "brand",
	"category":      "category",
	"cost":          "cogs",
	"cogs":          "cogs",
	"price":         "current_price",
	"current_price": "current_price",
	"currency":      "currency",
	"size":          "size",
	"pack":          "pack_count",
	"pack_count":    "pack_count",
}

// ReadCatalogue loads a catalogue CSV into CatalogueItem records.
// Header names are normalized through the alias table; numeric fields
// that fail to parse are dropped from the record rather than failing
// the row, so one bad cell never sinks a batch.
func ReadCatalogue(path string) ([]domain.CatalogueItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalogue CSV %s is empty", path)
	}

	columns := make(map[int]string, len(records[0]))
	for i, header := range records[0] {
		normalized := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := columnAliases[normalized]; ok {
			columns[i] = canonical
		}
	}

	items := make([]domain.CatalogueItem, 0, len(records)-1)
	for rowNum, row := range records[1:] {
		fields := make(map[string]string, len(columns))
		for i, value := range row {
			if name, ok := columns[i]; ok {
				if _, taken := fields[name]; !taken {
					fields[name] = strings.TrimSpace(value)
				}
			}
		}

		item := domain.CatalogueItem{
			ItemID:   fields["item_id"],
			ItemName: fields["item_name"],
			Brand:    fields["brand"],
			Category: fields["category"],
			Currency: fields["currency"],
			Size:     fields["size"],
		}
		if item.ItemID == "" || item.ItemName == "" {
			log.Warnf("Skipping catalogue row %d: missing item id or name", rowNum+2)
			continue
		}

		item.COGS = parseFloatField(fields["cogs"])
		item.CurrentPrice = parseFloatField(fields["current_price"])
		item.PackCount = parseIntField(fields["pack_count"])

		items = append(items, item)
	}

	log.Infof("Loaded %d catalogue items from %s", len(items), path)
	return items, nil
}

func parseFloatField(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntField(s string) *int {
	if s == "" {
		return nil
	}
	// Pack counts sometimes arrive as floats ("6.0").
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(v)
	return &n
}
