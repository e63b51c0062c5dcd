package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dzukou/pricer/internal/domain"
	"dzukou/pricer/internal/pricing"

	log "github.com/sirupsen/logrus"
)

// competitorTableLimit caps the per-item comparison table so reports
// stay readable for items with many matched listings.
const competitorTableLimit = 10

var csvHeaders = []string{
	"item_id",
	"item_name",
	"current_price",
	"recommended_price",
	"expected_units",
	"expected_profit",
	"min_competitor",
	"median_competitor",
	"undercut_pct",
}

// Export writes all three output artifacts for a pipeline run: the raw
// recommendations as JSON and a flattened CSV under dataDir, and a
// human-readable Markdown report under reportDir. File names carry a
// timestamp so consecutive runs never overwrite each other.
func Export(dataDir, reportDir string, recs []domain.PriceRecommendation) error {
	timestamp := time.Now().Format("20060102_150405")

	jsonPath := filepath.Join(dataDir, fmt.Sprintf("competitor_prices_%s.json", timestamp))
	if err := WriteJSON(jsonPath, recs); err != nil {
		return err
	}

	csvPath := filepath.Join(dataDir, fmt.Sprintf("recommendations_%s.csv", timestamp))
	if err := WriteCSV(csvPath, recs); err != nil {
		return err
	}

	mdPath := filepath.Join(reportDir, fmt.Sprintf("PRICE_REPORT_%s.md", timestamp))
	if err := writeFile(mdPath, []byte(GenerateMarkdown(recs))); err != nil {
		return err
	}

	log.Infof("✅ Results saved to %s, %s and %s", jsonPath, csvPath, mdPath)
	return nil
}

func WriteJSON(path string, recs []domain.PriceRecommendation) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	return writeFile(path, data)
}

// WriteCSV flattens each recommendation into one summary row, with the
// competitor features recomputed from the stored listing summary.
func WriteCSV(path string, recs []domain.PriceRecommendation) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeaders); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, rec := range recs {
		features := pricing.AggregateFeatures(rec.CurrentPrice, rec.CompetitorSummary)
		row := []string{
			rec.ItemID,
			rec.ItemName,
			formatOptional(rec.CurrentPrice),
			formatOptional(rec.RecommendedPrice),
			formatOptional(rec.ExpectedUnits),
			formatOptional(rec.ExpectedProfit),
			formatOptional(features.MinCompetitor),
			formatOptional(features.MedianCompetitor),
			formatOptional(features.UndercutPct),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for item %s: %w", rec.ItemID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv file %s: %w", path, err)
	}
	return nil
}

// GenerateMarkdown renders the run summary: global counts followed by a
// section per item with its recommendation and a competitor table.
func GenerateMarkdown(recs []domain.PriceRecommendation) string {
	var b strings.Builder

	b.WriteString("# Pricing Recommendation Report\n\n")

	increases := 0
	decreases := 0
	for _, rec := range recs {
		if rec.RecommendedPrice == nil || rec.CurrentPrice == nil {
			continue
		}
		switch {
		case *rec.RecommendedPrice > *rec.CurrentPrice:
			increases++
		case *rec.RecommendedPrice < *rec.CurrentPrice:
			decreases++
		}
	}

	fmt.Fprintf(&b, "**Items analysed:** %d\n\n", len(recs))
	fmt.Fprintf(&b, "**Price increases:** %d\n\n", increases)
	fmt.Fprintf(&b, "**Price decreases:** %d\n\n", decreases)

	for _, rec := range recs {
		fmt.Fprintf(&b, "\n## Item: %s — %s\n\n", rec.ItemID, rec.ItemName)
		fmt.Fprintf(&b, "Current price: %s %s\n", formatOptionalOr(rec.CurrentPrice, "N/A"), rec.Currency)
		fmt.Fprintf(&b, "Recommended price: %s %s\n\n", formatOptionalOr(rec.RecommendedPrice, "N/A"), rec.Currency)

		if rec.ExpectedProfit != nil {
			fmt.Fprintf(&b, "Expected profit: %.2f %s\n\n", *rec.ExpectedProfit, rec.Currency)
		}
		if rec.ProfitUpliftVsCurrentPct != nil {
			fmt.Fprintf(&b, "Profit uplift vs current: %.2f%%\n\n", *rec.ProfitUpliftVsCurrentPct)
		}
		if rec.DemandLiftVsCurrentPct != nil {
			fmt.Fprintf(&b, "Demand uplift vs current: %.2f%%\n\n", *rec.DemandLiftVsCurrentPct)
		}
		if rec.Rationale != "" {
			fmt.Fprintf(&b, "**Rationale:** %s\n\n", rec.Rationale)
		}
		if len(rec.Flags) > 0 {
			fmt.Fprintf(&b, "**Flags:** %s\n\n", strings.Join(rec.Flags, ", "))
		}

		b.WriteString("Competitor comparison:\n\n")
		b.WriteString(competitorTable(rec.CompetitorSummary))
		b.WriteString("\n")
	}

	return b.String()
}

func competitorTable(matched []domain.MatchedListing) string {
	if len(matched) == 0 {
		return "No competitor data available.\n"
	}

	var b strings.Builder
	b.WriteString("| Store | Price | Stock | Match Score |\n")
	b.WriteString("|---|---|---|---|\n")

	for i, m := range matched {
		if i >= competitorTableLimit {
			break
		}
		price := "-"
		if m.EffectivePrice != nil {
			price = fmt.Sprintf("%.2f", *m.EffectivePrice)
		}
		stock := m.Listing.Stock
		if stock == "" {
			stock = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f |\n", m.Listing.Store, price, stock, m.MatchScore)
	}

	return b.String()
}

func writeFile(path string, data []byte) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func formatOptional(v *float64) string {
	return formatOptionalOr(v, "")
}

func formatOptionalOr(v *float64, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmt.Sprintf("%.2f", *v)
}
