package finnhub

import (
	"strings"

	"github.com/bobmcallan/folio/internal/models"
)

// popularSymbols is the static search fallback used when the API is down.
// Search-only: prices never come from this list.
var popularSymbols = []models.AssetSearchResult{
	{Symbol: "AAPL", Name: "Apple Inc.", Type: models.AssetTypeStock},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Type: models.AssetTypeStock},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Type: models.AssetTypeStock},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Type: models.AssetTypeStock},
	{Symbol: "TSLA", Name: "Tesla Inc.", Type: models.AssetTypeStock},
	{Symbol: "META", Name: "Meta Platforms Inc.", Type: models.AssetTypeStock},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Type: models.AssetTypeStock},
	{Symbol: "VOO", Name: "Vanguard S&P 500 ETF", Type: models.AssetTypeETF},
	{Symbol: "VTI", Name: "Vanguard Total Stock Market ETF", Type: models.AssetTypeETF},
	{Symbol: "SPY", Name: "SPDR S&P 500 ETF", Type: models.AssetTypeETF},
}

// FallbackSymbols filters the popular-symbol list by substring match on
// symbol or name.
func FallbackSymbols(query string) []models.AssetSearchResult {
	q := strings.ToLower(query)
	var results []models.AssetSearchResult
	for _, s := range popularSymbols {
		if strings.Contains(strings.ToLower(s.Symbol), q) || strings.Contains(strings.ToLower(s.Name), q) {
			results = append(results, s)
		}
	}
	return results
}
