package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// CryptoClient provides coin search and spot prices (CoinGecko-shaped).
type CryptoClient interface {
	// Search returns coins matching a free-text query.
	Search(ctx context.Context, query string) ([]models.AssetSearchResult, error)

	// GetPrice returns the USD spot price for a coin id.
	GetPrice(ctx context.Context, coinID string) (float64, error)

	// GetPriceBySymbol resolves a symbol via search, then fetches the price
	// of the first hit.
	GetPriceBySymbol(ctx context.Context, symbol string) (float64, error)
}

// StockClient provides equity/ETF symbol search and quotes (Finnhub-shaped).
type StockClient interface {
	// Search returns symbols matching a free-text query.
	Search(ctx context.Context, query string) ([]models.AssetSearchResult, error)

	// GetQuote returns the current USD price for a symbol.
	GetQuote(ctx context.Context, symbol string) (float64, error)
}

// PriceGateway is the combined lookup surface the valuation engine uses.
// GetAssetPrice reports ok=false on any failure (not found, network error,
// rate limit) instead of an error, so callers apply fallback uniformly.
type PriceGateway interface {
	SearchAssets(ctx context.Context, query string, assetType models.AssetType) ([]models.AssetSearchResult, error)
	GetAssetPrice(ctx context.Context, symbol string, assetType models.AssetType, coinID string) (float64, bool)
}
