// Package clients combines the per-venue API clients into the single
// price gateway the valuation engine consumes.
package clients

import (
	"context"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Gateway routes searches and price lookups by asset class: crypto goes to
// CoinGecko, stocks and ETFs to Finnhub (with its own fallback chain).
type Gateway struct {
	crypto interfaces.CryptoClient
	stocks interfaces.StockClient
	logger *common.Logger
}

// NewGateway creates a combined price gateway.
func NewGateway(crypto interfaces.CryptoClient, stocks interfaces.StockClient, logger *common.Logger) *Gateway {
	return &Gateway{
		crypto: crypto,
		stocks: stocks,
		logger: logger,
	}
}

// SearchAssets searches the venues matching assetType. AssetTypeOther
// searches everything. Equity results are filtered client-side when a
// specific type is requested, since Finnhub does not filter natively.
func (g *Gateway) SearchAssets(ctx context.Context, query string, assetType models.AssetType) ([]models.AssetSearchResult, error) {
	if query == "" {
		return nil, nil
	}

	var results []models.AssetSearchResult

	if assetType == models.AssetTypeCrypto || assetType == models.AssetTypeOther {
		coins, err := g.crypto.Search(ctx, query)
		if err != nil {
			g.logger.Warn().Err(err).Str("query", query).Msg("Crypto search failed")
		} else {
			results = append(results, coins...)
		}
	}

	if assetType == models.AssetTypeStock || assetType == models.AssetTypeETF || assetType == models.AssetTypeOther {
		symbols, err := g.stocks.Search(ctx, query)
		if err != nil {
			g.logger.Warn().Err(err).Str("query", query).Msg("Symbol search failed")
		} else {
			for _, s := range symbols {
				if assetType != models.AssetTypeOther && s.Type != assetType {
					continue
				}
				results = append(results, s)
			}
		}
	}

	return results, nil
}

// GetAssetPrice returns the current USD price for an asset, or ok=false on
// any failure so callers can substitute an estimate.
func (g *Gateway) GetAssetPrice(ctx context.Context, symbol string, assetType models.AssetType, coinID string) (float64, bool) {
	var (
		price float64
		err   error
	)

	switch assetType {
	case models.AssetTypeCrypto:
		if coinID != "" {
			price, err = g.crypto.GetPrice(ctx, coinID)
		} else {
			price, err = g.crypto.GetPriceBySymbol(ctx, symbol)
		}
	default:
		price, err = g.stocks.GetQuote(ctx, symbol)
	}

	if err != nil {
		g.logger.Debug().Err(err).
			Str("symbol", symbol).
			Str("asset_type", string(assetType)).
			Msg("Price lookup failed")
		return 0, false
	}
	if price <= 0 {
		return 0, false
	}

	return price, true
}

var _ interfaces.PriceGateway = (*Gateway)(nil)
