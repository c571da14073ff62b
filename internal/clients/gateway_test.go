package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// fakeCrypto implements interfaces.CryptoClient via function fields.
type fakeCrypto struct {
	search           func(ctx context.Context, query string) ([]models.AssetSearchResult, error)
	getPrice         func(ctx context.Context, coinID string) (float64, error)
	getPriceBySymbol func(ctx context.Context, symbol string) (float64, error)
}

func (f *fakeCrypto) Search(ctx context.Context, query string) ([]models.AssetSearchResult, error) {
	if f.search != nil {
		return f.search(ctx, query)
	}
	return nil, nil
}

func (f *fakeCrypto) GetPrice(ctx context.Context, coinID string) (float64, error) {
	if f.getPrice != nil {
		return f.getPrice(ctx, coinID)
	}
	return 0, errors.New("not configured")
}

func (f *fakeCrypto) GetPriceBySymbol(ctx context.Context, symbol string) (float64, error) {
	if f.getPriceBySymbol != nil {
		return f.getPriceBySymbol(ctx, symbol)
	}
	return 0, errors.New("not configured")
}

// fakeStocks implements interfaces.StockClient via function fields.
type fakeStocks struct {
	search   func(ctx context.Context, query string) ([]models.AssetSearchResult, error)
	getQuote func(ctx context.Context, symbol string) (float64, error)
}

func (f *fakeStocks) Search(ctx context.Context, query string) ([]models.AssetSearchResult, error) {
	if f.search != nil {
		return f.search(ctx, query)
	}
	return nil, nil
}

func (f *fakeStocks) GetQuote(ctx context.Context, symbol string) (float64, error) {
	if f.getQuote != nil {
		return f.getQuote(ctx, symbol)
	}
	return 0, errors.New("not configured")
}

func newTestGateway(crypto *fakeCrypto, stocks *fakeStocks) *Gateway {
	if crypto == nil {
		crypto = &fakeCrypto{}
	}
	if stocks == nil {
		stocks = &fakeStocks{}
	}
	return NewGateway(crypto, stocks, common.NewSilentLogger())
}

func TestSearchAssets_CryptoOnly(t *testing.T) {
	stocksCalled := false
	g := newTestGateway(
		&fakeCrypto{search: func(_ context.Context, _ string) ([]models.AssetSearchResult, error) {
			return []models.AssetSearchResult{{Symbol: "BTC", Type: models.AssetTypeCrypto}}, nil
		}},
		&fakeStocks{search: func(_ context.Context, _ string) ([]models.AssetSearchResult, error) {
			stocksCalled = true
			return nil, nil
		}},
	)

	results, err := g.SearchAssets(context.Background(), "btc", models.AssetTypeCrypto)
	if err != nil {
		t.Fatalf("SearchAssets failed: %v", err)
	}
	if len(results) != 1 || results[0].Symbol != "BTC" {
		t.Errorf("results = %+v, want one BTC hit", results)
	}
	if stocksCalled {
		t.Error("crypto search must not query the stock client")
	}
}

func TestSearchAssets_OtherSearchesBothVenues(t *testing.T) {
	g := newTestGateway(
		&fakeCrypto{search: func(_ context.Context, _ string) ([]models.AssetSearchResult, error) {
			return []models.AssetSearchResult{{Symbol: "BTC", Type: models.AssetTypeCrypto}}, nil
		}},
		&fakeStocks{search: func(_ context.Context, _ string) ([]models.AssetSearchResult, error) {
			return []models.AssetSearchResult{{Symbol: "AAPL", Type: models.AssetTypeStock}}, nil
		}},
	)

	results, err := g.SearchAssets(context.Background(), "b", models.AssetTypeOther)
	if err != nil {
		t.Fatalf("SearchAssets failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want both venues combined", len(results))
	}
}

func TestSearchAssets_ETFFilterDropsStocks(t *testing.T) {
	g := newTestGateway(nil,
		&fakeStocks{search: func(_ context.Context, _ string) ([]models.AssetSearchResult, error) {
			return []models.AssetSearchResult{
				{Symbol: "AAPL", Type: models.AssetTypeStock},
				{Symbol: "VOO", Type: models.AssetTypeETF},
			}, nil
		}},
	)

	results, err := g.SearchAssets(context.Background(), "v", models.AssetTypeETF)
	if err != nil {
		t.Fatalf("SearchAssets failed: %v", err)
	}
	if len(results) != 1 || results[0].Symbol != "VOO" {
		t.Errorf("results = %+v, want only the ETF", results)
	}
}

func TestSearchAssets_VenueFailureDegrades(t *testing.T) {
	g := newTestGateway(
		&fakeCrypto{search: func(_ context.Context, _ string) ([]models.AssetSearchResult, error) {
			return nil, errors.New("coingecko down")
		}},
		&fakeStocks{search: func(_ context.Context, _ string) ([]models.AssetSearchResult, error) {
			return []models.AssetSearchResult{{Symbol: "AAPL", Type: models.AssetTypeStock}}, nil
		}},
	)

	results, err := g.SearchAssets(context.Background(), "a", models.AssetTypeOther)
	if err != nil {
		t.Fatalf("SearchAssets must not fail when one venue degrades: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want the surviving venue's hit", len(results))
	}
}

func TestGetAssetPrice_CryptoPrefersCoinID(t *testing.T) {
	g := newTestGateway(
		&fakeCrypto{
			getPrice: func(_ context.Context, coinID string) (float64, error) {
				if coinID != "bitcoin" {
					t.Errorf("coinID = %q, want bitcoin", coinID)
				}
				return 50000, nil
			},
			getPriceBySymbol: func(_ context.Context, _ string) (float64, error) {
				t.Error("coin id lookup must not fall back to symbol search")
				return 0, nil
			},
		},
		nil,
	)

	price, ok := g.GetAssetPrice(context.Background(), "BTC", models.AssetTypeCrypto, "bitcoin")
	if !ok || price != 50000 {
		t.Errorf("price = (%v, %v), want (50000, true)", price, ok)
	}
}

func TestGetAssetPrice_CryptoWithoutCoinID(t *testing.T) {
	g := newTestGateway(
		&fakeCrypto{getPriceBySymbol: func(_ context.Context, symbol string) (float64, error) {
			if symbol != "ETH" {
				t.Errorf("symbol = %q, want ETH", symbol)
			}
			return 3000, nil
		}},
		nil,
	)

	price, ok := g.GetAssetPrice(context.Background(), "ETH", models.AssetTypeCrypto, "")
	if !ok || price != 3000 {
		t.Errorf("price = (%v, %v), want (3000, true)", price, ok)
	}
}

func TestGetAssetPrice_StocksRouteToQuote(t *testing.T) {
	g := newTestGateway(nil,
		&fakeStocks{getQuote: func(_ context.Context, symbol string) (float64, error) {
			return 189.25, nil
		}},
	)

	price, ok := g.GetAssetPrice(context.Background(), "AAPL", models.AssetTypeStock, "")
	if !ok || price != 189.25 {
		t.Errorf("price = (%v, %v), want (189.25, true)", price, ok)
	}
}

func TestGetAssetPrice_FailureReportsNotOK(t *testing.T) {
	g := newTestGateway(nil, &fakeStocks{})

	if price, ok := g.GetAssetPrice(context.Background(), "AAPL", models.AssetTypeStock, ""); ok || price != 0 {
		t.Errorf("price = (%v, %v), want (0, false)", price, ok)
	}
}

func TestGetAssetPrice_ZeroPriceReportsNotOK(t *testing.T) {
	g := newTestGateway(nil,
		&fakeStocks{getQuote: func(_ context.Context, _ string) (float64, error) {
			return 0, nil
		}},
	)

	if _, ok := g.GetAssetPrice(context.Background(), "AAPL", models.AssetTypeStock, ""); ok {
		t.Error("zero price must report ok=false")
	}
}
