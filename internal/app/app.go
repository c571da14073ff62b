// Package app wires configuration, storage, clients, and services into
// the shared application core used by cmd/folio-server.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bobmcallan/folio/internal/clients"
	"github.com/bobmcallan/folio/internal/clients/coingecko"
	"github.com/bobmcallan/folio/internal/clients/finnhub"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/services/goals"
	"github.com/bobmcallan/folio/internal/services/ledger"
	"github.com/bobmcallan/folio/internal/services/valuation"
	"github.com/bobmcallan/folio/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Store       interfaces.KeyValueStore
	Gateway     interfaces.PriceGateway
	Ledger      interfaces.LedgerService
	Valuation   interfaces.ValuationService
	Goals       interfaces.GoalService
	StartupTime time.Time
}

// NewApp initializes storage, clients, and services from configuration.
// configPath may be empty, in which case FOLIO_CONFIG and the default
// folio.toml are tried in order.
func NewApp(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = "folio.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := storage.NewKeyValueStore(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if config.Clients.Finnhub.APIKey == "" {
		logger.Warn().Msg("Finnhub API key not configured - stock quotes will rely on the fallback chain")
	}

	cryptoClient := coingecko.NewClient(
		coingecko.WithBaseURL(config.Clients.CoinGecko.BaseURL),
		coingecko.WithRateLimit(config.Clients.CoinGecko.RateLimit),
		coingecko.WithTimeout(config.Clients.CoinGecko.GetTimeout()),
		coingecko.WithLogger(logger),
	)

	stockClient := finnhub.NewClient(
		config.Clients.Finnhub.APIKey,
		finnhub.WithBaseURL(config.Clients.Finnhub.BaseURL),
		finnhub.WithRateLimit(config.Clients.Finnhub.RateLimit),
		finnhub.WithTimeout(config.Clients.Finnhub.GetTimeout()),
		finnhub.WithLogger(logger),
	)

	gateway := clients.NewGateway(cryptoClient, stockClient, logger)

	ledgerService := ledger.NewService(store, logger)
	if err := ledgerService.Load(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	valuationService := valuation.NewService(ledgerService, gateway, logger, &config.Valuation)
	goalService := goals.NewService(store, logger)

	logger.Info().
		Str("environment", config.Environment).
		Str("storage", config.Storage.Backend).
		Msg("App initialized")

	return &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Gateway:     gateway,
		Ledger:      ledgerService,
		Valuation:   valuationService,
		Goals:       goalService,
		StartupTime: time.Now(),
	}, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close storage")
		}
	}
}
