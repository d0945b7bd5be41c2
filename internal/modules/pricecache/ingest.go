package pricecache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Quote is one scraped price for a fund, identified by display name.
type Quote struct {
	Name  string
	Price decimal.Decimal
	Units decimal.Decimal
}

// PriceSource fetches current quotes for the given fund names. The actual
// scraping client lives behind this interface.
type PriceSource interface {
	Fetch(ctx context.Context, names []string) ([]Quote, error)
}

// NameProvider supplies the fund names that need price observations.
type NameProvider interface {
	AllNames() ([]string, error)
}

// Ingestor writes scrape batches into the cache as generations. It is the
// single writer: a generation is appended incomplete, observations are added
// one per fund, and the completion flag flips last. A failed run leaves an
// incomplete generation behind, which readers never see.
type Ingestor struct {
	store  *Store
	names  NameProvider
	source PriceSource
	hash   func(name string) string
	log    zerolog.Logger
}

// NewIngestor creates a new price ingestor
func NewIngestor(
	store *Store,
	names NameProvider,
	source PriceSource,
	hash func(name string) string,
	log zerolog.Logger,
) *Ingestor {
	return &Ingestor{
		store:  store,
		names:  names,
		source: source,
		hash:   hash,
		log:    log.With().Str("service", "price_ingest").Logger(),
	}
}

// Run performs one scrape batch.
func (i *Ingestor) Run(ctx context.Context) error {
	runID := uuid.New().String()
	log := i.log.With().Str("run_id", runID).Logger()

	names, err := i.names.AllNames()
	if err != nil {
		return fmt.Errorf("failed to list fund names: %w", err)
	}
	if len(names) == 0 {
		log.Info().Msg("No funds to scrape")
		return nil
	}

	quotes, err := i.source.Fetch(ctx, names)
	if err != nil {
		return fmt.Errorf("failed to fetch quotes: %w", err)
	}
	if len(quotes) == 0 {
		log.Warn().Msg("Price source returned no quotes, skipping generation")
		return nil
	}

	cid, err := i.store.BeginGeneration(time.Now())
	if err != nil {
		return fmt.Errorf("failed to begin generation: %w", err)
	}

	for _, quote := range quotes {
		fid, err := i.store.EnsureHash(i.hash(quote.Name))
		if err != nil {
			return fmt.Errorf("failed to resolve hash for %q: %w", quote.Name, err)
		}
		if err := i.store.AddObservation(cid, fid, quote.Price, quote.Units); err != nil {
			return fmt.Errorf("failed to store observation for %q: %w", quote.Name, err)
		}
	}

	if err := i.store.CompleteGeneration(cid); err != nil {
		return fmt.Errorf("failed to complete generation: %w", err)
	}

	log.Info().
		Int64("cid", cid).
		Int("quotes", len(quotes)).
		Msg("Price generation stored")

	return nil
}
