package funds

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceCache provides the latest scraped price per fund hash.
// Defined here to avoid a hard dependency on the cache store.
type PriceCache interface {
	LatestPrices() (map[string]decimal.Decimal, error)
}

// Summary is one fund in the list view: latest value and gain alongside the
// ledger totals. Value and Cost are minor currency units.
type Summary struct {
	ID    int64           `json:"id"`
	Name  string          `json:"item"`
	Units decimal.Decimal `json:"units"`
	Cost  int64           `json:"cost"`
	Value int64           `json:"value"`
	Gain  float64         `json:"gain"`
}

// Service assembles fund list data from the ledger and the price cache.
type Service struct {
	repo   *Repository
	prices PriceCache
	salt   string
	log    zerolog.Logger
}

// NewService creates a new funds service
func NewService(repo *Repository, prices PriceCache, salt string, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		prices: prices,
		salt:   salt,
		log:    log.With().Str("service", "funds").Logger(),
	}
}

// List returns all of a user's funds with their latest value. Funds with no
// cached price fall back to cost basis, silently - that is a data-quality
// approximation, not an error.
func (s *Service) List(uid int64) ([]Summary, error) {
	funds, err := s.repo.GetAll(uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get funds: %w", err)
	}

	latest, err := s.prices.LatestPrices()
	if err != nil {
		return nil, fmt.Errorf("failed to get latest prices: %w", err)
	}

	summaries := make([]Summary, 0, len(funds))
	for _, fund := range funds {
		units := fund.TotalUnits()
		cost := fund.TotalCost()

		var value int64
		if price, ok := latest[Hash(fund.Name, s.salt)]; ok {
			value = price.Mul(units).Round(0).IntPart()
		} else {
			value = cost
		}

		var gain float64
		if cost != 0 {
			gain = float64(value-cost) / float64(cost)
		}

		summaries = append(summaries, Summary{
			ID:    fund.ID,
			Name:  fund.Name,
			Units: units,
			Cost:  cost,
			Value: value,
			Gain:  gain,
		})
	}

	return summaries, nil
}

// TotalValue returns the user's whole portfolio value at the latest prices,
// in minor currency units.
func (s *Service) TotalValue(uid int64) (int64, error) {
	summaries, err := s.List(uid)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, summary := range summaries {
		total += summary.Value
	}
	return total, nil
}
