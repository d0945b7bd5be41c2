package scheduler

import (
	"context"
	"time"

	"github.com/mjwhite/moneta/internal/modules/pricecache"
)

// ScrapePricesJob runs one price-scrape generation: fetch a quote per known
// fund name, append the observations, then mark the generation complete. A
// failed run leaves an incomplete generation that readers never see.
type ScrapePricesJob struct {
	ingestor *pricecache.Ingestor
	timeout  time.Duration
}

// NewScrapePricesJob creates a new scrape job
func NewScrapePricesJob(ingestor *pricecache.Ingestor) *ScrapePricesJob {
	return &ScrapePricesJob{
		ingestor: ingestor,
		timeout:  10 * time.Minute,
	}
}

// Name returns the job name
func (j *ScrapePricesJob) Name() string {
	return "scrape_prices"
}

// Run executes the job
func (j *ScrapePricesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.ingestor.Run(ctx)
}
