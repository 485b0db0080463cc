package search

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"distributorsearch_api/internal/connectors"
	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/metrics"
	"distributorsearch_api/pkg/logger"
)

const defaultFetchTimeout = 60 * time.Second

// Entry pairs an active supplier with its connector and the timeout budget
// for one fetch. Timeouts are connector-specific (a CSV feed answers in
// seconds, the rate-limited feed may retry for a minute).
type Entry struct {
	Supplier  models.Supplier
	Connector connectors.Connector
	Timeout   time.Duration
}

// Aggregator fans a fetch out across all supplier connectors and merges the
// results into one tagged set. Each supplier call is bulkheaded: an error or
// timeout in one never aborts or empties the others' contributions.
type Aggregator struct {
	entries []Entry
	log     logger.Logger
}

func NewAggregator(entries []Entry, writer io.Writer) *Aggregator {
	return &Aggregator{
		entries: entries,
		log:     logger.NewLogger(writer, "[Aggregator]"),
	}
}

type fetchResult struct {
	entry    Entry
	products []models.NormalizedProduct
	err      error
}

// FetchAll retrieves every supplier's full catalog concurrently and tags each
// product with its supplier identity.
func (a *Aggregator) FetchAll(ctx context.Context) []models.SupplierProduct {
	return a.fanOut(ctx, func(ctx context.Context, e Entry) ([]models.NormalizedProduct, error) {
		return e.Connector.FetchProducts(ctx, "")
	})
}

// SearchAll is FetchAll with the query passed through to connectors that can
// filter server-side; every connector still applies its local backstop.
func (a *Aggregator) SearchAll(ctx context.Context, query string) []models.SupplierProduct {
	return a.fanOut(ctx, func(ctx context.Context, e Entry) ([]models.NormalizedProduct, error) {
		return e.Connector.SearchProducts(ctx, query)
	})
}

func (a *Aggregator) fanOut(ctx context.Context, fetch func(context.Context, Entry) ([]models.NormalizedProduct, error)) []models.SupplierProduct {
	results := make(chan fetchResult, len(a.entries))
	var wg sync.WaitGroup

	for _, entry := range a.entries {
		if entry.Supplier.Status != models.SupplierActive {
			continue
		}
		wg.Add(1)
		go func(e Entry) {
			defer wg.Done()

			timeout := e.Timeout
			if timeout <= 0 {
				timeout = defaultFetchTimeout
			}
			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			products, err := fetch(fetchCtx, e)
			metrics.RecordSupplierFetch(e.Supplier.Slug, len(products), time.Since(start), err)
			results <- fetchResult{entry: e, products: products, err: err}
		}(entry)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Combine only after every supplier's attempt settles. A failed
	// supplier is logged distinctly from one that legitimately returned
	// nothing; to the caller both contribute zero products.
	var combined []models.SupplierProduct
	for res := range results {
		if res.err != nil {
			a.log.Log("Supplier %s failed: %s", res.entry.Supplier.Slug, res.err)
			continue
		}
		if len(res.products) == 0 {
			a.log.Log("Supplier %s returned no products", res.entry.Supplier.Slug)
			continue
		}
		combined = append(combined, tagProducts(res.entry.Supplier, res.products)...)
	}
	return combined
}

func tagProducts(supplier models.Supplier, products []models.NormalizedProduct) []models.SupplierProduct {
	tagged := make([]models.SupplierProduct, 0, len(products))
	for _, p := range products {
		tagged = append(tagged, models.SupplierProduct{
			ID:                models.ProductID(supplier.Slug, p.SKU),
			SupplierID:        supplier.ID,
			SupplierName:      supplier.Name,
			SupplierSlug:      supplier.Slug,
			NormalizedProduct: p,
		})
	}
	return tagged
}

// SortProducts orders by supplier name then product name with locale-aware
// collation, deliberately interleaving suppliers instead of grouping by
// whichever feed answered first.
func SortProducts(products []models.SupplierProduct) {
	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(products, func(i, j int) bool {
		if c := coll.CompareString(products[i].SupplierName, products[j].SupplierName); c != 0 {
			return c < 0
		}
		return coll.CompareString(products[i].Name, products[j].Name) < 0
	})
}
