package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"distributorsearch_api/internal/core/models"
)

func tagged(supplier, sku, name, category string, price *float64, qty int) models.SupplierProduct {
	return models.SupplierProduct{
		ID:           models.ProductID(supplier, sku),
		SupplierName: supplier,
		SupplierSlug: supplier,
		NormalizedProduct: models.NormalizedProduct{
			SKU:           sku,
			Name:          name,
			Category:      category,
			Price:         price,
			Currency:      "ZAR",
			StockQuantity: qty,
			StockStatus:   models.StockStatusFor(qty),
		},
	}
}

func fp(v float64) *float64 { return &v }

func testCatalog() []models.SupplierProduct {
	return []models.SupplierProduct{
		tagged("mustek", "M-1", "USB Keyboard", "accessories", fp(200), 50),
		tagged("mustek", "M-2", "Gaming Keyboard RGB", "accessories", fp(1500), 5),
		tagged("axiz", "A-1", "Dell Laptop", "laptop", fp(19000), 0),
		tagged("axiz", "A-2", "Dell Monitor", "monitor", nil, 12),
		tagged("tarsus", "T-1", "Laser Printer", "printers", fp(3000), 8),
	}
}

func TestQueryApply(t *testing.T) {
	t.Run("NoFiltersReturnsEverything", func(t *testing.T) {
		res := Query{}.Apply(testCatalog())
		require.Equal(t, 5, res.Total)
		require.Len(t, res.Products, 5)
		require.Equal(t, DefaultLimit, res.Limit)
	})

	t.Run("TextFilterIsCaseInsensitiveSubstring", func(t *testing.T) {
		res := Query{Q: "keyboard"}.Apply(testCatalog())
		require.Equal(t, 2, res.Total)
		for _, p := range res.Products {
			require.Contains(t, p.Name, "Keyboard")
		}
	})

	t.Run("SupplierFilterIsExactSlug", func(t *testing.T) {
		res := Query{Supplier: "axiz"}.Apply(testCatalog())
		require.Equal(t, 2, res.Total)

		res = Query{Supplier: "axi"}.Apply(testCatalog())
		require.Equal(t, 0, res.Total)
	})

	t.Run("CategoryFilterIsCaseInsensitiveExact", func(t *testing.T) {
		res := Query{Category: "LAPTOP"}.Apply(testCatalog())
		require.Equal(t, 1, res.Total)
		require.Equal(t, "A-1", res.Products[0].SKU)
	})

	t.Run("PriceBoundsExcludeUnpricedProducts", func(t *testing.T) {
		res := Query{MinPrice: fp(100)}.Apply(testCatalog())
		require.Equal(t, 4, res.Total)
		for _, p := range res.Products {
			require.NotNil(t, p.Price)
		}

		res = Query{MinPrice: fp(1000), MaxPrice: fp(5000)}.Apply(testCatalog())
		require.Equal(t, 2, res.Total)
	})

	t.Run("StockStatusFilter", func(t *testing.T) {
		res := Query{StockStatus: "out_of_stock"}.Apply(testCatalog())
		require.Equal(t, 1, res.Total)
		require.Equal(t, "A-1", res.Products[0].SKU)
	})

	t.Run("FiltersCombineWithAND", func(t *testing.T) {
		res := Query{Q: "keyboard", MaxPrice: fp(500)}.Apply(testCatalog())
		require.Equal(t, 1, res.Total)
		require.Equal(t, "M-1", res.Products[0].SKU)
	})

	t.Run("PaginationSlicesAfterFiltering", func(t *testing.T) {
		res := Query{Limit: 2, Offset: 0}.Apply(testCatalog())
		require.Equal(t, 5, res.Total)
		require.Len(t, res.Products, 2)

		page2 := Query{Limit: 2, Offset: 2}.Apply(testCatalog())
		require.Equal(t, 5, page2.Total)
		require.Len(t, page2.Products, 2)
		require.NotEqual(t, res.Products[0].ID, page2.Products[0].ID)

		page3 := Query{Limit: 2, Offset: 4}.Apply(testCatalog())
		require.Len(t, page3.Products, 1)
	})

	t.Run("OffsetPastEndReturnsEmptyPage", func(t *testing.T) {
		res := Query{Limit: 10, Offset: 100}.Apply(testCatalog())
		require.Equal(t, 5, res.Total)
		require.Empty(t, res.Products)
		require.NotNil(t, res.Products)
	})

	t.Run("LimitIsClamped", func(t *testing.T) {
		res := Query{Limit: 100000}.Apply(testCatalog())
		require.Equal(t, MaxLimit, res.Limit)

		res = Query{Limit: -5}.Apply(testCatalog())
		require.Equal(t, DefaultLimit, res.Limit)
	})

	t.Run("ResultsAreSortedBySupplierThenName", func(t *testing.T) {
		res := Query{}.Apply(testCatalog())
		require.Equal(t, []string{"A-1", "A-2", "M-2", "M-1", "T-1"}, skus(res.Products))
	})
}

func skus(products []models.SupplierProduct) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.SKU)
	}
	return out
}
