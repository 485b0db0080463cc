package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStockStatusFor(t *testing.T) {
	t.Run("ZeroAndNegativeAreOutOfStock", func(t *testing.T) {
		require.Equal(t, StockOut, StockStatusFor(0))
		require.Equal(t, StockOut, StockStatusFor(-5))
	})

	t.Run("BelowThresholdIsLowStock", func(t *testing.T) {
		require.Equal(t, StockLow, StockStatusFor(1))
		require.Equal(t, StockLow, StockStatusFor(LowStockThreshold-1))
	})

	t.Run("ThresholdAndAboveIsInStock", func(t *testing.T) {
		require.Equal(t, StockIn, StockStatusFor(LowStockThreshold))
		require.Equal(t, StockIn, StockStatusFor(100000))
	})

	t.Run("EveryQuantityMapsToExactlyOneStatus", func(t *testing.T) {
		for qty := -3; qty <= 30; qty++ {
			status := StockStatusFor(qty)
			switch {
			case qty <= 0:
				require.Equal(t, StockOut, status, "qty %d", qty)
			case qty < LowStockThreshold:
				require.Equal(t, StockLow, status, "qty %d", qty)
			default:
				require.Equal(t, StockIn, status, "qty %d", qty)
			}
		}
	})
}

func TestProductID(t *testing.T) {
	t.Run("StableAcrossCalls", func(t *testing.T) {
		first := ProductID("mustek", "PN-100")
		second := ProductID("mustek", "PN-100")
		require.Equal(t, first, second)
		require.Len(t, first, 16)
	})

	t.Run("DiffersBySupplier", func(t *testing.T) {
		require.NotEqual(t, ProductID("mustek", "PN-100"), ProductID("axiz", "PN-100"))
	})

	t.Run("DiffersBySKU", func(t *testing.T) {
		require.NotEqual(t, ProductID("mustek", "PN-100"), ProductID("mustek", "PN-101"))
	})

	t.Run("SeparatorPreventsCollisions", func(t *testing.T) {
		// "ab"+"c" and "a"+"bc" concatenate identically without a separator.
		require.NotEqual(t, ProductID("ab", "c"), ProductID("a", "bc"))
	})
}

func TestEtaDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("FutureDateRoundsUp", func(t *testing.T) {
		eta := now.Add(36 * time.Hour)
		days := EtaDaysUntil(eta, now)
		require.NotNil(t, days)
		require.Equal(t, 2, *days)
	})

	t.Run("PastDateIsNil", func(t *testing.T) {
		require.Nil(t, EtaDaysUntil(now.Add(-24*time.Hour), now))
	})

	t.Run("SameInstantIsNil", func(t *testing.T) {
		require.Nil(t, EtaDaysUntil(now, now))
	})

	t.Run("ZeroTimeIsNil", func(t *testing.T) {
		require.Nil(t, EtaDaysUntil(time.Time{}, now))
	})
}
