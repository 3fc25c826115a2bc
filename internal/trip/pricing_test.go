package trip_test

import (
	"errors"
	"testing"

	"ms-busline/internal/fault"
	"ms-busline/internal/models"
	"ms-busline/internal/trip"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestApplyPriceTransform(t *testing.T) {
	assert.InDelta(t, 110.0, trip.ApplyPriceTransform(100, models.PriceTypePercent, 10), 0.001)
	assert.InDelta(t, 90.0, trip.ApplyPriceTransform(100, models.PriceTypePercent, -10), 0.001)
	assert.InDelta(t, 125.0, trip.ApplyPriceTransform(100, models.PriceTypeAdd, 25), 0.001)
	assert.InDelta(t, 75.0, trip.ApplyPriceTransform(100, models.PriceTypeAdd, -25), 0.001)
	assert.InDelta(t, 300.0, trip.ApplyPriceTransform(100, models.PriceTypeSet, 300), 0.001)
	assert.InDelta(t, 100.0, trip.ApplyPriceTransform(100, "unknown", 50), 0.001)
}

func floatPtr(v float64) *float64 { return &v }

func TestBulkUpdatePrices(t *testing.T) {
	t.Run("applies a percent raise to every matching trip", func(t *testing.T) {
		svc, m := newTripService()

		trips := []models.Trip{
			{ID: "t1", Price: 100},
			{ID: "t2", Price: 200},
		}
		m.db.On("SelectForPricing", mock.MatchedBy(func(f models.PriceFilter) bool {
			return f.Origin == "Istanbul"
		})).Return(trips, nil)
		m.db.On("UpdatePrice", "t1", 110.0).Return(true, nil)
		m.db.On("UpdatePrice", "t2", 220.0).Return(true, nil)
		m.kafka.On("Publish", "busline.price.bulk_updated", mock.Anything, mock.Anything).Return(nil)

		updated, err := svc.BulkUpdatePrices(models.BulkPriceRequest{
			Type:   models.PriceTypePercent,
			Value:  floatPtr(10),
			Origin: "Istanbul",
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, updated)
		m.db.AssertExpectations(t)
	})

	t.Run("rejects a missing transform value", func(t *testing.T) {
		svc, _ := newTripService()

		_, err := svc.BulkUpdatePrices(models.BulkPriceRequest{Type: models.PriceTypeSet})

		assert.Equal(t, fault.CodeMissingTypeOrValue, fault.CodeOf(err))
	})

	t.Run("rejects an unknown transform type", func(t *testing.T) {
		svc, _ := newTripService()

		_, err := svc.BulkUpdatePrices(models.BulkPriceRequest{Type: "halve", Value: floatPtr(2)})

		assert.Equal(t, fault.CodeMissingTypeOrValue, fault.CodeOf(err))
	})

	t.Run("rejects an empty filter without the all flag", func(t *testing.T) {
		svc, _ := newTripService()

		_, err := svc.BulkUpdatePrices(models.BulkPriceRequest{
			Type:  models.PriceTypeAdd,
			Value: floatPtr(50),
		})

		assert.Equal(t, fault.CodeMissingRequiredFields, fault.CodeOf(err))
	})

	t.Run("rejects an inverted date range", func(t *testing.T) {
		svc, _ := newTripService()

		_, err := svc.BulkUpdatePrices(models.BulkPriceRequest{
			Type:      models.PriceTypeAdd,
			Value:     floatPtr(50),
			StartDate: "2026-06-10",
			EndDate:   "2026-06-01",
		})

		assert.Equal(t, fault.CodeInvalidDateRange, fault.CodeOf(err))
	})

	t.Run("reports when nothing matches", func(t *testing.T) {
		svc, m := newTripService()

		m.db.On("SelectForPricing", mock.Anything).Return([]models.Trip{}, nil)

		_, err := svc.BulkUpdatePrices(models.BulkPriceRequest{
			Type:  models.PriceTypeSet,
			Value: floatPtr(500),
			All:   true,
		})

		assert.Equal(t, fault.CodeNoMatchingTrips, fault.CodeOf(err))
	})

	t.Run("continues past per-trip write failures", func(t *testing.T) {
		svc, m := newTripService()

		trips := []models.Trip{
			{ID: "t1", Price: 100},
			{ID: "t2", Price: 200},
		}
		m.db.On("SelectForPricing", mock.Anything).Return(trips, nil)
		m.db.On("UpdatePrice", "t1", 150.0).Return(false, errors.New("connection reset"))
		m.db.On("UpdatePrice", "t2", 250.0).Return(true, nil)
		m.kafka.On("Publish", "busline.price.bulk_updated", mock.Anything, mock.Anything).Return(nil)

		updated, err := svc.BulkUpdatePrices(models.BulkPriceRequest{
			Type:  models.PriceTypeAdd,
			Value: floatPtr(50),
			All:   true,
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, updated)
	})
}
