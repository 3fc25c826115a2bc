package trip

import (
	"encoding/json"
	"fmt"

	"ms-busline/internal/fault"
	"ms-busline/internal/kafka"
	"ms-busline/internal/models"
	"ms-busline/internal/utils"
)

// ApplyPriceTransform computes the new price for one trip.
func ApplyPriceTransform(price float64, kind string, value float64) float64 {
	switch kind {
	case models.PriceTypePercent:
		return price * (1 + value/100)
	case models.PriceTypeAdd:
		return price + value
	case models.PriceTypeSet:
		return value
	}
	return price
}

// BulkUpdatePrices applies one transform to every non-cancelled trip
// the filter matches and returns how many were updated. Each trip is
// written independently: a trip deleted concurrently just drops out of
// the count, nothing is rolled back.
func (s *Service) BulkUpdatePrices(req models.BulkPriceRequest) (int, error) {
	switch req.Type {
	case models.PriceTypePercent, models.PriceTypeAdd, models.PriceTypeSet:
	default:
		return 0, fault.Validation(fault.CodeMissingTypeOrValue, "transform type and value are required")
	}
	if req.Value == nil {
		return 0, fault.Validation(fault.CodeMissingTypeOrValue, "transform type and value are required")
	}

	var filter models.PriceFilter
	if !req.All {
		if req.StartDate != "" || req.EndDate != "" {
			start, err := utils.ParseDate(req.StartDate)
			if err != nil {
				return 0, fault.Validation(fault.CodeInvalidDateRange, "invalid start date %q", req.StartDate)
			}
			end, err := utils.ParseDate(req.EndDate)
			if err != nil {
				return 0, fault.Validation(fault.CodeInvalidDateRange, "invalid end date %q", req.EndDate)
			}
			if end.Before(start) {
				return 0, fault.Validation(fault.CodeInvalidDateRange, "end date before start date")
			}
			filter.Start = utils.StartOfDay(start)
			filter.End = utils.StartOfDay(end)
		}
		filter.Origin = req.Origin
		filter.Destination = req.Destination
		filter.BusID = req.BusID
		if filter.Start.IsZero() && filter.Origin == "" && filter.Destination == "" && filter.BusID == "" {
			return 0, fault.Validation(fault.CodeMissingRequiredFields,
				"a filter or the all flag is required")
		}
	}

	trips, err := s.DB.SelectForPricing(filter)
	if err != nil {
		return 0, fault.Infra(err, "selecting trips for price update")
	}
	if len(trips) == 0 {
		return 0, fault.State(fault.CodeNoMatchingTrips, "no trips match the filter")
	}

	updated := 0
	for _, t := range trips {
		newPrice := ApplyPriceTransform(t.Price, req.Type, *req.Value)
		ok, err := s.DB.UpdatePrice(t.ID, newPrice)
		if err != nil {
			s.Logger.Error("PRICING", fmt.Sprintf("failed to update price for trip %s: %v", t.ID, err))
			continue
		}
		if ok {
			updated++
		}
	}
	if updated == 0 {
		return 0, fault.State(fault.CodeNoMatchingTrips, "no trips were updated")
	}

	s.Logger.Info("PRICING", fmt.Sprintf("bulk %s/%v updated %d trips", req.Type, *req.Value, updated))
	s.publishBulkPrice(req.Type, *req.Value, updated)
	return updated, nil
}

func (s *Service) publishBulkPrice(kind string, value float64, updated int) {
	if s.Kafka == nil {
		return
	}
	event := models.BulkPriceEvent{
		Type:       kind,
		Value:      value,
		Updated:    updated,
		OccurredAt: s.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to marshal bulk price event: %v", err))
		return
	}
	if err := s.Kafka.Publish(kafka.TopicBulkPriceUpdated, kind, payload); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish bulk price event: %v", err))
		return
	}
	s.Logger.LogKafka("PUBLISH", kafka.TopicBulkPriceUpdated, fmt.Sprintf("%s/%v updated=%d", kind, value, updated))
}
