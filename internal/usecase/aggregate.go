package usecase

import "ZoningHarvester/internal/domain"

// Aggregate groups the combined dataset by division code and derives
// document count, total area, and density per group. Groups whose
// total area is not positive are excluded: density is undefined there
// and must never be computed. An empty dataset yields nil.
func Aggregate(dataset domain.Dataset) []domain.DivisionStats {
	if len(dataset.Records) == 0 {
		return nil
	}

	type bucket struct {
		documents int
		area      float64
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, record := range dataset.Records {
		b, ok := buckets[record.Division]
		if !ok {
			b = &bucket{}
			buckets[record.Division] = b
			order = append(order, record.Division)
		}
		b.documents++
		b.area += record.AreaKm2
	}

	stats := make([]domain.DivisionStats, 0, len(order))
	for _, code := range order {
		b := buckets[code]
		if b.area <= 0 {
			continue
		}
		stats = append(stats, domain.DivisionStats{
			Division:     code,
			Documents:    b.documents,
			TotalAreaKm2: b.area,
			Density:      float64(b.documents) / b.area,
		})
	}
	return stats
}
