package slot

import "sort"

// CheckAvailable reports whether every requested template may be booked on
// the date the records were loaded for. A template with no record is
// available; any record in a non-available status fails the whole batch.
//
// The function is pure: it runs once before the lock batch is taken (cheap
// fail-fast) and once after, when the same check is authoritative because
// only the lock holder can mutate the records.
func CheckAvailable(templates []*Template, records []*Record) error {
	byTemplate := make(map[int64]*Record, len(records))
	for _, r := range records {
		byTemplate[r.TemplateID] = r
	}

	for _, t := range templates {
		rec, ok := byTemplate[t.ID]
		if !ok {
			continue
		}
		if rec.Status != StatusAvailable {
			return ErrUnavailable
		}
	}
	return nil
}

// ValidateBatch enforces the structural rules layered on top of
// availability: every requested ID resolved, all templates enabled,
// single owner, service-type support, and contiguity for multi-slot
// selections.
func ValidateBatch(templates []*Template, requested []int64, ownerID int64, serviceType ServiceType) error {
	if len(templates) != len(requested) {
		return ErrTemplateNotFound
	}

	for _, t := range templates {
		if t.OwnerID != ownerID {
			return ErrOwnerMismatch
		}
		if !t.Enabled {
			return ErrTemplateDisabled
		}
		if !t.SupportsService(serviceType) {
			return ErrServiceTypeMismatch
		}
	}

	if len(templates) > 1 {
		sorted := make([]*Template, len(templates))
		copy(sorted, templates)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMinute < sorted[j].StartMinute })
		for i := 1; i < len(sorted); i++ {
			if sorted[i].StartMinute != sorted[i-1].EndMinute {
				return ErrNotContiguous
			}
		}
	}

	return nil
}
