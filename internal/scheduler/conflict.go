package scheduler

// Event is the projection of a scheduled class occurrence needed for conflict
// detection. Cancellation is resolved by the caller so the detector stays
// independent of the persistence status enum.
type Event struct {
	ID        string
	RoomID    *string
	Date      string
	StartTime string
	EndTime   string
	Cancelled bool
}

// FindConflict returns the first existing event whose interval overlaps the
// candidate in the same room on the same date, or nil when the slot is free.
//
// A candidate without a room never conflicts. Cancelled events and the
// candidate itself (matched by ID, covering re-checks during edits) are
// ignored.
func FindConflict(existing []Event, candidate Event) (*Event, error) {
	conflicts, err := findConflicts(existing, candidate, true)
	if err != nil {
		return nil, err
	}
	if len(conflicts) == 0 {
		return nil, nil
	}
	return &conflicts[0], nil
}

// FindAllConflicts returns every existing event overlapping the candidate,
// for diagnostic listings where callers need the full set rather than a gate.
func FindAllConflicts(existing []Event, candidate Event) ([]Event, error) {
	return findConflicts(existing, candidate, false)
}

func findConflicts(existing []Event, candidate Event, firstOnly bool) ([]Event, error) {
	if candidate.RoomID == nil {
		return nil, nil
	}

	candStart, err := ToMinutes(candidate.StartTime)
	if err != nil {
		return nil, err
	}
	candEnd, err := ToMinutes(candidate.EndTime)
	if err != nil {
		return nil, err
	}

	var conflicts []Event
	for _, event := range existing {
		if event.Cancelled {
			continue
		}
		if candidate.ID != "" && event.ID == candidate.ID {
			continue
		}
		if event.RoomID == nil || *event.RoomID != *candidate.RoomID {
			continue
		}
		if event.Date != candidate.Date {
			continue
		}

		start, err := ToMinutes(event.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := ToMinutes(event.EndTime)
		if err != nil {
			return nil, err
		}

		if Overlaps(start, end, candStart, candEnd) {
			conflicts = append(conflicts, event)
			if firstOnly {
				return conflicts, nil
			}
		}
	}

	return conflicts, nil
}
