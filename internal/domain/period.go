package domain

// ChecklistItem is one required document and its review status.
// DocumentCode is unique within a single checklist snapshot.
type ChecklistItem struct {
	DocumentCode string
	Status       ChecklistStatus
}

// PeriodStatus is the authoritative flow snapshot for one (driver, year).
// The whole value is replaced on every fetch; nothing is patched in.
type PeriodStatus struct {
	FlowState FlowState
	Stage     string
	PeriodID  int64
	Checklist []ChecklistItem

	// NotStarted is set when the backend reports no period for the year yet.
	// Message carries the backend's explanation for display.
	NotStarted bool
	Message    string
}

// ChecklistComplete reports whether every checklist item has moved past
// Missing. Gates the final submit on the payment screen.
func (p *PeriodStatus) ChecklistComplete() bool {
	if len(p.Checklist) == 0 {
		return false
	}
	for _, it := range p.Checklist {
		if it.Status == DocMissing {
			return false
		}
	}
	return true
}
