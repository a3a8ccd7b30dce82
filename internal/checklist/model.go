// Package checklist derives display state from a checklist snapshot and
// owns the optimistic bookkeeping around document uploads.
package checklist

import "github.com/avlasenko/taxikit/internal/domain"

// Group separates personal identity documents from tax documents.
type Group int

const (
	GroupPersonal Group = iota
	GroupTax
)

// personalDocs is the static membership set for the personal group.
// Any code outside it is a tax document.
var personalDocs = map[string]bool{
	"DL":       true,
	"SSN_CARD": true,
	"PASSPORT": true,
	"ID_CARD":  true,
}

// Item is one checklist entry with its derived display facts.
type Item struct {
	DocumentCode string
	Status       domain.ChecklistStatus
	Actionable   bool
	Done         bool
	Group        Group
}

// Actionable reports whether the driver can act on an item right now.
// Uploaded and Approved are terminal for the user.
func Actionable(status domain.ChecklistStatus) bool {
	switch status {
	case domain.DocMissing, domain.DocNeedsReview, domain.DocRejected:
		return true
	}
	return false
}

// GroupOf classifies a document code.
func GroupOf(code string) Group {
	if personalDocs[code] {
		return GroupPersonal
	}
	return GroupTax
}

// Build turns a raw snapshot into display-ready items, preserving the
// snapshot's order within each group: personal documents first, then tax.
func Build(items []domain.ChecklistItem) []Item {
	out := make([]Item, 0, len(items))
	for _, group := range []Group{GroupPersonal, GroupTax} {
		for _, it := range items {
			if GroupOf(it.DocumentCode) != group {
				continue
			}
			out = append(out, Item{
				DocumentCode: it.DocumentCode,
				Status:       it.Status,
				Actionable:   Actionable(it.Status),
				Done:         it.Status == domain.DocApproved || it.Status == domain.DocUploaded,
				Group:        group,
			})
		}
	}
	return out
}

// PromoteUploaded returns a copy of the snapshot with one item locally
// promoted to Uploaded after a successful upload call. The promotion is
// provisional: the next authoritative fetch replaces the whole snapshot
// and wins unconditionally, so a server-side rejection cannot leave a
// stale uploaded flag behind.
func PromoteUploaded(items []domain.ChecklistItem, documentCode string) []domain.ChecklistItem {
	out := make([]domain.ChecklistItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].DocumentCode == documentCode {
			out[i].Status = domain.DocUploaded
			break
		}
	}
	return out
}

// Counts summarizes a snapshot for headers and progress lines.
type Counts struct {
	Total   int
	Done    int
	Missing int
}

// Summarize tallies a snapshot.
func Summarize(items []domain.ChecklistItem) Counts {
	var c Counts
	c.Total = len(items)
	for _, it := range items {
		switch it.Status {
		case domain.DocApproved, domain.DocUploaded:
			c.Done++
		case domain.DocMissing:
			c.Missing++
		}
	}
	return c
}
