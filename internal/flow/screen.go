package flow

import "github.com/avlasenko/taxikit/internal/domain"

// Screen identifies which screen the client should render.
type Screen int

const (
	ScreenWaiting Screen = iota
	ScreenNotStarted
	ScreenFirmSelect
	ScreenInterview
	ScreenDocuments
	ScreenPayment
	ScreenReview
)

// Descriptor is the render instruction for one flow state.
type Descriptor struct {
	Screen Screen
	Title  string
}

// ScreenFor maps a flow state to its screen. The mapping is total: every
// known state has exactly one descriptor, and anything unrecognized
// (including future states this client predates) falls back to the
// waiting screen instead of failing.
func ScreenFor(state domain.FlowState) Descriptor {
	switch state {
	case domain.FlowNeedsFirm:
		return Descriptor{Screen: ScreenFirmSelect, Title: "Choose your firm"}
	case domain.FlowNeedsProfile:
		return Descriptor{Screen: ScreenInterview, Title: "Expense interview"}
	case domain.FlowNeedsDocuments:
		return Descriptor{Screen: ScreenDocuments, Title: "Documents"}
	case domain.FlowNeedsPayment:
		return Descriptor{Screen: ScreenPayment, Title: "Finish & submit"}
	case domain.FlowInReview:
		return Descriptor{Screen: ScreenReview, Title: "In review"}
	default:
		return Descriptor{Screen: ScreenWaiting, Title: "Waiting for instructions"}
	}
}
