package domain

// FlowState is the backend-owned stage of a driver's intake period.
// The client never computes transitions; it renders whatever comes back.
type FlowState string

const (
	FlowNeedsFirm      FlowState = "NEEDS_FIRM"
	FlowNeedsProfile   FlowState = "NEEDS_PROFILE"
	FlowNeedsDocuments FlowState = "NEEDS_DOCUMENTS"
	FlowNeedsPayment   FlowState = "NEEDS_PAYMENT"
	FlowInReview       FlowState = "IN_REVIEW"
)

type ChecklistStatus string

const (
	DocMissing     ChecklistStatus = "missing"
	DocUploaded    ChecklistStatus = "uploaded"
	DocNeedsReview ChecklistStatus = "needs_review"
	DocApproved    ChecklistStatus = "approved"
	DocRejected    ChecklistStatus = "rejected"
)

type MessageState string

const (
	MessagePending   MessageState = "pending"
	MessageConfirmed MessageState = "confirmed"
)
