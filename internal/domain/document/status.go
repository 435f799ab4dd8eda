package document

// Status is the lifecycle of every business document. Posting stock and
// ledger effects happens on the first transition into Approved and never
// again; Completed is a bookkeeping close, Cancelled is only reachable
// before posting (corrections after posting go through return documents
// or reversing entries).
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo validates a status transition
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusPending || target == StatusApproved || target == StatusCancelled
	case StatusPending:
		return target == StatusApproved || target == StatusCancelled
	case StatusApproved:
		return target == StatusCompleted
	case StatusCompleted, StatusCancelled:
		return false
	}
	return false
}

// IsPosted returns true once the document's stock/ledger effects exist
func (s Status) IsPosted() bool {
	return s == StatusApproved || s == StatusCompleted
}

// IsTerminal returns true for end-of-life statuses
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}
