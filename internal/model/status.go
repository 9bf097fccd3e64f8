package model

// Request status values shared by every form type. Not every form uses every
// status; the form descriptor decides which ones apply.
const (
	StatusDraft        = "Draft"
	StatusPending      = "Pending"
	StatusEndorsed     = "Endorsed"
	StatusApproved     = "Approved"
	StatusDeclined     = "Declined"
	StatusReceived     = "Received"
	StatusCompleted    = "Completed"
	StatusAccomplished = "Accomplished"

	// Legacy labels still found in older rows. They are only read by the
	// dashboard classifier.
	StatusForReview   = "For Review"
	StatusForApproval = "For Approval"
	StatusRejected    = "Rejected"
)

// Dashboard buckets
const (
	BucketPending  = "pending"
	BucketApproved = "approved"
	BucketDeclined = "declined"
	BucketOther    = "other"
)

// PendingStatuses are the statuses counted as outstanding work.
var PendingStatuses = []string{StatusPending, StatusForReview, StatusForApproval}

// StatusBucket classifies a raw status string for the workload summary.
func StatusBucket(status string) string {
	switch status {
	case StatusPending, StatusForReview, StatusForApproval:
		return BucketPending
	case StatusApproved, StatusEndorsed:
		return BucketApproved
	case StatusDeclined, StatusRejected:
		return BucketDeclined
	default:
		return BucketOther
	}
}
