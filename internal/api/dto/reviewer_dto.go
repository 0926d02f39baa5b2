package dto

// ModifyReviewersRequest payload for roster add/remove.
type ModifyReviewersRequest struct {
	UserIDs []int64 `json:"user_ids"`
}

// ReviewerListResponse payload.
type ReviewerListResponse struct {
	UserIDs []int64 `json:"user_ids"`
}

// PingSubscriptionRequest payload.
type PingSubscriptionRequest struct {
	Enabled bool `json:"enabled"`
}
