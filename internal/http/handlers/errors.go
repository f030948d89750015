// Package handlers defines HTTP-layer error codes used across all gateway
// endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// domain codes describe offline conditions a UI collaborator can act on
// (show cached data, show a queued badge, ask the user to reconnect).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "offline_no_data",
//	  "message": "offline and no cached data available"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLarge         = "payload_too_large"

	// Domain-specific:
	ErrCodeUpstream      = "upstream_error"  // backend answered non-2xx
	ErrCodeOfflineNoData = "offline_no_data" // read failed and nothing cached
	ErrCodeOffline       = "offline"         // operation needs the backend
	ErrCodeSyncBusy      = "sync_busy"       // a pass is running here or elsewhere
	ErrCodeSyncFailed    = "sync_failed"
	ErrCodeDispatch      = "dispatch_failed"
	ErrCodeQueueFailed   = "queue_failed"
)
