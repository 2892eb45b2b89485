// Package api contains the JSON envelopes of the v1 HTTP API.
package api

// Response status values
const (
	StatusSuccess = "success"
)

// ListResponse wraps collection endpoints
type ListResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
	Count  int         `json:"count"`
}

// NewListResponse builds a successful list envelope
func NewListResponse(data interface{}, count int) ListResponse {
	return ListResponse{
		Status: StatusSuccess,
		Data:   data,
		Count:  count,
	}
}
