package http

// StatusResponse is the generic envelope the bridge protocol uses for
// results that carry no body of their own.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the wire shape of every error the API returns.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
