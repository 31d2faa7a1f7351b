package utils

// ErrorResponse is the JSON body of every failed request. Code carries the
// machine-readable policy code when a business rule blocked the request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}
