package handler

// ErrorResponse is the error payload shared by every endpoint
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// errorResponse builds an ErrorResponse with details
func errorResponse(code, message string, err error) ErrorResponse {
	resp := ErrorResponse{Code: code, Message: message}
	if err != nil {
		resp.Details = stringPtr(err.Error())
	}

	return resp
}
