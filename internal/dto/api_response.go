package dto

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Success(message string, data any) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

func Failure(message string) APIResponse {
	return APIResponse{Success: false, Message: message}
}
