package models

// MessageResponse confirms a successful write.
type MessageResponse struct {
	Message string  `json:"message"`
	TrainID *string `json:"train_id,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func NewErrorResponse(detail string) ErrorResponse {
	return ErrorResponse{Detail: detail}
}
