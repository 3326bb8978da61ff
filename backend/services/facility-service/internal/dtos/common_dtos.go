package dtos

// Generic confirmation response.
type ConfirmationResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
