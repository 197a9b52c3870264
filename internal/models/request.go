package models

type SaveVersionRequest struct {
	// Optional label; defaults to "Version N".
	Name string `json:"name" example:"Evening light"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
