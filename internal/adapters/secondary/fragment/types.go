package fragment

type orderStarsRequest struct {
	Username string `json:"username"`
	Quantity int64  `json:"quantity"`
}

type orderResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
