package response

type ProfileResponse struct {
	OwnerID string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}
