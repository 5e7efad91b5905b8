package models

// Voice identifies one synthesis voice offered by a provider.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
