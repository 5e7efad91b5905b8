package models

type Model struct {
	Alias         string   `json:"alias"`
	Provider      string   `json:"provider"`
	ProviderModel string   `json:"provider_model"`
	Modalities    []string `json:"modalities"`
}
