package handler

// GenerateKeysResponse carries freshly issued consumer credentials. The
// secret appears here and nowhere else.
type GenerateKeysResponse struct {
	Name      string `json:"name"`
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	Message   string `json:"message"`
}
