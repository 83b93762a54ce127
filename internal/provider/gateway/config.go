package gateway

// Config contains the settings of one OpenAI-compatible gateway.
type Config struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	// Referer and Title attribute traffic for gateways that rate-limit per app.
	Referer string
	Title   string
}

// OpenRouterConfig is the environment shape of the OpenRouter gateway.
type OpenRouterConfig struct {
	APIKey  string `env:"OPENROUTER_API_KEY"`
	BaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model   string `env:"OPENROUTER_MODEL"    envDefault:"meta-llama/llama-3.2-3b-instruct:free"`
	Referer string `env:"OPENROUTER_REFERER"  envDefault:"https://kind-affirmations.app"`
	Title   string `env:"OPENROUTER_TITLE"    envDefault:"Kind Affirmations"`
}

// Gateway returns the provider config registered as "openrouter".
func (c OpenRouterConfig) Gateway() Config {
	return Config{
		Name:    "openrouter",
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   c.Model,
		Referer: c.Referer,
		Title:   c.Title,
	}
}

// ProxyConfig is the environment shape of a gateway fronted by another proxy.
type ProxyConfig struct {
	APIKey  string `env:"GATEWAY_API_KEY"`
	BaseURL string `env:"GATEWAY_BASE_URL" envDefault:"https://ai.gateway.lovable.dev/v1"`
	Model   string `env:"GATEWAY_MODEL"    envDefault:"google/gemini-3-flash-preview"`
}

// Gateway returns the provider config registered as "gateway".
func (c ProxyConfig) Gateway() Config {
	return Config{
		Name:    "gateway",
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   c.Model,
	}
}
