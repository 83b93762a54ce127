package gemini

// Config contains Gemini provider configuration.
type Config struct {
	APIKey     string `env:"GEMINI_API_KEY"`
	BaseURL    string `env:"GEMINI_BASE_URL"    envDefault:"https://generativelanguage.googleapis.com"`
	APIVersion string `env:"GEMINI_API_VERSION" envDefault:"v1"`
	Model      string `env:"GEMINI_MODEL"       envDefault:"gemini-2.5-flash"`
}
