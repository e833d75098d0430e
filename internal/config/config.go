package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment with
// an optional .env file on top.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	SonarAPIKey  string
	SonarModel   string
	SonarBaseURL string

	// VerifyInterval is the minimum spacing between verification calls.
	VerifyInterval time.Duration
	// GenRetries bounds re-attempts per primary generation call.
	GenRetries int

	CustomizeDSN       string
	CustomizationsPath string

	ArtifactEndpoint  string
	ArtifactRegion    string
	ArtifactAccessKey string
	ArtifactSecretKey string
	ArtifactBucket    string
	ArtifactUseSSL    bool

	Addr        string
	ProfilePath string
}

// Load reads configuration. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		SonarAPIKey:  firstNonEmpty(os.Getenv("SONAR_API_KEY"), os.Getenv("PERPLEXITY_API_KEY")),
		SonarModel:   getenv("SONAR_MODEL", "sonar"),
		SonarBaseURL: os.Getenv("SONAR_BASE_URL"),

		VerifyInterval: time.Duration(getenvInt("SONAR_CALL_INTERVAL_SECONDS", 2)) * time.Second,
		GenRetries:     getenvInt("GENERATION_RETRIES", 2),

		CustomizeDSN:       firstNonEmpty(os.Getenv("CUSTOMIZE_PG_DSN"), os.Getenv("DATABASE_URL")),
		CustomizationsPath: getenv("CUSTOMIZATIONS_PATH", "customizations.json"),

		ArtifactEndpoint:  os.Getenv("ARTIFACT_S3_ENDPOINT"),
		ArtifactRegion:    os.Getenv("ARTIFACT_S3_REGION"),
		ArtifactAccessKey: os.Getenv("ARTIFACT_S3_ACCESS_KEY"),
		ArtifactSecretKey: os.Getenv("ARTIFACT_S3_SECRET_KEY"),
		ArtifactBucket:    getenv("ARTIFACT_S3_BUCKET", "personas"),
		ArtifactUseSSL:    getenvBool("ARTIFACT_S3_USE_SSL", false),

		Addr:        getenv("LISTEN_ADDR", ":8080"),
		ProfilePath: os.Getenv("COMPANY_PROFILE_PATH"),
	}
}

// ArtifactConfigured reports whether the persona archive is wired.
func (c *Config) ArtifactConfigured() bool {
	return c.ArtifactEndpoint != "" && c.ArtifactAccessKey != "" && c.ArtifactSecretKey != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
