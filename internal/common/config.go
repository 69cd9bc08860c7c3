package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
)

// Config holds all application configuration
type Config struct {
	Extraction ExtractionConfig
	Vision     VisionConfig
	OCR        OCRConfig
	Store      StoreConfig
}

// ExtractionConfig selects the tier policy and input bounds.
type ExtractionConfig struct {
	Method      string // vision | heuristic | hybrid
	MaxFileSize int64
	ArtifactDir string
}

// VisionConfig holds the vision-inference tier credentials. An empty APIKey
// is a configuration state, not an error: the tier is simply skipped.
type VisionConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OCRConfig holds local text-recognition settings.
type OCRConfig struct {
	Tesseract   string // binary name or absolute path
	Lang        string
	TessdataDir string
	DPI         int
	PSM         int
	MaxPages    int
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	DSN string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			Method:      getEnv("EXTRACTION_METHOD", constants.ExtractionHybrid),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", constants.MaxFileSizeBytes),
			ArtifactDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
		},
		Vision: VisionConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Lang:        getEnv("TESSERACT_LANG", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			PSM:         getEnvAsInt("OCR_PSM", 6),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 5),
		},
		Store: StoreConfig{
			DSN: getEnv("RECEIPTS_DB", "file:receipts.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Extraction.Method {
	case constants.ExtractionVision, constants.ExtractionHeuristic, constants.ExtractionHybrid:
	default:
		return NewAppError("CONFIG_ERROR",
			fmt.Sprintf("EXTRACTION_METHOD must be one of vision|heuristic|hybrid, got %q", c.Extraction.Method),
			ErrInvalidInput)
	}
	if c.Extraction.MaxFileSize <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_FILE_SIZE must be positive", ErrInvalidInput)
	}
	if c.Store.DSN == "" {
		return NewAppError("CONFIG_ERROR", "RECEIPTS_DB is required", ErrInvalidInput)
	}
	return nil
}
