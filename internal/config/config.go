package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ocrtranslate/internal/logger"
)

// ErrConfigIncomplete marks a configuration that is usable but lacks the
// cloud translation credentials. It is reported, never returned by Load.
var ErrConfigIncomplete = errors.New("translation API credentials not configured")

// Recognition engines understood by OCR_ENGINE.
const (
	EngineTesseract = "tesseract"
	EngineVision    = "vision"
	EnginePaddle    = "paddle"
)

// Preprocessing modes understood by OCR_PREPROCESS.
const (
	PreprocessAuto = "auto"
	PreprocessOn   = "on"
	PreprocessOff  = "off"
)

type Config struct {
	// Cloud translation API
	BaiduAppID     string
	BaiduSecretKey string
	BaiduAPIURL    string
	BaiduTimeout   time.Duration
	TranslateFrom  string
	TranslateTo    string

	// Recognition
	OCRLanguage         string
	OCREngine           string
	ConfidenceThreshold float64
	Preprocess          string
	PaddleOCRURL        string

	// Local language model (OpenAI-compatible endpoint)
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	LLMFixOCR  bool

	// Translation cache
	CacheRedisURL string
	CacheTTL      time.Duration

	// Optional Google Sheets journal of translated blocks
	SheetsURL string
	SheetsTab string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// fileConfig is the optional JSON overlay. Only fields the environment left
// empty are taken from it.
type fileConfig struct {
	BaiduAppID     string `json:"baidu_appid"`
	BaiduSecretKey string `json:"baidu_secret_key"`
	OCRLanguage    string `json:"ocr_language"`
	OCREngine      string `json:"ocr_engine"`
	LLMModel       string `json:"llm_model"`
	LLMBaseURL     string `json:"llm_base_url"`
}

// Load reads the configuration from the environment and then fills gaps from
// the JSON file named by CONFIG_FILE (default config.json). A missing file is
// not an error; an unreadable or malformed one is.
func Load() (*Config, error) {
	return LoadFile(getEnv("CONFIG_FILE", "config.json"))
}

// LoadFile is Load with an explicit overlay path.
func LoadFile(path string) (*Config, error) {
	config := &Config{
		BaiduAppID:          os.Getenv("BAIDU_APPID"),
		BaiduSecretKey:      os.Getenv("BAIDU_SECRET_KEY"),
		BaiduAPIURL:         getEnv("BAIDU_API_URL", "https://fanyi-api.baidu.com/api/trans/vip/translate"),
		BaiduTimeout:        getDurationEnv("BAIDU_TIMEOUT", 5*time.Second),
		TranslateFrom:       getEnv("TRANSLATE_FROM", "jp"),
		TranslateTo:         getEnv("TRANSLATE_TO", "zh"),
		OCRLanguage:         os.Getenv("OCR_LANGUAGE"),
		OCREngine:           os.Getenv("OCR_ENGINE"),
		ConfidenceThreshold: getFloatEnv("OCR_CONFIDENCE_THRESHOLD", 0.5),
		Preprocess:          getEnv("OCR_PREPROCESS", PreprocessAuto),
		PaddleOCRURL:        getEnv("PADDLEOCR_URL", "http://localhost:8080/ocr"),
		LLMBaseURL:          os.Getenv("LLM_BASE_URL"),
		LLMModel:            os.Getenv("LLM_MODEL"),
		LLMAPIKey:           getEnv("LLM_API_KEY", "ollama"),
		LLMFixOCR:           getBoolEnv("LLM_FIX_OCR", true),
		CacheRedisURL:       os.Getenv("CACHE_REDIS_URL"),
		CacheTTL:            getDurationEnv("CACHE_TTL", 24*time.Hour),
		SheetsURL:           os.Getenv("SHEETS_URL"),
		SheetsTab:           getEnv("SHEETS_TAB", "Translations"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:       getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:           getEnv("LOG_OUTPUT", "stderr"),
	}

	if path != "" {
		if err := config.overlay(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var file fileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}

	fill(&c.BaiduAppID, file.BaiduAppID)
	fill(&c.BaiduSecretKey, file.BaiduSecretKey)
	fill(&c.OCRLanguage, file.OCRLanguage)
	fill(&c.OCREngine, file.OCREngine)
	fill(&c.LLMModel, file.LLMModel)
	fill(&c.LLMBaseURL, file.LLMBaseURL)
	return nil
}

func (c *Config) applyDefaults() {
	fill(&c.OCRLanguage, "japan")
	fill(&c.OCREngine, EngineTesseract)
	fill(&c.LLMModel, "qwen2.5:7b")
	fill(&c.LLMBaseURL, "http://localhost:11434/v1")
}

// Validate checks setting ranges and enumerations.
func (c *Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("OCR_CONFIDENCE_THRESHOLD must be within [0,1], got %v", c.ConfidenceThreshold)
	}
	switch c.OCREngine {
	case EngineTesseract, EngineVision, EnginePaddle:
	default:
		return fmt.Errorf("OCR_ENGINE %q is not one of tesseract, vision, paddle", c.OCREngine)
	}
	switch c.Preprocess {
	case PreprocessAuto, PreprocessOn, PreprocessOff:
	default:
		return fmt.Errorf("OCR_PREPROCESS %q is not one of auto, on, off", c.Preprocess)
	}
	if c.BaiduTimeout <= 0 {
		return fmt.Errorf("BAIDU_TIMEOUT must be positive")
	}
	return nil
}

// CredentialsComplete reports whether both cloud translation credentials are
// present. Missing credentials degrade the remote backend instead of failing.
func (c *Config) CredentialsComplete() bool {
	return c.BaiduAppID != "" && c.BaiduSecretKey != ""
}

// CheckCredentials returns ErrConfigIncomplete when CredentialsComplete is false.
func (c *Config) CheckCredentials() error {
	if !c.CredentialsComplete() {
		return ErrConfigIncomplete
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = strings.TrimSpace(value)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
