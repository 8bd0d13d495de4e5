package region

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"ocrtranslate/internal/cache"
	"ocrtranslate/internal/config"
	"ocrtranslate/internal/logger"
	"ocrtranslate/internal/ocr"
	"ocrtranslate/internal/sheets"
	"ocrtranslate/internal/translation"
)

// Recognizer turns a screenshot into confidence-filtered text items. It never
// fails; problems yield an empty slice. *ocr.Adapter implements it.
type Recognizer interface {
	Available() bool
	EngineName() string
	RecognizeFile(ctx context.Context, path string) []ocr.TextItem
	Close() error
}

// Journal records finished translations. *sheets.Journal implements it.
type Journal interface {
	Append(ctx context.Context, rows []sheets.Row) error
}

// Options override configuration values for one process.
type Options struct {
	ConfigFile string   // JSON overlay path; empty uses CONFIG_FILE
	Engine     string   // recognition engine; empty keeps the configured one
	Threshold  *float64 // confidence threshold; nil keeps the configured one
	Preprocess string   // auto, on or off; empty keeps the configured one
	NoLLM      bool     // leave the local model backend out of the chain
	SheetURL   string   // Google Sheet journal; empty keeps the configured one
}

// Services holds the process-lifetime dependencies of the orchestrator:
// configuration, recognizer, translation cache and the ordered backend
// chain. They are built on the first successful Init and never replaced.
type Services struct {
	opts Options
	log  zerolog.Logger

	mu          sync.Mutex
	initialized bool

	config     *config.Config
	recognizer Recognizer
	cache      cache.Cache
	backends   []translation.Backend
	journal    Journal

	loadConfig    func(path string) (*config.Config, error)
	newRecognizer func(ctx context.Context, cfg *config.Config) (Recognizer, error)
	newCache      func(ctx context.Context, cfg *config.Config) cache.Cache
	newBackends   func(ctx context.Context, cfg *config.Config, c cache.Cache) []translation.Backend
	newJournal    func(ctx context.Context, cfg *config.Config) Journal
	setupLogger   func(logger.LogConfig) error
}

// NewServices returns an uninitialized context. Nothing is built until Init.
func NewServices(opts Options) *Services {
	s := &Services{
		opts: opts,
		log:  logger.WithComponent("services"),
	}
	s.loadConfig = loadConfig
	s.newRecognizer = s.buildRecognizer
	s.newCache = s.buildCache
	s.newBackends = s.buildBackends
	s.newJournal = s.buildJournal
	s.setupLogger = logger.Setup
	return s
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// Init builds every dependency once. Later calls return immediately. A failed
// Init leaves the context unset so the next call tries again. Init is safe
// for concurrent use.
func (s *Services) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	cfg, err := s.loadConfig(s.opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := s.applyOptions(cfg); err != nil {
		return err
	}

	// The startup logger was configured before --config was known.
	if err := s.setupLogger(cfg.GetLoggerConfig()); err != nil {
		s.log.Warn().Err(err).Msg("Keeping startup logger configuration")
	} else {
		s.log = logger.WithComponent("services")
	}
	if err := cfg.CheckCredentials(); err != nil {
		s.log.Warn().Err(err).Msg("Remote translation will answer with a configuration notice")
	}

	recognizer, err := s.newRecognizer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create recognizer: %w", err)
	}

	c := s.newCache(ctx, cfg)
	backends := s.newBackends(ctx, cfg, c)
	if len(backends) == 0 {
		_ = recognizer.Close()
		if c != nil {
			_ = c.Close()
		}
		return ErrNoBackend
	}

	s.config = cfg
	s.recognizer = recognizer
	s.cache = c
	s.backends = backends
	s.journal = s.newJournal(ctx, cfg)
	s.initialized = true

	event := s.log.Info().
		Str("engine", recognizer.EngineName()).
		Bool("engine_available", recognizer.Available())
	for _, b := range backends {
		event = event.Bool(b.Name()+"_available", b.Available())
	}
	event.Msg("Services initialized")
	return nil
}

func (s *Services) applyOptions(cfg *config.Config) error {
	if s.opts.Engine != "" {
		cfg.OCREngine = s.opts.Engine
	}
	if s.opts.Threshold != nil {
		cfg.ConfidenceThreshold = *s.opts.Threshold
	}
	if s.opts.Preprocess != "" {
		cfg.Preprocess = s.opts.Preprocess
	}
	if s.opts.SheetURL != "" {
		cfg.SheetsURL = s.opts.SheetURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func (s *Services) buildRecognizer(ctx context.Context, cfg *config.Config) (Recognizer, error) {
	engine, err := ocr.NewEngine(ctx, ocr.EngineOptions{
		Name:      cfg.OCREngine,
		Language:  cfg.OCRLanguage,
		PaddleURL: cfg.PaddleOCRURL,
	})
	if engine == nil {
		return nil, err
	}
	if err != nil {
		s.log.Warn().Err(err).Str("engine", cfg.OCREngine).Msg("Recognition engine initialization failed")
	}

	return ocr.NewAdapter(engine, ocr.AdapterConfig{
		Threshold:  cfg.ConfidenceThreshold,
		Preprocess: preprocessEnabled(cfg.Preprocess, engine.Name()),
	}), nil
}

// preprocessEnabled resolves a preprocess mode for the named engine.
func preprocessEnabled(mode, engine string) bool {
	switch mode {
	case config.PreprocessOn:
		return true
	case config.PreprocessOff:
		return false
	default:
		return !ocr.CompensatesInternally(engine)
	}
}

func (s *Services) buildCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.CacheRedisURL != "" {
		r, err := cache.NewRedis(ctx, cfg.CacheRedisURL, cfg.CacheTTL)
		if err == nil {
			s.log.Debug().Msg("Using Redis translation cache")
			return r
		}
		s.log.Warn().Err(err).Msg("Redis cache unavailable, using in-memory cache")
	}
	return cache.NewMemory(cfg.CacheTTL)
}

// buildBackends returns the preference-ordered chain: the local model first
// unless disabled, the remote API last.
func (s *Services) buildBackends(ctx context.Context, cfg *config.Config, c cache.Cache) []translation.Backend {
	var backends []translation.Backend
	if !s.opts.NoLLM {
		backends = append(backends, translation.NewLLMBackend(ctx, translation.LLMConfig{
			BaseURL:        cfg.LLMBaseURL,
			Model:          cfg.LLMModel,
			APIKey:         cfg.LLMAPIKey,
			SourceLanguage: cfg.TranslateFrom,
			TargetLanguage: cfg.TranslateTo,
			FixOCR:         cfg.LLMFixOCR,
		}, c))
	}
	backends = append(backends, translation.NewBaiduBackend(translation.BaiduConfig{
		AppID:     cfg.BaiduAppID,
		SecretKey: cfg.BaiduSecretKey,
		APIURL:    cfg.BaiduAPIURL,
		From:      cfg.TranslateFrom,
		To:        cfg.TranslateTo,
		Timeout:   cfg.BaiduTimeout,
	}, c))
	return backends
}

// buildJournal connects the Google Sheets journal when one is configured. A
// journal that cannot be set up is skipped.
func (s *Services) buildJournal(ctx context.Context, cfg *config.Config) Journal {
	if cfg.SheetsURL == "" {
		return nil
	}
	j, err := sheets.NewJournal(ctx, cfg.SheetsURL, cfg.SheetsTab)
	if err != nil {
		s.log.Warn().Err(err).Msg("Translation journal disabled")
		return nil
	}
	return j
}

// Config returns the loaded configuration, or nil before Init.
func (s *Services) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Recognizer returns the recognizer, or nil before Init.
func (s *Services) Recognizer() Recognizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recognizer
}

// Backends returns the backend chain in preference order, or nil before Init.
func (s *Services) Backends() []translation.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backends
}

// Journal returns the translation journal, or nil when none is configured.
func (s *Services) Journal() Journal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journal
}

// Close releases the recognizer and the cache.
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.recognizer != nil {
		errs = append(errs, s.recognizer.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	return errors.Join(errs...)
}
