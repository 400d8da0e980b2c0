package utilities

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel defines the severity of a log message.
type LogLevel int

// Logging Level
const (
	Debug LogLevel = iota
	Info
	Warn
	Error
	Fatal
)

// --- Types (Alphabetized) ---

// AppConfig is the root configuration structure, holding all other config sections.
type AppConfig struct {
	AppName   string           `mapstructure:"app_name"`
	Version   string           `mapstructure:"version"`
	Cache     CacheConfig      `mapstructure:"cache"`
	Coingecko *CoingeckoConfig `mapstructure:"coingecko"`
	Favorites FavoritesConfig  `mapstructure:"favorites"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Refresh   RefreshConfig    `mapstructure:"refresh"`
	Web       WebConfig        `mapstructure:"web"`
}

// CacheConfig holds settings for the query cache and the on-disk chart cache.
type CacheConfig struct {
	TTLSec             int    `mapstructure:"ttl_sec"`
	DBPath             string `mapstructure:"database_path"`
	RetentionDays      int    `mapstructure:"retention_days"`
	CleanupIntervalMin int    `mapstructure:"cleanup_interval_min"`
}

// CoingeckoConfig holds settings for the CoinGecko data provider.
type CoingeckoConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	APIKey            string  `mapstructure:"api_key"`
	QuoteCurrency     string  `mapstructure:"quote_currency"`
	RequestTimeoutSec int     `mapstructure:"request_timeout_sec"`
	RateLimitPerSec   float64 `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst    int     `mapstructure:"rate_limit_burst"`
	MarketPageSize    int     `mapstructure:"market_page_size"`
}

// FavoritesConfig holds settings for the persisted favorites set.
type FavoritesConfig struct {
	FilePath string `mapstructure:"file_path"`
}

// LoggingConfig holds settings related to logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// RefreshConfig holds settings for the background market refresher.
type RefreshConfig struct {
	IntervalSec int `mapstructure:"interval_sec"`
	DebounceMs  int `mapstructure:"debounce_ms"`
}

// WebConfig holds settings for the web dashboard.
type WebConfig struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	TemplateDir string `mapstructure:"template_dir"`
	StaticDir   string `mapstructure:"static_dir"`
}

// Debouncer coalesces bursts of Trigger calls into a single callback invocation
// per quiet window. Each Trigger cancels any pending timer and arms a new one, so
// the callback fires at most once per window and observes only the latest value.
type Debouncer[T any] struct {
	mu     sync.Mutex
	window time.Duration
	fn     func(T)
	timer  *time.Timer
	latest T
}

// NewDebouncer creates a Debouncer that invokes fn after window of quiet.
func NewDebouncer[T any](window time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{window: window, fn: fn}
}

// Trigger records value and re-arms the debounce timer.
func (d *Debouncer[T]) Trigger(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest = value
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	v := d.latest
	d.timer = nil
	d.mu.Unlock()
	d.fn(v)
}

// Stop cancels any pending invocation without firing it.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Logger provides a structured logger with different levels.
type Logger struct {
	Level  LogLevel
	Logger *log.Logger
}

// NewLogger creates a new Logger instance.
func NewLogger(level LogLevel) *Logger {
	return &Logger{
		Level:  level,
		Logger: log.New(os.Stdout, "[cointrack] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// LogDebug logs a message at Debug level.
func (l *Logger) LogDebug(format string, v ...interface{}) {
	if l.Level <= Debug {
		_ = l.Logger.Output(2, fmt.Sprintf("[DEBUG] "+format, v...))
	}
}

// LogError logs a message at Error level.
func (l *Logger) LogError(format string, v ...interface{}) {
	if l.Level <= Error {
		_ = l.Logger.Output(2, fmt.Sprintf("[ERROR] "+format, v...))
	}
}

// LogFatal logs a message at Fatal level and then calls os.Exit(1).
func (l *Logger) LogFatal(format string, v ...interface{}) {
	_ = l.Logger.Output(2, fmt.Sprintf("[FATAL] "+format, v...))
	os.Exit(1)
}

// LogInfo logs a message at Info level.
func (l *Logger) LogInfo(format string, v ...interface{}) {
	if l.Level <= Info {
		_ = l.Logger.Output(2, fmt.Sprintf("[INFO] "+format, v...))
	}
}

// LogWarn logs a message at Warn level.
func (l *Logger) LogWarn(format string, v ...interface{}) {
	if l.Level <= Warn {
		_ = l.Logger.Output(2, fmt.Sprintf("[WARN] "+format, v...))
	}
}

// SetLogLevel updates the logging level of the logger.
func (l *Logger) SetLogLevel(level LogLevel) {
	l.Level = level
}

// --- Standalone Functions ---

// ParseLogLevel converts a string log level to the LogLevel type.
func ParseLogLevel(levelStr string) (LogLevel, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	case "fatal":
		return Fatal, nil
	default:
		return Info, fmt.Errorf("invalid log level string: %s", levelStr)
	}
}
