package config

import "time"

// DefaultConfig returns the full default configuration. SQLite keeps the
// zero-dependency development setup working out of the box.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		LLM:       DefaultLLMConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Pipeline:  DefaultPipelineConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns default listener settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}
}

// DefaultLLMConfig returns default provider settings.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:          "openai",
		BaseURL:           "https://api.openai.com",
		VisionModel:       "gpt-4o",
		TextModel:         "gpt-4o-mini",
		Timeout:           45 * time.Second,
		MaxRetries:        2,
		RequestsPerMinute: 60,
	}
}

// DefaultRedisConfig returns default cache settings. Disabled by default:
// the pipeline works without Redis, only slower on re-uploads.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		AnalysisTTL:  24 * time.Hour,
	}
}

// DefaultDatabaseConfig returns default persistence settings.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:  "sqlite",
		Path:    "greenlight.db",
		Host:    "localhost",
		Port:    5432,
		User:    "greenlight",
		Name:    "greenlight",
		SSLMode: "disable",
	}
}

// DefaultPipelineConfig returns default pipeline tuning.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxPromptTokens: 1200,
		SceneDuration:   4,
		AnalysisTimeout: 45 * time.Second,
	}
}

// DefaultLogConfig returns default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

// DefaultTelemetryConfig returns default telemetry settings.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "greenlight",
		SampleRate:   1.0,
	}
}
