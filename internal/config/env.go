package config

import (
	"os"
	"strconv"
	"strings"
)

func applyEnv(cfg *Config) {
	e := &cfg.Engine
	e.MinFingerprintLength = getenvInt("BIDCHECK_MIN_FINGERPRINT_LENGTH", e.MinFingerprintLength)
	e.NumericMinLength = getenvInt("BIDCHECK_NUMERIC_MIN_LENGTH", e.NumericMinLength)
	e.ShortLineLength = getenvInt("BIDCHECK_SHORT_LINE_LENGTH", e.ShortLineLength)
	e.FuzzyThreshold = getenvFloat("BIDCHECK_FUZZY_THRESHOLD", e.FuzzyThreshold)
	e.TenderThreshold = getenvFloat("BIDCHECK_TENDER_THRESHOLD", e.TenderThreshold)
	e.Strategy = getenvString("BIDCHECK_STRATEGY", e.Strategy)
	e.BigramOverlap = getenvFloat("BIDCHECK_BIGRAM_OVERLAP", e.BigramOverlap)
	e.MaxCandidates = getenvInt("BIDCHECK_MAX_CANDIDATES", e.MaxCandidates)
	e.ExcludeParameterResponses = getenvBool("BIDCHECK_EXCLUDE_PARAMETER_RESPONSES", e.ExcludeParameterResponses)
	e.TimeoutSeconds = getenvInt("BIDCHECK_TIMEOUT_SECONDS", e.TimeoutSeconds)
	e.MemoryFloorMB = getenvInt("BIDCHECK_MEMORY_FLOOR_MB", e.MemoryFloorMB)

	x := &cfg.Extract
	x.Converter = getenvString("BIDCHECK_CONVERTER", x.Converter)
	x.ConverterTimeoutSeconds = getenvInt("BIDCHECK_CONVERTER_TIMEOUT_SECONDS", x.ConverterTimeoutSeconds)

	cfg.Server.Addr = getenvString("BIDCHECK_ADDR", cfg.Server.Addr)
	cfg.Server.MaxUploadMB = getenvInt("BIDCHECK_MAX_UPLOAD_MB", cfg.Server.MaxUploadMB)

	s := &cfg.Storage
	s.Workspace = getenvString("BIDCHECK_WORKSPACE", s.Workspace)
	s.Database = getenvString("BIDCHECK_DATABASE", s.Database)
	s.S3Bucket = getenvString("BIDCHECK_S3_BUCKET", s.S3Bucket)
	s.S3Prefix = getenvString("BIDCHECK_S3_PREFIX", s.S3Prefix)
	s.S3Region = getenvString("BIDCHECK_S3_REGION", s.S3Region)
	s.S3Endpoint = getenvString("BIDCHECK_S3_ENDPOINT", s.S3Endpoint)
	s.RedisAddr = getenvString("BIDCHECK_REDIS_ADDR", s.RedisAddr)
	s.RedisPassword = getenvString("BIDCHECK_REDIS_PASSWORD", s.RedisPassword)
	s.RedisDB = getenvInt("BIDCHECK_REDIS_DB", s.RedisDB)

	cfg.Logging.Level = getenvString("BIDCHECK_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getenvString("BIDCHECK_LOG_FORMAT", cfg.Logging.Format)
	cfg.Batch.Workers = getenvInt("BIDCHECK_WORKERS", cfg.Batch.Workers)
}

func getenvString(name, fallback string) string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return raw
}

func getenvInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getenvBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	return raw == "1" || raw == "true" || raw == "yes" || raw == "on"
}
