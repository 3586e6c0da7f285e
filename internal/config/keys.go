package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "SHOPBOT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.max_connections", typ: kInt, env: "SHOPBOT_SERVER_MAX_CONNECTIONS",
		apply:   func(cfg *Config, v any) { cfg.Server.MaxConnections = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MaxConnections },
	},
	{
		key: "server.api_token", typ: kString, env: "SHOPBOT_API_TOKEN",
		secret: true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "ollama.base_url", typ: kString, env: "SHOPBOT_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.embed_model", typ: kString, env: "SHOPBOT_OLLAMA_EMBED_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.EmbedModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.EmbedModel },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SHOPBOT_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "SHOPBOT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "nlu.low_confidence_threshold", typ: kFloat, env: "SHOPBOT_NLU_LOW_CONFIDENCE_THRESHOLD",
		apply:   func(cfg *Config, v any) { cfg.NLU.LowConfidenceThreshold = v.(float64) },
		extract: func(cfg Config) any { return cfg.NLU.LowConfidenceThreshold },
	},
	{
		key: "nlu.semantic_enabled", typ: kBool, env: "SHOPBOT_NLU_SEMANTIC_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.NLU.SemanticEnabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.NLU.SemanticEnabled },
	},
	{
		key: "session.continuation_threshold", typ: kFloat, env: "SHOPBOT_SESSION_CONTINUATION_THRESHOLD",
		apply:   func(cfg *Config, v any) { cfg.Session.ContinuationThreshold = v.(float64) },
		extract: func(cfg Config) any { return cfg.Session.ContinuationThreshold },
	},
	{
		key: "session.ttl", typ: kString, env: "SHOPBOT_SESSION_TTL",
		apply:   func(cfg *Config, v any) { cfg.Session.TTL = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.TTL },
	},
	{
		key: "session.store", typ: kString, env: "SHOPBOT_SESSION_STORE",
		apply:   func(cfg *Config, v any) { cfg.Session.Store = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.Store },
	},
	{
		key: "extract.min_product_id_digits", typ: kInt, env: "SHOPBOT_EXTRACT_MIN_PRODUCT_ID_DIGITS",
		apply:   func(cfg *Config, v any) { cfg.Extract.MinProductIDDigits = v.(int) },
		extract: func(cfg Config) any { return cfg.Extract.MinProductIDDigits },
	},
	{
		key: "extract.default_country", typ: kString, env: "SHOPBOT_EXTRACT_DEFAULT_COUNTRY",
		apply:   func(cfg *Config, v any) { cfg.Extract.DefaultCountry = v.(string) },
		extract: func(cfg Config) any { return cfg.Extract.DefaultCountry },
	},
	{
		key: "extract.default_zip", typ: kString, env: "SHOPBOT_EXTRACT_DEFAULT_ZIP",
		apply:   func(cfg *Config, v any) { cfg.Extract.DefaultZip = v.(string) },
		extract: func(cfg Config) any { return cfg.Extract.DefaultZip },
	},
	{
		key: "extract.ner_enabled", typ: kBool, env: "SHOPBOT_EXTRACT_NER_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Extract.NEREnabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Extract.NEREnabled },
	},
	{
		key: "search.default_page_size", typ: kInt, env: "SHOPBOT_SEARCH_DEFAULT_PAGE_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Search.DefaultPageSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Search.DefaultPageSize },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
