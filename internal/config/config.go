package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type EventsConfig struct {
	NATSURL       string
	SubjectPrefix string
}

type EvaluatorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ScoringWeights caps each evaluator component; the weights are business
// configuration, not code.
type ScoringWeights struct {
	Price         float64
	Experience    float64
	Technical     float64
	Documentation float64
	Reputation    float64
}

func (w ScoringWeights) MaxTotal() float64 {
	return w.Price + w.Experience + w.Technical + w.Documentation + w.Reputation
}

type ContractConfig struct {
	PenaltyMinPercent float64
	PenaltyMaxPercent float64
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Events      EventsConfig
	Evaluator   EvaluatorConfig
	Weights     ScoringWeights
	Contract    ContractConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Events: EventsConfig{
			NATSURL:       v.GetString("NATS_URL"),
			SubjectPrefix: v.GetString("EVENTS_SUBJECT_PREFIX"),
		},
		Evaluator: EvaluatorConfig{
			BaseURL: v.GetString("EVALUATOR_BASE_URL"),
			APIKey:  v.GetString("EVALUATOR_API_KEY"),
			Model:   v.GetString("EVALUATOR_MODEL"),
			Timeout: v.GetDuration("EVALUATOR_TIMEOUT"),
		},
		Weights: ScoringWeights{
			Price:         v.GetFloat64("SCORING_WEIGHT_PRICE"),
			Experience:    v.GetFloat64("SCORING_WEIGHT_EXPERIENCE"),
			Technical:     v.GetFloat64("SCORING_WEIGHT_TECHNICAL"),
			Documentation: v.GetFloat64("SCORING_WEIGHT_DOCUMENTATION"),
			Reputation:    v.GetFloat64("SCORING_WEIGHT_REPUTATION"),
		},
		Contract: ContractConfig{
			PenaltyMinPercent: v.GetFloat64("CONTRACT_PENALTY_MIN_PERCENT"),
			PenaltyMaxPercent: v.GetFloat64("CONTRACT_PENALTY_MAX_PERCENT"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "procurement"
	}
	if cfg.Evaluator.Model == "" {
		cfg.Evaluator.Model = "gpt-4o-mini"
	}
	if cfg.Evaluator.Timeout == 0 {
		cfg.Evaluator.Timeout = 20 * time.Second
	}
	if cfg.Weights == (ScoringWeights{}) {
		cfg.Weights = ScoringWeights{
			Price:         35,
			Experience:    25,
			Technical:     25,
			Documentation: 10,
			Reputation:    5,
		}
	}
	if cfg.Contract.PenaltyMinPercent == 0 {
		cfg.Contract.PenaltyMinPercent = 5
	}
	if cfg.Contract.PenaltyMaxPercent == 0 {
		cfg.Contract.PenaltyMaxPercent = 50
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Contract.PenaltyMinPercent < 0 || cfg.Contract.PenaltyMaxPercent <= cfg.Contract.PenaltyMinPercent {
		return fmt.Errorf("invalid contract penalty bounds: min=%.2f max=%.2f",
			cfg.Contract.PenaltyMinPercent, cfg.Contract.PenaltyMaxPercent)
	}
	if cfg.Weights.MaxTotal() <= 0 {
		return fmt.Errorf("scoring weights must sum to a positive total")
	}
	return nil
}
