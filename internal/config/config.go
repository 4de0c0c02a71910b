package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Referral ReferralConfig `mapstructure:"referral"`
	Games    GamesConfig    `mapstructure:"games"`
	LogLevel string         `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type WalletConfig struct {
	MinDeposit       float64 `mapstructure:"min_deposit"`
	MinWithdrawal    float64 `mapstructure:"min_withdrawal"`
	WithdrawalFeePct float64 `mapstructure:"withdrawal_fee_pct"`
	SupportPhone     string  `mapstructure:"support_phone"`
}

type ReferralConfig struct {
	BonusAmount float64 `mapstructure:"bonus_amount"`
}

type GamesConfig struct {
	Crash CrashConfig `mapstructure:"crash"`
	Color ColorConfig `mapstructure:"color"`
	Race  RaceConfig  `mapstructure:"race"`
}

// CrashTier is one slice of the crash-point distribution: with Probability
// mass, the crash point falls uniformly in [Min, Max). Tier probabilities
// must sum to 1; the house edge is expressed entirely through how much mass
// sits in the low tiers.
type CrashTier struct {
	Probability float64 `mapstructure:"probability"`
	Min         float64 `mapstructure:"min"`
	Max         float64 `mapstructure:"max"`
}

type CrashConfig struct {
	Tiers          []CrashTier   `mapstructure:"tiers"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	MultiplierStep float64       `mapstructure:"multiplier_step"`
	BettingWindow  time.Duration `mapstructure:"betting_window"`
	ResultDelay    time.Duration `mapstructure:"result_delay"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	MinBet         float64       `mapstructure:"min_bet"`
	MaxBet         float64       `mapstructure:"max_bet"`
}

type ColorConfig struct {
	Colors            []string           `mapstructure:"colors"`
	Weights           map[string]float64 `mapstructure:"weights"`
	ColorMultipliers  map[string]float64 `mapstructure:"color_multipliers"`
	NumberRange       int                `mapstructure:"number_range"`
	NumberMultiplier  float64            `mapstructure:"number_multiplier"`
	JackpotMultiplier float64            `mapstructure:"jackpot_multiplier"`
	BettingWindow     time.Duration      `mapstructure:"betting_window"`
	ResultDelay       time.Duration      `mapstructure:"result_delay"`
	Cooldown          time.Duration      `mapstructure:"cooldown"`
	MinBet            float64            `mapstructure:"min_bet"`
	MaxBet            float64            `mapstructure:"max_bet"`
}

type RaceCompetitor struct {
	Name       string  `mapstructure:"name"`
	Weight     float64 `mapstructure:"weight"`
	Multiplier float64 `mapstructure:"multiplier"`
}

type RaceConfig struct {
	Competitors   []RaceCompetitor `mapstructure:"competitors"`
	BettingWindow time.Duration    `mapstructure:"betting_window"`
	ResultDelay   time.Duration    `mapstructure:"result_delay"`
	Cooldown      time.Duration    `mapstructure:"cooldown"`
	MinBet        float64          `mapstructure:"min_bet"`
	MaxBet        float64          `mapstructure:"max_bet"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("postgres.dsn", "host=localhost user=casino password=casino dbname=casino port=5432 sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("wallet.min_deposit", 100.0)
	v.SetDefault("wallet.min_withdrawal", 200.0)
	v.SetDefault("wallet.withdrawal_fee_pct", 0.02)
	v.SetDefault("wallet.support_phone", "918826817677")

	v.SetDefault("referral.bonus_amount", 500.0)

	v.SetDefault("games.crash.tiers", []map[string]interface{}{
		{"probability": 0.98, "min": 1.0, "max": 1.5},
		{"probability": 0.015, "min": 1.5, "max": 3.0},
		{"probability": 0.005, "min": 3.0, "max": 100.0},
	})
	v.SetDefault("games.crash.tick_interval", 100*time.Millisecond)
	v.SetDefault("games.crash.multiplier_step", 0.01)
	v.SetDefault("games.crash.betting_window", 10*time.Second)
	v.SetDefault("games.crash.result_delay", 3*time.Second)
	v.SetDefault("games.crash.cooldown", 2*time.Second)
	v.SetDefault("games.crash.min_bet", 10.0)
	v.SetDefault("games.crash.max_bet", 10000.0)

	v.SetDefault("games.color.colors", []string{"green", "red", "violet"})
	v.SetDefault("games.color.weights", map[string]float64{"green": 0.45, "red": 0.45, "violet": 0.10})
	v.SetDefault("games.color.color_multipliers", map[string]float64{"green": 2.0, "red": 2.0, "violet": 50.0})
	v.SetDefault("games.color.number_range", 10)
	v.SetDefault("games.color.number_multiplier", 10.0)
	v.SetDefault("games.color.jackpot_multiplier", 100.0)
	v.SetDefault("games.color.betting_window", 10*time.Second)
	v.SetDefault("games.color.result_delay", 3*time.Second)
	v.SetDefault("games.color.cooldown", 2*time.Second)
	v.SetDefault("games.color.min_bet", 10.0)
	v.SetDefault("games.color.max_bet", 10000.0)

	v.SetDefault("games.race.competitors", []map[string]interface{}{
		{"name": "red", "weight": 0.45, "multiplier": 2.0},
		{"name": "blue", "weight": 0.30, "multiplier": 3.0},
		{"name": "green", "weight": 0.17, "multiplier": 5.0},
		{"name": "yellow", "weight": 0.08, "multiplier": 10.0},
	})
	v.SetDefault("games.race.betting_window", 15*time.Second)
	v.SetDefault("games.race.result_delay", 5*time.Second)
	v.SetDefault("games.race.cooldown", 3*time.Second)
	v.SetDefault("games.race.min_bet", 10.0)
	v.SetDefault("games.race.max_bet", 10000.0)
}

// Load reads config.yaml (path optional) with environment overrides, e.g.
// CASINO_POSTGRES_DSN overrides postgres.dsn.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CASINO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
