package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"remittance-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type FeeTier struct {
	Fixed   string
	Percent string
}

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port            string
	ShutdownTimeout time.Duration
	JWTSecret       string
	// Storage
	Storage     string
	DatabaseURL string
	LockTimeout time.Duration
	// Provider
	Provider         string
	ExchangeRateAPI  string
	RateFetchTimeout time.Duration
	MaxDecimalDigits int32
	// Quote
	QuoteExpirePeriod time.Duration
	FeeUSDUnder100    FeeTier
	FeeUSDOver100     FeeTier
	FeeJPY            FeeTier
	// Settlement
	DayLimitRegNo      string
	DayLimitBusinessNo string
	SettlementTimezone string
	// Redis (idempotency)
	IdempotencyBackend string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisTTL           time.Duration
	// Kafka
	KafkaBrokers []string
	KafkaTopic   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("STORAGE", "memory")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SETTLEMENT_LOCK_TIMEOUT", "5s")
	v.SetDefault("PROVIDER", "fake")
	v.SetDefault("EXCHANGE_RATE_API", "https://crix-api-cdn.upbit.com/v1/forex/recent?codes=,FRX.KRWJPY,FRX.KRWUSD")
	v.SetDefault("RATE_FETCH_TIMEOUT", "3s")
	v.SetDefault("MAX_DECIMAL_DIGITS", 12)
	v.SetDefault("QUOTE_EXPIRE_PERIOD", "10m")
	v.SetDefault("FEE_USD_UNDER_100_FIXED", "1000")
	v.SetDefault("FEE_USD_UNDER_100_PERCENT", "0.2")
	v.SetDefault("FEE_USD_OVER_100_FIXED", "3000")
	v.SetDefault("FEE_USD_OVER_100_PERCENT", "0.1")
	v.SetDefault("FEE_JPY_FIXED", "3000")
	v.SetDefault("FEE_JPY_PERCENT", "0.5")
	v.SetDefault("DAY_TRANSFER_LIMIT_REG_NO", "1000")
	v.SetDefault("DAY_TRANSFER_LIMIT_BUSINESS_NO", "5000")
	v.SetDefault("SETTLEMENT_TIMEZONE", "UTC")
	v.SetDefault("IDEMPOTENCY_BACKEND", "none")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "transfer.settled")
}

// Load reads the environment and applies defaults. The caller loads .env
// into the environment beforehand.
func Load() Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Env:                v.GetString("ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		Port:               v.GetString("PORT"),
		ShutdownTimeout:    duration(v, "SHUTDOWN_TIMEOUT", 10*time.Second),
		JWTSecret:          v.GetString("JWT_SECRET"),
		Storage:            v.GetString("STORAGE"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		LockTimeout:        duration(v, "SETTLEMENT_LOCK_TIMEOUT", 5*time.Second),
		Provider:           v.GetString("PROVIDER"),
		ExchangeRateAPI:    v.GetString("EXCHANGE_RATE_API"),
		RateFetchTimeout:   duration(v, "RATE_FETCH_TIMEOUT", 3*time.Second),
		MaxDecimalDigits:   v.GetInt32("MAX_DECIMAL_DIGITS"),
		QuoteExpirePeriod:  duration(v, "QUOTE_EXPIRE_PERIOD", 10*time.Minute),
		FeeUSDUnder100:     FeeTier{Fixed: v.GetString("FEE_USD_UNDER_100_FIXED"), Percent: v.GetString("FEE_USD_UNDER_100_PERCENT")},
		FeeUSDOver100:      FeeTier{Fixed: v.GetString("FEE_USD_OVER_100_FIXED"), Percent: v.GetString("FEE_USD_OVER_100_PERCENT")},
		FeeJPY:             FeeTier{Fixed: v.GetString("FEE_JPY_FIXED"), Percent: v.GetString("FEE_JPY_PERCENT")},
		DayLimitRegNo:      v.GetString("DAY_TRANSFER_LIMIT_REG_NO"),
		DayLimitBusinessNo: v.GetString("DAY_TRANSFER_LIMIT_BUSINESS_NO"),
		SettlementTimezone: v.GetString("SETTLEMENT_TIMEZONE"),
		IdempotencyBackend: v.GetString("IDEMPOTENCY_BACKEND"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		RedisTTL:           duration(v, "IDEMPOTENCY_TTL", 24*time.Hour),
		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:         v.GetString("KAFKA_TOPIC"),
	}
}

// duration accepts Go durations ("10m") and bare integers as milliseconds.
// Unparsable and non-positive values fall back to def.
func duration(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	var d time.Duration
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		d = time.Duration(ms) * time.Millisecond
	} else if d, err = time.ParseDuration(raw); err != nil {
		return def
	}
	if d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (t FeeTier) parse(name string) (domain.FeeTier, error) {
	fixed, err := decimal.NewFromString(t.Fixed)
	if err != nil {
		return domain.FeeTier{}, fmt.Errorf("fee %s fixed %q: %w", name, t.Fixed, err)
	}
	percent, err := decimal.NewFromString(t.Percent)
	if err != nil {
		return domain.FeeTier{}, fmt.Errorf("fee %s percent %q: %w", name, t.Percent, err)
	}
	if fixed.IsNegative() || percent.IsNegative() {
		return domain.FeeTier{}, fmt.Errorf("fee %s must not be negative", name)
	}
	return domain.FeeTier{Fixed: fixed, Percent: percent}, nil
}

func (c Config) FeeSchedule() (domain.FeeSchedule, error) {
	under, err := c.FeeUSDUnder100.parse("USD_UNDER_100")
	if err != nil {
		return domain.FeeSchedule{}, err
	}
	over, err := c.FeeUSDOver100.parse("USD_OVER_100")
	if err != nil {
		return domain.FeeSchedule{}, err
	}
	jpy, err := c.FeeJPY.parse("JPY")
	if err != nil {
		return domain.FeeSchedule{}, err
	}
	return domain.FeeSchedule{USDUnder100: under, USDOver100: over, JPY: jpy}, nil
}

// DailyLimits returns the per-class usd limits. An empty value leaves the
// class without a limit, which settlement reports as a configuration error.
func (c Config) DailyLimits() (map[domain.UserClass]decimal.Decimal, error) {
	out := map[domain.UserClass]decimal.Decimal{}
	for class, raw := range map[domain.UserClass]string{
		domain.UserClassRegNo:      c.DayLimitRegNo,
		domain.UserClassBusinessNo: c.DayLimitBusinessNo,
	} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("daily limit %s %q: %w", class, raw, err)
		}
		out[class] = d
	}
	return out, nil
}

func (c Config) Location() (*time.Location, error) {
	if c.SettlementTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.SettlementTimezone)
	if err != nil {
		return nil, fmt.Errorf("settlement timezone %q: %w", c.SettlementTimezone, err)
	}
	return loc, nil
}
