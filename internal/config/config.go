package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Rewards carries the points and discount policy constants.
type Rewards struct {
	PointsPerEuro    int64         // points earned per euro of a verified rental
	CompletionBonus  int64         // flat bonus on top of the per-euro points
	DiscountValidity time.Duration // lifetime of a minted discount code
	ReconcileGrace   time.Duration // how long past expiry before the confirmation flow is offered
	CodeAttempts     int           // bounded retries for unique code generation
}

// Tier is one (points required, reward) pair of the redemption table.
type Tier struct {
	Points      int64
	RewardKind  string
	Amount      decimal.Decimal // EUR, zero for FREE_RENTAL
	Description string
}

// Config is the full runtime configuration resolved from the environment.
type Config struct {
	Port      string
	DSN       string
	JWTSecret string
	GinMode   string

	PaymentBaseURL       string
	PaymentAPIKey        string
	PaymentWebhookSecret string

	Rewards Rewards
	Tiers   []Tier
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

// Load resolves configuration from environment variables with development
// defaults. godotenv loading happens in main before this is called.
func Load() Config {
	dsn := "postgres://" + getEnv("DB_USER", "postgres") + ":" + getEnv("DB_PASSWORD", "postgres") +
		"@" + getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432") +
		"/" + getEnv("DB_NAME", "svcmoto") + "?sslmode=" + getEnv("DB_SSLMODE", "disable")

	return Config{
		Port:      getEnv("PORT", "8080"),
		DSN:       dsn,
		JWTSecret: getEnv("JWT_SECRET", ""),
		GinMode:   getEnv("GIN_MODE", "debug"),

		PaymentBaseURL:       getEnv("PAYMENT_BASE_URL", ""),
		PaymentAPIKey:        getEnv("PAYMENT_API_KEY", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),

		Rewards: Rewards{
			PointsPerEuro:    getEnvInt64("POINTS_PER_EURO", 12),
			CompletionBonus:  getEnvInt64("COMPLETION_BONUS_POINTS", 40),
			DiscountValidity: time.Duration(getEnvInt64("DISCOUNT_VALIDITY_DAYS", 30)) * 24 * time.Hour,
			ReconcileGrace:   time.Duration(getEnvInt64("RECONCILE_GRACE_MINUTES", 60)) * time.Minute,
			CodeAttempts:     10,
		},
		Tiers: DefaultTiers(),
	}
}

// DefaultTiers is the fixed redemption table. Amounts are euros.
func DefaultTiers() []Tier {
	return []Tier{
		{Points: 1875, RewardKind: "EURO_AMOUNT", Amount: decimal.NewFromInt(5), Description: "5€ discount on your next rental"},
		{Points: 3125, RewardKind: "EURO_AMOUNT", Amount: decimal.NewFromInt(10), Description: "10€ discount on your next rental"},
		{Points: 5000, RewardKind: "FREE_RENTAL", Amount: decimal.Zero, Description: "One free scooter hour"},
		{Points: 7500, RewardKind: "FREE_RENTAL", Amount: decimal.Zero, Description: "Two free premium hours"},
	}
}
