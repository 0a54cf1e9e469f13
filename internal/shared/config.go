package shared

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	StoreDriver string // mongo | mysql | memory
	MongoURI    string
	MongoDB     string
	MySQLDSN    string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	EmailUser      string
	EmailPass      string
	SMTPHost       string
	SMTPPort       int
	RecipientEmail string
	SiteName       string

	RecaptchaSiteKey   string
	RecaptchaSecret    string
	RecaptchaVerifyURL string
	RecaptchaMinScore  float64

	ContactRateLimit       int
	ContactRateWindow      time.Duration
	ContactAllowUnverified bool

	// TrustedProxies are IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string

	ImagesDir   string
	AMQPURL     string
	AMQPQueue   string
	CORSOrigins []string

	ImportFile    string
	ImportKind    string
	ImportWorkers int
}

// Load reads the environment, after merging a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}
	dur := func(k string, def time.Duration) time.Duration {
		if v := os.Getenv(k); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a duration, using default")
		}
		return def
	}

	httpAddr := env("HTTP_ADDR", "")
	if httpAddr == "" {
		httpAddr = ":" + env("PORT", "5000")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    httpAddr,
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		StoreDriver: strings.ToLower(env("STORE_DRIVER", "mongo")),
		MongoURI:    env("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     env("MONGO_DB", "meiras"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/meiras?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		EmailUser:      env("EMAIL_USER", ""),
		EmailPass:      env("EMAIL_PASS", ""),
		SMTPHost:       env("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       atoi("SMTP_PORT", 587),
		RecipientEmail: env("RECIPIENT_EMAIL", ""),
		SiteName:       env("SITE_NAME", "meirasyachting.com"),

		RecaptchaSiteKey:   env("RECAPTCHA_SITE_KEY", ""),
		RecaptchaSecret:    env("RECAPTCHA_SECRET_KEY", ""),
		RecaptchaVerifyURL: env("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
		RecaptchaMinScore:  atof("RECAPTCHA_MIN_SCORE", 0.5),

		ContactRateLimit:       atoi("CONTACT_RATE_LIMIT", 2),
		ContactRateWindow:      dur("CONTACT_RATE_WINDOW", 5*time.Minute),
		ContactAllowUnverified: os.Getenv("CONTACT_ALLOW_UNVERIFIED") == "true",

		TrustedProxies: list(env("TRUSTED_PROXIES", "")),

		ImagesDir:   env("IMAGES_DIR", "images"),
		AMQPURL:     env("AMQP_URL", ""),
		AMQPQueue:   env("AMQP_QUEUE", "contact.submitted"),
		CORSOrigins: list(env("CORS_ORIGINS", "*")),

		ImportFile:    env("IMPORT_FILE", ""),
		ImportKind:    env("IMPORT_KIND", "yacht"),
		ImportWorkers: atoi("IMPORT_WORKERS", 8),
	}
	if c.RecipientEmail == "" {
		c.RecipientEmail = c.EmailUser
	}
	return c
}

var ErrUnverifiedContact = errors.New("RECAPTCHA_SECRET_KEY is required outside dev; set CONTACT_ALLOW_UNVERIFIED=true to accept unverified contact submissions")

func (c Config) IsDev() bool { return c.AppEnv == "dev" || c.AppEnv == "development" }

// Validate rejects settings that are only acceptable on a developer machine.
func (c Config) Validate() error {
	if c.RecaptchaSecret == "" && !c.IsDev() && !c.ContactAllowUnverified {
		return ErrUnverifiedContact
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func list(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
