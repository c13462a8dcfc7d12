package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"outreachly/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// ExternalAPIConfig holds the credentials for the third-party APIs the
// service proxies and health-checks.
type ExternalAPIConfig struct {
	AnthropicKey string `json:"-"`
	ResendKey    string `json:"-"`
	CalendlyKey  string `json:"-"`
	NotionKey    string `json:"-"`
}

type Config struct {
	Environment    string            `json:"environment"`
	ServerPort     string            `json:"server_port"`
	Version        string            `json:"version"`
	EncryptionKey  string            `json:"-"`
	TrackingBase   string            `json:"tracking_base"`
	DBHost         string            `json:"db_host"`
	DBPort         string            `json:"db_port"`
	DBUser         string            `json:"db_user"`
	DBPassword     string            `json:"-"`
	DBName         string            `json:"db_name"`
	DBSSLMode      string            `json:"db_ssl_mode"`
	DBMaxIdleConns int               `json:"db_max_idle_conns"`
	DBMaxOpenConns int               `json:"db_max_open_conns"`
	SentryDSN      string            `json:"-"`
	Redis          RedisConfig       `json:"redis"`
	External       ExternalAPIConfig `json:"-"`

	RateLimitDomainTest int `json:"rate_limit_domain_test"`

	// Per-dependency deadline for the composite health check
	ProbeTimeout time.Duration `json:"probe_timeout"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		Version:        getEnv("APP_VERSION", "1.0.0"),
		EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
		TrackingBase:   getEnv("TRACKING_BASE_URL", "http://localhost:5000"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "outreachly"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ADDRESS", "") != "",
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		External: ExternalAPIConfig{
			AnthropicKey: getEnv("ANTHROPIC_API_KEY", ""),
			ResendKey:    getEnv("RESEND_API_KEY", ""),
			CalendlyKey:  getEnv("CALENDLY_API_KEY", ""),
			NotionKey:    getEnv("NOTION_API_KEY", ""),
		},
		RateLimitDomainTest: getEnvAsInt("RATE_LIMIT_DOMAIN_TEST", 5),
		ProbeTimeout:        time.Duration(getEnvAsInt("PROBE_TIMEOUT_SECONDS", 5)) * time.Second,
	}

	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("Successfully connected to the database")
	log.Println("Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("External APIs: Anthropic(%t), Resend(%t), Calendly(%t), Notion(%t)",
		AppConfig.External.AnthropicKey != "",
		AppConfig.External.ResendKey != "",
		AppConfig.External.CalendlyKey != "",
		AppConfig.External.NotionKey != "")
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Workspace{},
		&models.CrmSettings{},
		&models.EmailSequence{},
		&models.SendingDomain{},
		&models.InboxMessage{},
		&models.Touchpoint{},
		&models.EmailEvent{},
	)
}
