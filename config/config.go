package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4280"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Google Maps / Places
	MapsBaseURL string `envconfig:"MAPS_BASE_URL" default:"https://maps.googleapis.com/maps/api"`
	MapsAPIKey  string `envconfig:"MAPS_API_KEY" required:"true"`

	// OpenAI
	OpenAIAPIKey      string  `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel       string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAITemperature float32 `envconfig:"OPENAI_TEMPERATURE" default:"0.7"`
	OpenAIMaxTokens   int     `envconfig:"OPENAI_MAX_TOKENS" default:"2000"`

	// Pipeline-Verhalten
	MaxCompetitors      int `envconfig:"MAX_COMPETITORS" default:"5"`
	StageTimeoutSeconds int `envconfig:"STAGE_TIMEOUT_SECONDS" default:"60"`
	FetchTimeoutSeconds int `envconfig:"FETCH_TIMEOUT_SECONDS" default:"20"`

	// Outbound-Drosselung (Requests pro Sekunde, 0 = unbegrenzt)
	MapsRPS  float64 `envconfig:"MAPS_RPS" default:"10"`
	FetchRPS float64 `envconfig:"FETCH_RPS" default:"4"`

	// Watchdog: Analysen, die länger als diese Dauer in einem aktiven
	// Zustand hängen, werden auf failed gesetzt.
	WatchdogSchedule   string `envconfig:"WATCHDOG_SCHEDULE" default:"*/10 * * * *"`
	WatchdogMaxMinutes int    `envconfig:"WATCHDOG_MAX_MINUTES" default:"30"`

	// S3 für Report-Exporte
	ReportS3Key      string `envconfig:"REPORT_S3_KEY"`
	ReportS3Secret   string `envconfig:"REPORT_S3_SECRET"`
	ReportS3URL      string `envconfig:"REPORT_S3_URL"`
	ReportS3Region   string `envconfig:"REPORT_S3_REGION" default:"eu-central-1"`
	ReportS3Bucket   string `envconfig:"REPORT_S3_BUCKET"`
	ReportS3Disabled bool   `envconfig:"REPORT_S3_DISABLED" default:"false"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// StageTimeout gibt das Timeout für eine einzelne Pipeline-Stage zurück.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.StageTimeoutSeconds) * time.Second
}

// FetchTimeout gibt das Timeout für einzelne HTML-Abrufe zurück.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
