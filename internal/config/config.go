package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	JWTSecret          string
	MongoURI           string
	DBName             string
	SkipAuth           bool
	Environment        string
	AppId              string
	EscalationSchedule string // cron expression driving the escalation scan
	DefaultAssignee    string // fallback identity when a role pool is empty
	WorkflowDueDays    int    // default due window for new workflow instances
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:             getEnv("DB_NAME", "kademe-kys"),
		SkipAuth:           getEnv("SKIP_AUTH", "false") == "true",
		Environment:        getEnv("ENVIRONMENT", "development"),
		AppId:              getEnv("APP_ID", "kademe-kys"),
		EscalationSchedule: getEnv("ESCALATION_SCHEDULE", "@every 30m"),
		DefaultAssignee:    getEnv("DEFAULT_ASSIGNEE", "quality-manager"),
		WorkflowDueDays:    getEnvInt("WORKFLOW_DUE_DAYS", 30),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
