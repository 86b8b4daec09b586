package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	SocketURL      string
	Environment    string
	RequestTimeout int64 // seconds

	// Dev server settings, unused by the client SDK itself.
	DevServerPort string
	DevJWTSecret  string
	DevUploadDir  string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:3000/api"),
		SocketURL:      getEnv("SOCKET_URL", "ws://localhost:3000/ws"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		RequestTimeout: getEnvAsInt64("REQUEST_TIMEOUT", 15),
		DevServerPort:  getEnv("DEV_SERVER_PORT", "3000"),
		DevJWTSecret:   getEnv("DEV_JWT_SECRET", "dev-secret-key"),
		DevUploadDir:   getEnv("DEV_UPLOAD_DIR", "./uploads"),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
