package config

import "os"

// Config carries environment-driven settings for the directory service and
// for clients embedding the party coordinator.
type Config struct {
	MongoURI  string
	RedisAddr string
	HTTPPort  string

	// Client-side settings.
	DirectoryURL      string
	ServerRegion      string
	CommitVersion     string
	CommitVersionLock bool
}

func Load() *Config {
	return &Config{
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DirectoryURL:      getEnv("DIRECTORY_URL", "http://localhost:8080"),
		ServerRegion:      getEnv("SERVER_REGION", "eu"),
		CommitVersion:     getEnv("COMMIT_VERSION", ""),
		CommitVersionLock: getEnv("COMMIT_VERSION_LOCK", "") == "true",
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
