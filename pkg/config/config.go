package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Recsys   RecsysConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// RecsysConfig holds paths and knobs for the personalization pipeline.
type RecsysConfig struct {
	ModelPath       string
	DataDir         string
	TopNCandidates  int
	SnapshotMinutes int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	topN, err := strconv.Atoi(getEnv("RECSYS_TOP_N", "500"))
	if err != nil {
		return nil, errors.New("invalid RECSYS_TOP_N")
	}

	snapshotMinutes, err := strconv.Atoi(getEnv("RECSYS_SNAPSHOT_MINUTES", "15"))
	if err != nil {
		return nil, errors.New("invalid RECSYS_SNAPSHOT_MINUTES")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "ModaMarket API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "modamarket"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Recsys: RecsysConfig{
			ModelPath:       getEnv("RECSYS_MODEL_PATH", "models/ranker_v1.json"),
			DataDir:         getEnv("RECSYS_DATA_DIR", "datasets"),
			TopNCandidates:  topN,
			SnapshotMinutes: snapshotMinutes,
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
