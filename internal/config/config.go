package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	ServerPort     string `mapstructure:"SERVER_PORT"`
	DictionaryPath string `mapstructure:"DICTIONARY_PATH"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
}

var AppConfig *Config

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DICTIONARY_PATH", "assets/words.txt")
	viper.SetDefault("LOG_LEVEL", "info")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
