// Package config загружает настройки сервера из переменных окружения.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config содержит все настройки сервера.
type Config struct {
	Port        int           // Порт HTTP-сервера
	DBPath      string        // Путь к файлу SQLite
	AuthEnabled bool          // Если false, все запросы разрешены без токена
	JWTSecret   string        // Ключ подписи JWT
	TokenTTL    time.Duration // Срок жизни токена доступа
}

// Load читает настройки из окружения, подставляя значения по умолчанию.
func Load() *Config {
	v := viper.New()
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "WorkplaceScheduler.db")
	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("JWT_SECRET", "dev_secret_change_me")
	v.SetDefault("TOKEN_TTL", "24h")
	v.AutomaticEnv()

	return &Config{
		Port:        v.GetInt("PORT"),
		DBPath:      v.GetString("DB_PATH"),
		AuthEnabled: v.GetBool("AUTH_ENABLED"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		TokenTTL:    v.GetDuration("TOKEN_TTL"),
	}
}
