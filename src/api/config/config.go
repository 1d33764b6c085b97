package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN    string
	RedisURL    string
	JWTSecret   string
	Port        string
	EvidenceDir string
	RateLimit   int // transport requests per window, per user
	RateWindow  int // window seconds
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	rl, _ := strconv.Atoi(getenv("RATE_LIMIT", "60"))
	rw, _ := strconv.Atoi(getenv("RATE_WINDOW", "60"))
	return Config{
		MySQLDSN:    getenv("MYSQL_DSN", "workforce:workforce@tcp(127.0.0.1:3306)/workforce?parseTime=true"),
		RedisURL:    getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:   getenv("JWT_SECRET", ""),
		Port:        getenv("PORT", "8080"),
		EvidenceDir: getenv("EVIDENCE_DIR", "/var/lib/workforce/evidence"),
		RateLimit:   rl,
		RateWindow:  rw,
	}
}
