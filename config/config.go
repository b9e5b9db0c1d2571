package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load assembles the full application config from an optional .env file and
// the process environment. Environment variables win over defaults.
func Load() *AppConfig {
	// Only present in local development; ignored silently otherwise.
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	return &AppConfig{
		Postgres: PostgresConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			DBName:        getEnv("DB_NAME", "obamixteste"),
			MaintenanceDB: getEnv("DB_MAINTENANCE", "postgres"),
			AutoCreate:    getEnvBool("DB_AUTO_CREATE", true),
		},
		Scraper: ScraperConfig{
			LoginURL:     getEnv("SCRAPER_LOGIN_URL", "https://app.obaobamix.com.br/login"),
			ProductsURL:  getEnv("SCRAPER_PRODUCTS_URL", "https://app.obaobamix.com.br/admin/products"),
			RowDelay:     getEnvDuration("SCRAPER_ROW_DELAY", 750*time.Millisecond),
			PageDelay:    getEnvDuration("SCRAPER_PAGE_DELAY", 1500*time.Millisecond),
			PageLimit:    getEnvInt("SCRAPER_PAGE_LIMIT", 0),
			KnownSKUFile: getEnv("SCRAPER_KNOWN_SKUS", ""),
			ExportPath:   getEnv("SCRAPER_EXPORT_XLSX", "produtos_export.xlsx"),
			MetricsAddr:  getEnv("SCRAPER_METRICS_ADDR", ""),
			Headless:     getEnvBool("SCRAPER_HEADLESS", false),
		},
	}
}

// LoadKnownSKUs reads a newline-delimited SKU list enabling light-mode
// extraction. A missing path yields an empty set, not an error.
func LoadKnownSKUs(path string) (map[string]struct{}, error) {
	skus := make(map[string]struct{})
	if path == "" {
		return skus, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return skus, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if sku := strings.TrimSpace(scanner.Text()); sku != "" {
			skus[sku] = struct{}{}
		}
	}
	return skus, scanner.Err()
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

// getEnvDuration accepts either a plain number of seconds ("0.75") or a Go
// duration string ("750ms"). Negative values fall back to the default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if seconds < 0 {
			return defaultValue
		}
		return time.Duration(seconds * float64(time.Second))
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return d
	}
	return defaultValue
}
