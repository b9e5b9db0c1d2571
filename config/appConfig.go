package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScraperConfig constrains the traversal: politeness delays, page limit,
// light-mode SKU source and the target URLs.
type ScraperConfig struct {
	LoginURL     string        `yaml:"login_url"`
	ProductsURL  string        `yaml:"products_url"`
	RowDelay     time.Duration `yaml:"row_delay"`
	PageDelay    time.Duration `yaml:"page_delay"`
	PageLimit    int           `yaml:"page_limit"`
	KnownSKUFile string        `yaml:"known_sku_file"`
	ExportPath   string        `yaml:"export_xlsx"`
	MetricsAddr  string        `yaml:"metrics_addr"`
	Headless     bool          `yaml:"headless"`
}

type AppConfig struct {
	Scraper  ScraperConfig  `yaml:"scraper"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// LoadFile overlays a YAML config file onto cfg. Fields absent from the
// file keep their current (env-derived) values.
func (cfg *AppConfig) LoadFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	return decoder.Decode(cfg)
}
