package config

import "fmt"

type DbConfig interface {
	GetConnectionString() string
}

// PostgresConfig represents the configuration needed to connect to a
// PostgreSQL database. MaintenanceDB is used to create the target database
// when it does not exist yet and AutoCreate is enabled.
type PostgresConfig struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	DBName        string `yaml:"dbname"`
	MaintenanceDB string `yaml:"maintenance_db"`
	AutoCreate    bool   `yaml:"auto_create"`
}

func (pc *PostgresConfig) GetConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

// MaintenanceConnectionString targets the maintenance database, used only
// for CREATE DATABASE.
func (pc *PostgresConfig) MaintenanceConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.MaintenanceDB)
}
