package config

import (
	"log"
	"os"
)

type Config struct {
	Port      string
	DBDSN     string
	LogFile   string
	BackupKey string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "shopledger.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./shopledger.log"
	}
	// Passphrase protecting encrypted backups. Empty disables the backup routes.
	backupKey := os.Getenv("BACKUP_KEY")

	cfg := Config{Port: port, DBDSN: dsn, LogFile: logFile, BackupKey: backupKey}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s BACKUP_KEY_SET=%t", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.BackupKey != "")
	return cfg
}
