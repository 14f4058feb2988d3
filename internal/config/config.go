package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Log
		Database
		Tasks
		Collections
		Transfers
		Progress
		Audit
	}

	HTTP struct {
		Port           int32
		Host           string
		AllowedOrigins []string // Browser origins allowed by CORS; empty disables it
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Log struct {
		Level string // debug, info, warn, error
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Collections struct {
		LikedName  string
		MyListName string
		IgnoreName string
	}
	Transfers struct {
		MaxCompanyIDs  int           // Upper bound on companyIds per request (0 = unlimited)
		ItemAttempts   int           // Attempts per company id; 1 means no retries
		ItemBackoff    time.Duration // Delay between attempts on the same company id
		StaleAfter     time.Duration // In-progress transfers untouched this long are reaped
		ReaperSchedule string        // Cron format: "*/10 * * * *" = every 10 minutes
		ReaperEnabled  bool
	}
	Progress struct {
		TTL        time.Duration // How long a progress entry stays pollable
		MaxEntries int
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_allowed_origins", "http://localhost:3000")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("database_path", DefaultDatabasePath)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 1)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "2h")
	v.SetDefault("task_release_after", "3h")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Reserved collection names
	v.SetDefault("collection_liked_name", DefaultLikedCollectionName)
	v.SetDefault("collection_my_list_name", DefaultMyListCollectionName)
	v.SetDefault("collection_ignore_name", DefaultIgnoreCollectionName)

	// Transfer engine defaults
	v.SetDefault("transfer_max_company_ids", 50000)
	v.SetDefault("transfer_item_attempts", 1)
	v.SetDefault("transfer_item_backoff", "100ms")
	v.SetDefault("transfer_stale_after", "30m")
	v.SetDefault("transfer_reaper_schedule", "*/10 * * * *")
	v.SetDefault("transfer_reaper_enabled", true)

	// Progress tracker defaults
	v.SetDefault("progress_ttl", "24h")
	v.SetDefault("progress_max_entries", 10000)

	// Audit retention defaults
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),

			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Log: Log{
			Level: v.GetString("LOG_LEVEL"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Collections: Collections{
			LikedName:  v.GetString("COLLECTION_LIKED_NAME"),
			MyListName: v.GetString("COLLECTION_MY_LIST_NAME"),
			IgnoreName: v.GetString("COLLECTION_IGNORE_NAME"),
		},
		Transfers: Transfers{
			MaxCompanyIDs:  v.GetInt("TRANSFER_MAX_COMPANY_IDS"),
			ItemAttempts:   v.GetInt("TRANSFER_ITEM_ATTEMPTS"),
			ItemBackoff:    v.GetDuration("TRANSFER_ITEM_BACKOFF"),
			StaleAfter:     v.GetDuration("TRANSFER_STALE_AFTER"),
			ReaperSchedule: v.GetString("TRANSFER_REAPER_SCHEDULE"),
			ReaperEnabled:  v.GetBool("TRANSFER_REAPER_ENABLED"),
		},
		Progress: Progress{
			TTL:        v.GetDuration("PROGRESS_TTL"),
			MaxEntries: v.GetInt("PROGRESS_MAX_ENTRIES"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
	}
}

// splitList parses a comma separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
