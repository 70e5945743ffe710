package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// AWS SDK environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
// AWS_REGION, AWS_ENDPOINT_URL) are read directly by the SDK's default
// credential chain and do not appear in this struct.

type Config struct {
	StorageBackend   string
	FSRoot           string
	ListenAddr       string
	S3Bucket         string
	S3Prefix         string
	S3ForcePathStyle bool
	S3LifecycleDays  int

	GitHubToken  string // powers winget's Git Trees API calls; anonymous if empty
	WinGetOwner  string
	WinGetRepo   string
	WinGetBranch string

	LogLevel slog.Level
}

func Load() Config {
	lifecycleDays, _ := strconv.Atoi(envOr("S3_LIFECYCLE_DAYS", "28"))

	return Config{
		StorageBackend:   envOr("STORAGE_BACKEND", "s3"),
		FSRoot:           envOr("FS_ROOT", "/data/nexus-cache"),
		ListenAddr:       envOr("LISTEN_ADDR", ":8080"),
		S3Bucket:         envOr("S3_BUCKET", "nexus-cache"),
		S3Prefix:         os.Getenv("S3_PREFIX"),
		S3ForcePathStyle: envOr("S3_FORCE_PATH_STYLE", "true") == "true",
		S3LifecycleDays:  lifecycleDays,

		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		WinGetOwner:  envOr("WINGET_OWNER", "microsoft"),
		WinGetRepo:   envOr("WINGET_REPO", "winget-pkgs"),
		WinGetBranch: envOr("WINGET_BRANCH", "master"),

		LogLevel: parseLogLevel(envOr("LOG_LEVEL", "info")),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
