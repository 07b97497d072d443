package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
	LogJSON     bool

	// AdminUser and AdminPassword seed the first administrator on startup.
	AdminUser     string
	AdminPassword string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	SyncInterval time.Duration
	SyncDisabled bool
}

// ParseFlags reads the command line. Every flag defaults to its QEVENT_*
// environment variable, which may also come from a .env file in the working
// directory.
func ParseFlags() (cfg Config, err error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

func Parse(fs *flag.FlagSet, args []string) (cfg Config, err error) {
	// a missing .env is not an error
	_ = godotenv.Load()

	var host string
	fs.StringVar(&host, "host", env("HOST", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", envUint("PORT", 80), "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", env("DB_URL", "qevent.sqlite"), "path to SQLite3 DB file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", env("TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", envUint("TOKEN_TTL", 120), "token TTL in seconds")
	fs.BoolVar(&cfg.Debug, "debug", env("DEBUG", "") != "", "log at DEBUG level")
	fs.BoolVar(&cfg.LogJSON, "log-json", env("LOG_JSON", "") != "", "log JSON lines instead of text")
	fs.StringVar(&cfg.AdminUser, "admin-user", env("ADMIN_USER", ""), "create this administrator if missing")
	fs.StringVar(&cfg.AdminPassword, "admin-password", env("ADMIN_PASSWORD", ""), "password for -admin-user")
	fs.StringVar(&cfg.GoogleClientID, "google-client-id", env("GOOGLE_CLIENT_ID", ""), "Google OAuth client id")
	fs.StringVar(&cfg.GoogleClientSecret, "google-client-secret", env("GOOGLE_CLIENT_SECRET", ""), "Google OAuth client secret")
	fs.StringVar(&cfg.GoogleRedirectURL, "google-redirect-url", env("GOOGLE_REDIRECT_URL", ""), "Google OAuth redirect URL")
	var syncEvery uint
	fs.UintVar(&syncEvery, "sync-interval", envUint("SYNC_INTERVAL", 30), "data source auto-sync interval in seconds")
	fs.BoolVar(&cfg.SyncDisabled, "no-sync", env("NO_SYNC", "") != "", "disable data source auto-sync")
	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.SyncInterval = time.Duration(syncEvery) * time.Second

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.AdminUser != "" && cfg.AdminPassword == "":
		err = errors.New("-admin-user requires -admin-password")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv("QEVENT_" + key)); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint) uint {
	v, err := strconv.ParseUint(env(key, ""), 10, 32)
	if err != nil {
		return fallback
	}
	return uint(v)
}
