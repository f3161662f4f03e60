package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI    string
	MongoDB     string
	RedisURI    string // empty disables the listing cache, notification fan-out and Redis rate limit
	RabbitMQURL string // empty keeps listing events in-process
	JWTSecret   string
	TokenTTL    time.Duration
	BcryptCost  int
	Port        string
	Host        string // Raw HOST env (e.g. https://api.pashubazaar.in)
	AllowedHost string // Hostname only for strict host check (production only)
	Environment string // ENV: production, development, etc.

	FrontendURL           string
	AllowedOrigins        []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	AllowedOriginSuffixes []string // CORS: e.g. ".vercel.app" for preview deployments
	CORSAllowCredentials  bool

	UploadDir          string
	UploadMaxFiles     int
	UploadMaxFileBytes int64
	MediaBackend       string // "disk" or "cloudinary"

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	RequireAuthForListings bool
	ListingsCacheTTL       time.Duration
}

const defaultJWTSecret = "devsecret"

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:4000")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseList(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", ""), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	// the Vite dev server is always allowed, as the web client is developed against it
	if !containsOrigin(allowedOrigins, "http://localhost:5173") {
		allowedOrigins = append(allowedOrigins, "http://localhost:5173")
	}

	mongoURI := getEnv("MONGO_URL", getEnv("MONGODB_URI", "mongodb://localhost:27017/livestock"))

	return &Config{
		MongoURI:    mongoURI,
		MongoDB:     getEnv("MONGO_DB", databaseName(mongoURI)),
		RedisURI:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:  getEnvInt("BCRYPT_COST", 10),
		Port:        getEnv("PORT", "4000"),
		Host:        host,
		AllowedHost: allowedHost,
		Environment: env,

		FrontendURL:           getEnv("FRONTEND_URL", ""),
		AllowedOrigins:        allowedOrigins,
		AllowedOriginSuffixes: parseList(getEnv("ALLOWED_ORIGIN_SUFFIXES", "")),
		CORSAllowCredentials:  getEnvBool("CORS_ALLOW_CREDENTIALS", true),

		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		UploadMaxFiles:     getEnvInt("UPLOAD_MAX_FILES", 8),
		UploadMaxFileBytes: getEnvInt64("UPLOAD_MAX_FILE_BYTES", 20<<20),
		MediaBackend:       strings.ToLower(getEnv("MEDIA_BACKEND", "disk")),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "livestock"),

		RequireAuthForListings: getEnvBool("REQUIRE_AUTH_FOR_LISTINGS", false),
		ListingsCacheTTL:       getEnvDuration("LISTINGS_CACHE_TTL", 30*time.Second),
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// UsesDefaultSecret reports whether tokens would be signed with the built-in development secret.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// CloudinaryConfigured is true when all three Cloudinary credentials are present.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// hostname strips scheme, path and port: "https://api.example.com:443/x" -> "api.example.com".
func hostname(raw string) string {
	h := raw
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

// databaseName extracts the database from a mongodb:// URI path, defaulting to "livestock".
func databaseName(uri string) string {
	rest := uri
	if idx := strings.Index(rest, "://"); idx != -1 {
		rest = rest[idx+3:]
	}
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return "livestock"
	}
	name := strings.Split(rest[idx+1:], "?")[0]
	if name == "" {
		return "livestock"
	}
	return name
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvInt64(key string, defaultValue int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}
