package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort       int    `mapstructure:"APP_PORT"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	DevMode       bool   `mapstructure:"DEV_MODE"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	StoreBackend    string `mapstructure:"STORE_BACKEND"`
	MongoURI        string `mapstructure:"MONGO_URI"`
	MongoDBName     string `mapstructure:"MONGO_DB_NAME"`
	NotesCollection string `mapstructure:"NOTES_COLLECTION"`
	TagsCollection  string `mapstructure:"TAGS_COLLECTION"`
	UsersCollection string `mapstructure:"USERS_COLLECTION"`

	BlobBackend      string `mapstructure:"BLOB_BACKEND"`
	BlobBucket       string `mapstructure:"BLOB_BUCKET"`
	MaxUploadMB      int    `mapstructure:"MAX_UPLOAD_MB"`
	S3Region         string `mapstructure:"S3_REGION"`
	S3Endpoint       string `mapstructure:"S3_ENDPOINT"`
	S3PresignMinutes int    `mapstructure:"S3_PRESIGN_MINUTES"`

	BcryptCost         int    `mapstructure:"BCRYPT_COST"`
	SignInRatePerMin   int    `mapstructure:"SIGNIN_RATE_PER_MIN"`
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm       string `mapstructure:"JWT_ALGORITHM"`
	AccessTokenMinutes int    `mapstructure:"ACCESS_TOKEN_MINUTES"`

	WSMaxSessionSec       int  `mapstructure:"WS_MAX_SESSION_SEC"`
	WSOutboxBuffer        int  `mapstructure:"WS_OUTBOX_BUFFER"`
	TrashPurgeConcurrency int  `mapstructure:"TRASH_PURGE_CONCURRENCY"`
	RouteMetricsEnabled   bool `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool `mapstructure:"REQUEST_LOGGING_ENABLED"`

	PyroscopeServerAddress string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
}

// Supported backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendGridFS = "gridfs"
	BackendS3     = "s3"
	BackendNone   = "none"
)

var (
	ErrAppPortRange            = errors.New("APP_PORT must be between 1 and 65535")
	ErrLogLevelEmpty           = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty          = errors.New("LOG_FORMAT cannot be empty")
	ErrStoreBackend            = errors.New("STORE_BACKEND must be either mongo or memory")
	ErrMongoURIEmpty           = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty        = errors.New("MONGO_DB_NAME cannot be empty")
	ErrCollectionEmpty         = errors.New("NOTES_COLLECTION, TAGS_COLLECTION and USERS_COLLECTION cannot be empty")
	ErrBlobBackend             = errors.New("BLOB_BACKEND must be one of gridfs, s3 or none")
	ErrBlobBucketEmpty         = errors.New("BLOB_BUCKET cannot be empty")
	ErrGridFSNeedsMongo        = errors.New("BLOB_BACKEND=gridfs requires STORE_BACKEND=mongo")
	ErrS3RegionEmpty           = errors.New("S3_REGION cannot be empty when BLOB_BACKEND=s3")
	ErrMaxUploadMB             = errors.New("MAX_UPLOAD_MB must be greater than 0")
	ErrBcryptCostRange         = errors.New("BCRYPT_COST must be between 8 and 16")
	ErrSignInRatePerMin        = errors.New("SIGNIN_RATE_PER_MIN must be greater than or equal to 1")
	ErrJWTSecretRequired       = errors.New("JWT_SECRET is required unless DEV_MODE=true")
	ErrJWTSecretTooShort       = errors.New("JWT_SECRET must be at least 32 characters for HS256")
	ErrJWTAlgorithmUnsupported = errors.New("JWT_ALGORITHM must be HS256")
	ErrAccessTokenMinutes      = errors.New("ACCESS_TOKEN_MINUTES must be greater than 0")
	ErrWSMaxSessionSec         = errors.New("WS_MAX_SESSION_SEC must be greater than 0")
	ErrWSOutboxBuffer          = errors.New("WS_OUTBOX_BUFFER must be greater than 0")
	ErrTrashPurgeConcurrency   = errors.New("TRASH_PURGE_CONCURRENCY must be greater than 0")
)

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// a missing .env file is fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)
	cfg.BlobBackend = strings.ToLower(cfg.BlobBackend)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DEV_MODE", false)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("STORE_BACKEND", BackendMongo)
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "notevault")
	v.SetDefault("NOTES_COLLECTION", "notes")
	v.SetDefault("TAGS_COLLECTION", "tags")
	v.SetDefault("USERS_COLLECTION", "users")

	v.SetDefault("BLOB_BACKEND", BackendGridFS)
	v.SetDefault("BLOB_BUCKET", "media")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("S3_REGION", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_PRESIGN_MINUTES", 15)

	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SIGNIN_RATE_PER_MIN", 5)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_MINUTES", 60)

	v.SetDefault("WS_MAX_SESSION_SEC", 900)
	v.SetDefault("WS_OUTBOX_BUFFER", 256)
	v.SetDefault("TRASH_PURGE_CONCURRENCY", 4)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	if c.LogFormat == "" {
		return ErrLogFormatEmpty
	}

	switch c.StoreBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			return ErrMongoURIEmpty
		}
		if c.MongoDBName == "" {
			return ErrMongoDBNameEmpty
		}
	case BackendMemory:
	default:
		return ErrStoreBackend
	}
	if c.NotesCollection == "" || c.TagsCollection == "" || c.UsersCollection == "" {
		return ErrCollectionEmpty
	}

	switch c.BlobBackend {
	case BackendGridFS:
		if c.StoreBackend != BackendMongo {
			return ErrGridFSNeedsMongo
		}
	case BackendS3:
		if c.S3Region == "" {
			return ErrS3RegionEmpty
		}
	case BackendNone:
	default:
		return ErrBlobBackend
	}
	if c.BlobBackend != BackendNone && c.BlobBucket == "" {
		return ErrBlobBucketEmpty
	}
	if c.MaxUploadMB <= 0 {
		return ErrMaxUploadMB
	}

	if c.BcryptCost < 8 || c.BcryptCost > 16 {
		return ErrBcryptCostRange
	}
	if c.SignInRatePerMin < 1 {
		return ErrSignInRatePerMin
	}
	if c.JWTAlgorithm != "HS256" {
		return ErrJWTAlgorithmUnsupported
	}
	if !c.DevMode {
		if c.JWTSecret == "" {
			return ErrJWTSecretRequired
		}
		if len(c.JWTSecret) < 32 {
			return ErrJWTSecretTooShort
		}
	}
	if c.AccessTokenMinutes <= 0 {
		return ErrAccessTokenMinutes
	}

	if c.WSMaxSessionSec <= 0 {
		return ErrWSMaxSessionSec
	}
	if c.WSOutboxBuffer <= 0 {
		return ErrWSOutboxBuffer
	}
	if c.TrashPurgeConcurrency <= 0 {
		return ErrTrashPurgeConcurrency
	}
	return nil
}
