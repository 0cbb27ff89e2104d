package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App    AppConfig
	API    APIConfig
	Upload UploadConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"IGUANAS_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"IGUANAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"IGUANAS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig locates the admin API and the credential the gateway carries.
type APIConfig struct {
	BaseURL        string        `envconfig:"IGUANAS_API_BASE_URL" required:"true" validate:"url"`
	SessionToken   string        `envconfig:"IGUANAS_API_SESSION_TOKEN"`
	RequestTimeout time.Duration `envconfig:"IGUANAS_API_REQUEST_TIMEOUT" default:"15s"`
}

// UploadConfig bounds the upload pipeline. StorageMode is resolved once at
// startup and treated as immutable for the process lifetime.
type UploadConfig struct {
	AcceptedMimeTypes  []string      `envconfig:"IGUANAS_UPLOAD_ACCEPTED_MIME_TYPES" default:"image/jpeg,image/jpg,image/png,image/webp" validate:"min=1"`
	MaxFileBytes       int64         `envconfig:"IGUANAS_UPLOAD_MAX_FILE_BYTES" default:"10485760" validate:"min=1"`
	MaxFilesPerProduct int           `envconfig:"IGUANAS_UPLOAD_MAX_FILES_PER_PRODUCT" default:"10" validate:"min=1"`
	TransferTimeout    time.Duration `envconfig:"IGUANAS_UPLOAD_TRANSFER_TIMEOUT" default:"120s"`
	InterFileDelay     time.Duration `envconfig:"IGUANAS_UPLOAD_INTER_FILE_DELAY" default:"500ms"`
	DismissDelay       time.Duration `envconfig:"IGUANAS_UPLOAD_DISMISS_DELAY" default:"3s"`
	StorageMode        StorageMode   `envconfig:"IGUANAS_UPLOAD_STORAGE_MODE" default:"local" validate:"oneof=local direct"`
}

// StorageMode selects which wire variant of the upload protocol to speak.
type StorageMode string

const (
	// StorageModeLocal negotiates with a POST and transfers through a
	// backend-proxied endpoint.
	StorageModeLocal StorageMode = "local"
	// StorageModeDirect negotiates with a GET and transfers straight to
	// object storage via a presigned PUT URL.
	StorageModeDirect StorageMode = "direct"
)

var validStorageModes = []StorageMode{StorageModeLocal, StorageModeDirect}

func (m StorageMode) String() string {
	return string(m)
}

func (m StorageMode) IsValid() bool {
	for _, candidate := range validStorageModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseStorageMode converts raw input into a StorageMode.
func ParseStorageMode(value string) (StorageMode, error) {
	for _, candidate := range validStorageModes {
		if string(candidate) == strings.ToLower(strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid storage mode %q", value)
}
