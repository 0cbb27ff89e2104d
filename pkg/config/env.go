package config

// EnvPrefix namespaces every environment variable this process reads.
const EnvPrefix = "IGUANAS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names, kept alongside the struct tags so tests and
// deployment manifests reference one set of constants.
const (
	EnvAppEnv       = "IGUANAS_APP_ENV"
	EnvLogLevel     = "IGUANAS_LOG_LEVEL"
	EnvAPIBaseURL   = "IGUANAS_API_BASE_URL"
	EnvSessionToken = "IGUANAS_API_SESSION_TOKEN"

	EnvUploadAcceptedMimeTypes = "IGUANAS_UPLOAD_ACCEPTED_MIME_TYPES"
	EnvUploadMaxFileBytes      = "IGUANAS_UPLOAD_MAX_FILE_BYTES"
	EnvUploadMaxFiles          = "IGUANAS_UPLOAD_MAX_FILES_PER_PRODUCT"
	EnvUploadTransferTimeout   = "IGUANAS_UPLOAD_TRANSFER_TIMEOUT"
	EnvUploadStorageMode       = "IGUANAS_UPLOAD_STORAGE_MODE"
)
