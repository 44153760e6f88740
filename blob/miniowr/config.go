package miniowr

// Config defines the configuration options for the MinIO client.
type Config struct {
	// Endpoint is the MinIO server endpoint (e.g., "localhost:9000").
	Endpoint string `yaml:"endpoint" validate:"required"`

	// AccessKey is the access key for authentication.
	AccessKey string `yaml:"access_key" validate:"required"`

	// SecretKey is the secret key for authentication.
	SecretKey string `yaml:"secret_key" validate:"required" mask:"true"`

	// Bucket is the bucket name for storage operations.
	Bucket string `yaml:"bucket" validate:"required"`

	// UseSSL enables HTTPS connection to the MinIO server.
	UseSSL bool `yaml:"use_ssl" default:"false"`

	// MaxRetries is the number of attempts for idempotent operations that
	// hit transient errors.
	MaxRetries uint `yaml:"max_retries" default:"3"`
}
