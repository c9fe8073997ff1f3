package generator

// Centralized constants for all generated stack artifacts.
// These values are used in templates via template data and in Go code.

const (
	// Container images
	MariaDBImage    = "mariadb:10.11"
	NextcloudImage  = "nextcloud:28-fpm"
	NginxImage      = "nginx:1.28-alpine"
	OnlyOfficeImage = "onlyoffice/documentserver:8.1"

	// Database defaults inside the stack
	DBName = "nextcloud"
	DBUser = "nextcloud"

	// Upload limit for both nginx configs
	DefaultMaxBodySize = "512m"

	// TLS material location inside the proxy container
	CertsPath = "/etc/nginx/certs"

	// Secret keys in the generated .env file
	EnvKeyDBPassword     = "DB_PASSWORD"
	EnvKeyDBRootPassword = "DB_ROOT_PASSWORD"
	EnvKeyOfficeJWT      = "OFFICE_JWT_SECRET"

	// Length of generated secrets in bytes (hex-encoded on write)
	SecretBytes = 32
)

// RequiredEnvKeys are the secrets every deployable .env must define.
var RequiredEnvKeys = []string{
	EnvKeyDBPassword,
	EnvKeyDBRootPassword,
	EnvKeyOfficeJWT,
}
