// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvDBHost is the environment variable containing the database host
	EnvDBHost = "DB_HOST"

	// EnvDBUser is the environment variable containing the database user
	EnvDBUser = "DB_USER"

	// EnvDBPassword is the environment variable containing the database password
	EnvDBPassword = "DB_PASSWORD"

	// EnvDBName is the environment variable containing the database name
	EnvDBName = "DB_NAME"

	// EnvDBPort is the environment variable containing the database port
	EnvDBPort = "DB_PORT"

	// EnvPort is the environment variable containing the API listen port
	EnvPort = "PORT"

	// EnvPushGatewayURL is the environment variable containing the push gateway endpoint
	EnvPushGatewayURL = "PUSH_GATEWAY_URL"

	// EnvSMSGatewayURL is the environment variable containing the SMS gateway endpoint
	EnvSMSGatewayURL = "SMS_GATEWAY_URL"

	// EnvNotifyTimeoutSeconds is the environment variable containing the
	// per-recipient notification delivery timeout, in seconds
	EnvNotifyTimeoutSeconds = "NOTIFY_TIMEOUT_SECONDS"

	// EnvServerAddress is the environment variable containing the API
	// server address used by the CLI
	EnvServerAddress = "DISPATCH_SERVER_ADDRESS"
)
