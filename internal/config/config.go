// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"

	"github.com/allisson/walletguard/permissions"
)

// Config holds all application configuration.
type Config struct {
	// AdminOriginator is the identity whose wallet calls bypass all
	// permission checks.
	AdminOriginator string

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// CacheTTL bounds how long a validated permission decision is reused
	// without re-reading the token basket.
	CacheTTL time.Duration

	// ManifestFetchEnabled indicates whether grouped permissions are fetched
	// from originator manifests during authentication.
	ManifestFetchEnabled bool
	// ManifestFetchTimeout is the per-request timeout for manifest fetches.
	ManifestFetchTimeout time.Duration

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int

	// EncryptWalletMetadata indicates whether action and output descriptions
	// are stored encrypted.
	EncryptWalletMetadata bool

	// DifferentiatePrivilegedOperations indicates whether privileged and
	// non-privileged usage require separate permission tokens.
	DifferentiatePrivilegedOperations bool

	// SeekProtocolPermissions gates all protocol usage checks (signing,
	// encrypting, HMAC, key derivation).
	SeekProtocolPermissions bool
	// SeekBasketPermissions gates all basket access checks.
	SeekBasketPermissions bool
	// SeekCertificatePermissions gates all certificate checks.
	SeekCertificatePermissions bool
	// SeekSpendingPermissions gates net spending checks on created actions.
	SeekSpendingPermissions bool
	// SeekLabelPermissions gates action label checks.
	SeekLabelPermissions bool
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		AdminOriginator: env.GetString("ADMIN_ORIGINATOR", "admin.wallet"),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Permission cache
		CacheTTL: env.GetDuration("CACHE_TTL_SECONDS", 300, time.Second),

		// Grouped permission manifests
		ManifestFetchEnabled: env.GetBool("MANIFEST_FETCH_ENABLED", true),
		ManifestFetchTimeout: env.GetDuration("MANIFEST_FETCH_TIMEOUT_SECONDS", 10, time.Second),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "walletguard"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),

		// Permission enforcement
		EncryptWalletMetadata:             env.GetBool("ENCRYPT_WALLET_METADATA", true),
		DifferentiatePrivilegedOperations: env.GetBool("DIFFERENTIATE_PRIVILEGED_OPERATIONS", true),
		SeekProtocolPermissions:           env.GetBool("SEEK_PROTOCOL_PERMISSIONS", true),
		SeekBasketPermissions:             env.GetBool("SEEK_BASKET_PERMISSIONS", true),
		SeekCertificatePermissions:        env.GetBool("SEEK_CERTIFICATE_PERMISSIONS", true),
		SeekSpendingPermissions:           env.GetBool("SEEK_SPENDING_PERMISSIONS", true),
		SeekLabelPermissions:              env.GetBool("SEEK_LABEL_PERMISSIONS", true),
	}
}

// PermissionConfig expands the coarse environment switches into the full
// enforcement configuration. Each environment switch drives every fine-grained
// switch of its category.
func (c *Config) PermissionConfig() permissions.Config {
	cfg := permissions.DefaultConfig()

	cfg.EncryptWalletMetadata = c.EncryptWalletMetadata
	cfg.DifferentiatePrivilegedOperations = c.DifferentiatePrivilegedOperations

	cfg.SeekProtocolPermissionsForSigning = c.SeekProtocolPermissions
	cfg.SeekProtocolPermissionsForEncrypting = c.SeekProtocolPermissions
	cfg.SeekProtocolPermissionsForHMAC = c.SeekProtocolPermissions
	cfg.SeekProtocolPermissionsForPublicKey = c.SeekProtocolPermissions
	cfg.SeekPermissionsForIdentityKeyRevelation = c.SeekProtocolPermissions
	cfg.SeekPermissionsForKeyLinkageRevelation = c.SeekProtocolPermissions
	cfg.SeekPermissionsForIdentityResolution = c.SeekProtocolPermissions

	cfg.SeekBasketInsertionPermissions = c.SeekBasketPermissions
	cfg.SeekBasketRemovalPermissions = c.SeekBasketPermissions
	cfg.SeekBasketListingPermissions = c.SeekBasketPermissions

	cfg.SeekCertificateDisclosurePermissions = c.SeekCertificatePermissions
	cfg.SeekCertificateAcquisitionPermissions = c.SeekCertificatePermissions
	cfg.SeekCertificateRelinquishmentPermissions = c.SeekCertificatePermissions
	cfg.SeekCertificateListingPermissions = c.SeekCertificatePermissions

	cfg.SeekSpendingPermissions = c.SeekSpendingPermissions

	cfg.SeekPermissionWhenApplyingActionLabels = c.SeekLabelPermissions
	cfg.SeekPermissionWhenListingActionsByLabel = c.SeekLabelPermissions

	cfg.SeekGroupedPermission = c.ManifestFetchEnabled

	return cfg
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
