package config

import (
	"os"
)

type Config struct {
	Port      string
	BaseURL   string
	RateLimit string

	AppleTeamID      string
	ApplePassTypeID  string
	AppleCertPath    string
	AppleKeyPath     string
	AppleWWDRPath    string
	WalletAuthSecret string
	PassTemplateDir  string
	PassTempDir      string

	APNsCertPath     string
	APNsCertPassword string

	GoogleIssuerID           string
	GoogleLoyaltyClassID     string
	GoogleServiceAccountPath string
}

func Load() Config {
	return Config{
		Port:      os.Getenv("WALLET_SERVICE_PORT"),
		BaseURL:   os.Getenv("BASE_URL"),
		RateLimit: os.Getenv("RATE_LIMIT"),

		AppleTeamID:      os.Getenv("APPLE_TEAM_ID"),
		ApplePassTypeID:  os.Getenv("APPLE_PASS_TYPE_ID"),
		AppleCertPath:    os.Getenv("APPLE_CERT_PATH"),
		AppleKeyPath:     os.Getenv("APPLE_KEY_PATH"),
		AppleWWDRPath:    os.Getenv("APPLE_WWDR_PATH"),
		WalletAuthSecret: os.Getenv("WALLET_AUTH_SECRET"),
		PassTemplateDir:  os.Getenv("PASS_TEMPLATE_DIR"),
		PassTempDir:      os.Getenv("PASS_TEMP_DIR"),

		APNsCertPath:     os.Getenv("APNS_CERT_PATH"),
		APNsCertPassword: os.Getenv("APNS_CERT_PASSWORD"),

		GoogleIssuerID:           os.Getenv("GOOGLE_WALLET_ISSUER_ID"),
		GoogleLoyaltyClassID:     os.Getenv("GOOGLE_LOYALTY_CLASS_ID"),
		GoogleServiceAccountPath: os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY_PATH"),
	}
}
