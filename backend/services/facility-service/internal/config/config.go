package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// Config holds all application configuration, including secrets, flags, etc.
type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	DBUrl            string
	UniqueRunNumber  string
	UniqueRunnerID   string
	TokenExpiry      time.Duration
	RSAPrivateKey    *rsa.PrivateKey
	RSAPublicKey     *rsa.PublicKey

	// APIKey enables service-to-service calls; empty disables the path.
	APIKey         string
	ServiceActorID uuid.UUID

	TenantRetention      models.TenantRetentionMode
	DefaultAdminPassword string

	// Static flags fetched once from LaunchDarkly, or from the environment
	// when no SDK key is configured.
	LDFlag_AllowMoveOutWithBalance bool
	LDFlag_SeedDbWithTestAccounts  bool
	LDFlag_CORSHighSecurity        bool
}

const (
	OrganizationName    = utils.OrganizationName
	DefaultTokenExpiry  = 30 * time.Minute
	LDConnectionTimeout = 5 * time.Second
)

// Global compile-time overrides.
var (
	AppName             string
	UniqueRunNumber     string
	UniqueRunnerID      string
	LDServerContextKey  string
	LDServerContextKind string
)

// secretSource resolves a named secret from Bitwarden when it is
// configured, falling back to the process environment.
type secretSource struct {
	bws map[string]string
}

func (s secretSource) get(key string) string {
	if v, ok := s.bws[key]; ok && v != "" {
		return v
	}
	return os.Getenv(key)
}

func (s secretSource) require(key string) string {
	v := s.get(key)
	if v == "" {
		utils.Logger.Fatalf("%s not found in secrets or environment", key)
	}
	return v
}

// LoadConfig reads the environment, optional Bitwarden secrets and
// LaunchDarkly flags, and returns a *Config.
func LoadConfig() *Config {
	//----------------------------------------------------------------------
	// Check for required ldflags.
	//----------------------------------------------------------------------
	if AppName == "" {
		utils.Logger.Fatal("AppName was not overridden with ldflags at build time (or is empty)")
	}
	if UniqueRunNumber == "" {
		utils.Logger.Fatal("UniqueRunNumber was not overridden with ldflags at build time (or is empty)")
	}
	if UniqueRunnerID == "" {
		utils.Logger.Fatal("UniqueRunnerID was not overridden with ldflags at build time (or is empty)")
	}

	utils.Logger.Info("Loading config for app: ", AppName)

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file loaded")
	}

	//----------------------------------------------------------------------
	// Load environment variables.
	//----------------------------------------------------------------------
	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}

	utils.Logger.Debugf("App can be accessed at: %s", appUrl)

	//----------------------------------------------------------------------
	// Fetch secrets from Bitwarden when enabled.
	//----------------------------------------------------------------------
	secrets := secretSource{}
	if utils.BWSEnabled() {
		client, err := utils.NewBWSSecretsClient()
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to initialize BWSSecretsClient")
		}
		project := fmt.Sprintf("%s-%s", AppName, env)
		utils.Logger.Debugf("Fetching app-specific secrets from BWS for %s", project)
		appSecrets, err := client.GetBWSSecrets(project)
		if err != nil {
			client.Close()
			utils.Logger.WithError(err).Fatal("Failed to fetch app-specific secrets from BWS")
		}
		sharedSecrets, err := client.GetBWSSecrets(fmt.Sprintf("shared-%s", env))
		client.Close()
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to fetch shared secrets from BWS")
		}
		secrets.bws = make(map[string]string, len(appSecrets)+len(sharedSecrets))
		for k, v := range sharedSecrets {
			secrets.bws[k] = v
		}
		for k, v := range appSecrets {
			secrets.bws[k] = v
		}
	} else {
		utils.Logger.Info("BWS not configured; reading secrets from the environment.")
	}

	dbUrl := secrets.require("DB_URL")
	privateKey, publicKey := parseRSAKeys(
		secrets.require("RSA_PRIVATE_KEY_BASE64"),
		secrets.require("RSA_PUBLIC_KEY_BASE64"),
	)

	apiKey := secrets.get("API_KEY")
	var serviceActorID uuid.UUID
	if apiKey != "" {
		id, err := uuid.Parse(secrets.require("SERVICE_ACTOR_ID"))
		if err != nil {
			utils.Logger.WithError(err).Fatal("SERVICE_ACTOR_ID is not a valid UUID")
		}
		serviceActorID = id
	}

	retention := models.TenantRetentionMode(strings.ToLower(os.Getenv("TENANT_RETENTION")))
	switch retention {
	case "":
		retention = models.TenantRetentionArchive
	case models.TenantRetentionArchive, models.TenantRetentionDelete:
	default:
		utils.Logger.Fatalf("TENANT_RETENTION must be %q or %q", models.TenantRetentionArchive, models.TenantRetentionDelete)
	}

	tokenExpiry := DefaultTokenExpiry
	if raw := os.Getenv("TOKEN_EXPIRY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			utils.Logger.Fatalf("TOKEN_EXPIRY %q is not a positive duration", raw)
		}
		tokenExpiry = d
	}

	//----------------------------------------------------------------------
	// Static flags.
	//----------------------------------------------------------------------
	flags := map[string]bool{
		"allow_move_out_with_balance": envBool("ALLOW_MOVE_OUT_WITH_BALANCE"),
		"seed_db_with_test_accounts":  envBool("SEED_DB_WITH_TEST_ACCOUNTS"),
		"cors_high_security":          envBool("CORS_HIGH_SECURITY"),
	}
	if ldSDKKey := secrets.get("LD_SDK_KEY"); ldSDKKey != "" {
		loadLDFlags(ldSDKKey, flags)
	} else {
		utils.Logger.Info("LD_SDK_KEY not set; using flag values from the environment.")
	}

	defaultAdminPassword := ""
	if flags["seed_db_with_test_accounts"] {
		defaultAdminPassword = secrets.require("DEFAULT_ADMIN_PASSWORD")
	}

	return &Config{
		OrganizationName:               OrganizationName,
		AppName:                        AppName,
		AppPort:                        appPort,
		AppUrl:                         appUrl,
		DBUrl:                          dbUrl,
		UniqueRunNumber:                UniqueRunNumber,
		UniqueRunnerID:                 UniqueRunnerID,
		TokenExpiry:                    tokenExpiry,
		RSAPrivateKey:                  privateKey,
		RSAPublicKey:                   publicKey,
		APIKey:                         apiKey,
		ServiceActorID:                 serviceActorID,
		TenantRetention:                retention,
		DefaultAdminPassword:           defaultAdminPassword,
		LDFlag_AllowMoveOutWithBalance: flags["allow_move_out_with_balance"],
		LDFlag_SeedDbWithTestAccounts:  flags["seed_db_with_test_accounts"],
		LDFlag_CORSHighSecurity:        flags["cors_high_security"],
	}
}

// loadLDFlags overwrites each entry of flags with its LaunchDarkly
// variation, using the current value as the fallback.
func loadLDFlags(sdkKey string, flags map[string]bool) {
	if LDServerContextKey == "" {
		utils.Logger.Fatal("LDServerContextKey was not overridden with ldflags at build time (or is empty)")
	}
	if LDServerContextKind == "" {
		utils.Logger.Fatal("LDServerContextKind was not overridden with ldflags at build time (or is empty)")
	}

	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}

	context := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)
	for name, fallback := range flags {
		v, err := ldClient.BoolVariation(name, context, fallback)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", name)
		}
		utils.Logger.Debugf("%s flag: %t", name, v)
		flags[name] = v
	}
}

func parseRSAKeys(privateB64, publicB64 string) (*rsa.PrivateKey, *rsa.PublicKey) {
	privateKeyPEM, err := base64.StdEncoding.DecodeString(privateB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to decode base64 private key")
	}
	if block, _ := pem.Decode(privateKeyPEM); block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for private key")
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA private key")
	}

	publicKeyPEM, err := base64.StdEncoding.DecodeString(publicB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to decode base64 public key")
	}
	if block, _ := pem.Decode(publicKeyPEM); block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for public key")
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}
	return privateKey, publicKey
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// Close cleans up any resources used by Config.
func (c *Config) Close() {
}
