package domain

import (
	"fmt"
	"strings"
	"time"
)

// EnvironmentStage is the backend deployment an SDK session talks to.
type EnvironmentStage string

// Environment stages.
const (
	StageDev        EnvironmentStage = "dev"
	StageSandbox    EnvironmentStage = "sandbox"
	StageProduction EnvironmentStage = "production"
	StageLocal      EnvironmentStage = "local"
)

// Region is the data residency region.
type Region string

// Regions.
const (
	RegionUS Region = "us"
	RegionEU Region = "eu"
)

// Environment is a {stage, region} pair.
type Environment struct {
	Stage  EnvironmentStage `json:"stage"`
	Region Region           `json:"region"`
}

var baseURLs = map[Environment]string{
	{StageProduction, RegionUS}: "https://api.tryvital.io",
	{StageProduction, RegionEU}: "https://api.eu.tryvital.io",
	{StageSandbox, RegionUS}:    "https://api.sandbox.tryvital.io",
	{StageSandbox, RegionEU}:    "https://api.sandbox.eu.tryvital.io",
	{StageDev, RegionUS}:        "https://api.dev.tryvital.io",
	{StageDev, RegionEU}:        "https://api.dev.eu.tryvital.io",
	{StageLocal, RegionUS}:      "http://localhost:8000",
	{StageLocal, RegionEU}:      "http://localhost:8000",
}

// ParseEnvironment parses a stage and region, e.g. ("sandbox", "eu").
func ParseEnvironment(stage, region string) (Environment, error) {
	env := Environment{
		Stage:  EnvironmentStage(strings.ToLower(strings.TrimSpace(stage))),
		Region: Region(strings.ToLower(strings.TrimSpace(region))),
	}
	if env.Region == "" {
		env.Region = RegionUS
	}
	if !env.IsValid() {
		return Environment{}, fmt.Errorf("%w: unknown environment %s/%s", ErrInvalidInput, stage, region)
	}
	return env, nil
}

// IsValid returns true if the environment maps to a known base URL.
func (e Environment) IsValid() bool {
	_, ok := baseURLs[e]
	return ok
}

// BaseURL returns the API base URL for this environment.
func (e Environment) BaseURL() string {
	return baseURLs[e]
}

// String returns "stage-region".
func (e Environment) String() string {
	return string(e.Stage) + "-" + string(e.Region)
}

// AuthModeKind discriminates AuthMode variants.
type AuthModeKind string

// Auth mode kinds.
const (
	AuthModeAPIKey AuthModeKind = "api_key"
	AuthModeJWT    AuthModeKind = "jwt"
)

// AuthMode is the credential strategy for a configured session.
// Implementations are APIKeyMode and JWTMode.
type AuthMode interface {
	Kind() AuthModeKind
	Env() Environment
	isAuthMode()
}

// APIKeyMode authenticates with a static, host-supplied API key.
type APIKeyMode struct {
	Key         string
	Environment Environment
}

// Kind returns AuthModeAPIKey.
func (APIKeyMode) Kind() AuthModeKind { return AuthModeAPIKey }

// Env returns the environment.
func (m APIKeyMode) Env() Environment { return m.Environment }

func (APIKeyMode) isAuthMode() {}

// JWTMode authenticates with a rotating per-user token obtained by sign-in.
type JWTMode struct {
	Environment Environment
}

// Kind returns AuthModeJWT.
func (JWTMode) Kind() AuthModeKind { return AuthModeJWT }

// Env returns the environment.
func (m JWTMode) Env() Environment { return m.Environment }

func (JWTMode) isAuthMode() {}

// Credential is the header an outbound request must carry.
type Credential struct {
	Header string
	Value  string
}

// TokenPair is an access/refresh pair for one signed-in user.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// IsExpired returns true if the access token expires within leeway.
func (t TokenPair) IsExpired(now time.Time, leeway time.Duration) bool {
	if t.Expiry.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(t.Expiry)
}

// SignInResult describes a completed sign-in.
type SignInResult struct {
	UserID      string
	Environment Environment
}

// ParseEnvironmentName parses the "stage-region" form returned by String.
// A bare stage defaults to the US region.
func ParseEnvironmentName(name string) (Environment, error) {
	stage, region, _ := strings.Cut(strings.TrimSpace(name), "-")
	return ParseEnvironment(stage, region)
}
