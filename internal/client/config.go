package client

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/client-go/util/homedir"
	"sigs.k8s.io/yaml"
)

const (
	// TestRootDirEnvKey is the environment variable key used to set the file system root when testing.
	TestRootDirEnvKey = "ASSESSOR_TEST_ROOT_DIR"

	DefaultServer = "http://localhost:3443"
)

// Config holds the information needed to reach the assessor API and the workflow engine webhook.
type Config struct {
	Service Service `json:"service"`
	Webhook Webhook `json:"webhook,omitempty"`
	// User is sent as the acting user when the server runs without token authentication.
	User string `json:"user,omitempty"`
	// Token is a bearer token sent on every API call.
	Token string `json:"token,omitempty"`

	// baseDir is used to resolve relative paths
	// If baseDir is empty, the current working directory is used.
	baseDir string `json:"-"`
	// TestRootDir is the root directory for test files.
	testRootDir string `json:"-"`
}

// Service contains information how to connect to the assessor API server.
type Service struct {
	// Server is the URL of the API server (the part before /api/v1/...).
	Server string `json:"server"`
}

// Webhook points at the workflow engine entry point.
type Webhook struct {
	URL string `json:"url,omitempty"`
	// TimeoutSeconds bounds a single trigger call. Zero means the default.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
}

func (c *Config) Equal(c2 *Config) bool {
	if c == c2 {
		return true
	}
	if c == nil || c2 == nil {
		return false
	}
	return c.Service == c2.Service && c.Webhook == c2.Webhook && c.User == c2.User && c.Token == c2.Token
}

func (c *Config) DeepCopy() *Config {
	if c == nil {
		return nil
	}
	c2 := *c
	return &c2
}

func (c *Config) SetBaseDir(baseDir string) {
	c.baseDir = baseDir
}

func NewDefault() *Config {
	c := &Config{Service: Service{Server: DefaultServer}}

	if value := os.Getenv(TestRootDirEnvKey); value != "" {
		c.testRootDir = filepath.Clean(value)
	}

	return c
}

// DefaultConfigPath returns the default path to the client config file.
func DefaultConfigPath() string {
	return filepath.Join(homedir.HomeDir(), ".assessor", "client.yaml")
}

func (c *Config) path(filename string) string {
	if c.testRootDir == "" {
		return filename
	}
	return filepath.Join(c.testRootDir, filename)
}

func ParseConfigFile(filename string) (*Config, error) {
	config := NewDefault()
	contents, err := os.ReadFile(config.path(filename))
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	config.SetBaseDir(filepath.Dir(filename))
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig reads filename when it exists and falls back to the defaults otherwise.
func LoadConfig(filename string) (*Config, error) {
	config := NewDefault()
	if _, err := os.Stat(config.path(filename)); errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	return ParseConfigFile(filename)
}

// WriteConfig writes a client config file using the given parameters.
func WriteConfig(filename string, server string, webhookURL string, user string) error {
	config := NewDefault()
	config.Service = Service{Server: server}
	config.Webhook = Webhook{URL: webhookURL}
	config.User = user

	return config.Persist(filename)
}

func (c *Config) Persist(filename string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	filename = c.path(filename)
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return errors.Wrap(err, "writing config")
	}
	if err := os.WriteFile(filename, contents, 0600); err != nil {
		return errors.Wrap(err, "writing config")
	}
	return nil
}

func (c *Config) Validate() error {
	validationErrors := make([]error, 0)
	validationErrors = append(validationErrors, validateURL("server", c.Service.Server, true)...)
	validationErrors = append(validationErrors, validateURL("webhook", c.Webhook.URL, false)...)
	if c.Webhook.TimeoutSeconds < 0 {
		validationErrors = append(validationErrors, fmt.Errorf("webhook timeout must not be negative"))
	}
	if len(validationErrors) > 0 {
		return fmt.Errorf("invalid configuration: %v", utilerrors.NewAggregate(validationErrors).Error())
	}
	return nil
}

func validateURL(name, value string, required bool) []error {
	validationErrors := make([]error, 0)
	if len(value) == 0 {
		if required {
			validationErrors = append(validationErrors, fmt.Errorf("no %s found", name))
		}
		return validationErrors
	}

	u, err := url.Parse(value)
	if err != nil {
		validationErrors = append(validationErrors, fmt.Errorf("invalid %s format %q: %w", name, value, err))
	}
	if err == nil && len(u.Hostname()) == 0 {
		validationErrors = append(validationErrors, fmt.Errorf("invalid %s format %q: no hostname", name, value))
	}
	return validationErrors
}
