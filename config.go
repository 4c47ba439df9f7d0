package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is everything the commands need, merged from defaults, the config
// file, PAI_* environment variables and flags (later wins)
type Config struct {
	RestServerURI  string         `mapstructure:"rest_server_uri"`
	User           string         `mapstructure:"user"`
	Token          string         `mapstructure:"token"`
	SessionFile    string         `mapstructure:"session_file"`
	LogFile        string         `mapstructure:"log_file"`
	LogLevel       string         `mapstructure:"log_level"`
	Advanced       bool           `mapstructure:"advanced"`
	RequestTimeout time.Duration  `mapstructure:"request_timeout"`
	Plugins        []PluginConfig `mapstructure:"plugins"`
}

// PluginConfig is one entry of the marketplace plugin list
type PluginConfig struct {
	ID    string `mapstructure:"id"`
	URI   string `mapstructure:"uri"`
	Title string `mapstructure:"title"`
}

const (
	configDir          = "~/.paitui"
	envPrefix          = "PAI"
	submissionPluginID = "submit-job-v2"
)

func DefaultConfig() Config {
	return Config{
		RestServerURI:  "http://localhost:9186",
		SessionFile:    filepath.Join(configDir, "session.json"),
		LogFile:        filepath.Join(configDir, "paitui.log"),
		LogLevel:       "info",
		RequestTimeout: 30 * time.Second,
		Plugins: []PluginConfig{
			{ID: "marketplace", Title: "Marketplace"},
			{ID: submissionPluginID, Title: "Submit Job v2"},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("rest_server_uri", d.RestServerURI)
	v.SetDefault("session_file", d.SessionFile)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("advanced", d.Advanced)
	v.SetDefault("request_timeout", d.RequestTimeout)
	plugins := make([]map[string]string, len(d.Plugins))
	for i, p := range d.Plugins {
		plugins[i] = map[string]string{"id": p.ID, "uri": p.URI, "title": p.Title}
	}
	v.SetDefault("plugins", plugins)
}

// addConfigFlags registers the flags every command shares
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to config file (default ~/.paitui/config.yaml)")
	flags.String("rest-server-uri", "", "REST server address")
	flags.String("user", "", "User name")
	flags.String("token", "", "REST server token")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Log file; the terminal belongs to the UI")
	flags.Bool("advanced", false, "Show advanced job settings")
}

var flagKeys = map[string]string{
	"rest-server-uri": "rest_server_uri",
	"user":            "user",
	"token":           "token",
	"log-level":       "log_level",
	"log-file":        "log_file",
	"advanced":        "advanced",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}

// LoadConfig reads the config file if there is one. An explicitly named
// file must exist; the default one is optional.
func LoadConfig(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		path, err := homedir.Expand(configFile)
		if err != nil {
			return Config{}, errors.Wrap(err, "expand config path")
		}
		v.SetConfigFile(path)
	} else {
		dir, err := homedir.Expand(configDir)
		if err != nil {
			return Config{}, errors.Wrap(err, "expand config dir")
		}
		v.SetConfigName("config")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "read config")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return config.expandPaths()
}

func (c Config) expandPaths() (Config, error) {
	for _, p := range []*string{&c.SessionFile, &c.LogFile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return c, errors.Wrapf(err, "expand %s", *p)
		}
		*p = expanded
	}
	return c, nil
}

// withSession fills in whatever the config left empty from a stored login
func (c Config) withSession(s Session) Config {
	if c.Token == "" && s.Token != "" {
		c.Token = s.Token
		if s.User != "" {
			c.User = s.User
		}
		if s.RestServerURI != "" {
			c.RestServerURI = s.RestServerURI
		}
	}
	return c
}

// submissionPluginIndex finds the job submission plugin in the plugin list,
// -1 when it is not installed
func (c Config) submissionPluginIndex() int {
	index := -1
	for i, p := range c.Plugins {
		if p.ID == submissionPluginID {
			index = i
		}
	}
	return index
}

func (c Config) sessionStore() sessionStore {
	return sessionStore{path: c.SessionFile}
}

func (c Config) validate() error {
	if c.RestServerURI == "" {
		return errors.New("rest server uri is not set")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	return nil
}
