package config

import (
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"net/url"
	"os"
	"strings"
	"time"
)

// Key is a config key as used by viper
type Key string

const (
	// GeneralRunMode defines the application run mode.
	// debug|release|test
	GeneralRunMode Key = "general_run_mode"

	// GeneralLogLevel sets the logrus Logger level
	// info|warn|debug|trace
	GeneralLogLevel Key = "general_log_level"

	// GeneralLogColour toggles between colourised console output
	// true|false
	GeneralLogColour Key = "general_log_colour"

	// TrackerURL is the public announce base url handed out to users, the personal
	// key is appended as the last path segment
	// udp://tracker.example.com:6969|https://tracker.example.com/announce
	TrackerURL Key = "tracker_url"
	// TrackerAPIURL is the base url of the tracker admin API
	// http://localhost:1212
	TrackerAPIURL Key = "tracker_api_url"
	// TrackerToken is the admin API token. Never logged.
	TrackerToken Key = "tracker_token"
	// TrackerTokenValidSeconds is the lifetime of newly issued user keys
	// 7257600
	TrackerTokenValidSeconds Key = "tracker_token_valid_seconds"
	// TrackerRequestTimeout bounds every single admin API request
	// 5s
	TrackerRequestTimeout Key = "tracker_request_timeout"

	// ImporterConcurrency is the maximum number of in flight tracker lookups
	// 10
	ImporterConcurrency Key = "importer_concurrency"
	// ImporterPageSize is how many info hashes are read from the store at once
	// 500
	ImporterPageSize Key = "importer_page_size"
	// ImporterRateLimit caps tracker lookups per second, 0 disables the cap
	// 0|50
	ImporterRateLimit Key = "importer_rate_limit"
	// ImporterInterval is the time between import passes when the importer is run
	// in loop mode. 0 runs a single pass.
	// 0|30m
	ImporterInterval Key = "importer_interval"

	// APIListen sets the host and port that the index API should bind to
	// localhost:34001
	APIListen Key = "api_listen"

	// StoreType sets the backing store driver
	// memory|redis|postgres|mysql
	StoreType Key = "store_type"
	// StoreHost is the host to connect to
	StoreHost Key = "store_host"
	// StorePort is the port to connect to
	// 3306|5432|6379
	StorePort Key = "store_port"
	// StoreUser user to connect with
	StoreUser Key = "store_user"
	// StorePassword password to connect with
	StorePassword Key = "store_password"
	// StoreDatabase is the database / schema name to open on the backing store
	// Redis uses numeric values 0-16 by default
	// tindex|0
	StoreDatabase Key = "store_database"
	// StoreProperties are additional properties passed to the backing store configuration
	StoreProperties Key = "store_properties"
)

var validate = validator.New()

// TrackerConfig holds everything needed to talk to the tracker
type TrackerConfig struct {
	URL               string        `validate:"required"`
	APIURL            string        `validate:"required,url"`
	Token             string        `validate:"required"`
	TokenValidSeconds uint64        `validate:"gt=0"`
	RequestTimeout    time.Duration `validate:"gt=0"`
}

// String implements fmt.Stringer with the token redacted
func (c TrackerConfig) String() string {
	return fmt.Sprintf("url=%s api_url=%s token=*** token_valid_seconds=%d request_timeout=%s",
		c.URL, c.APIURL, c.TokenValidSeconds, c.RequestTimeout)
}

// ImporterConfig holds the statistics importer tuning values
type ImporterConfig struct {
	Concurrency int           `validate:"gte=1"`
	PageSize    int           `validate:"gte=1"`
	RateLimit   float64       `validate:"gte=0"`
	Interval    time.Duration `validate:"gte=0"`
}

// StoreConfig provides a common config struct for backing stores
type StoreConfig struct {
	Type       string `validate:"required"`
	Host       string
	Port       int `validate:"gte=0,lte=65535"`
	Username   string
	Password   string
	Database   string
	Properties string
}

// String implements fmt.Stringer with the password redacted
func (c StoreConfig) String() string {
	return fmt.Sprintf("type=%s host=%s port=%d user=%s password=*** database=%s",
		c.Type, c.Host, c.Port, c.Username, c.Database)
}

// DSN constructs a URI for database connection strings
//
// [user]:[password]@tcp([host]:[port])[/database][?properties]
func (c StoreConfig) DSN() string {
	props := c.Properties
	if props != "" {
		props = "?" + props
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, props)
}

// URL constructs a URL style connection string
//
// postgres://[user]:[password]@[host]:[port][/database][?properties]
func (c StoreConfig) URL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: c.Properties,
	}
	return u.String()
}

// GetTrackerConfig returns the tracker connection settings
func GetTrackerConfig() TrackerConfig {
	return TrackerConfig{
		URL:               strings.TrimRight(GetString(TrackerURL), "/"),
		APIURL:            strings.TrimRight(GetString(TrackerAPIURL), "/"),
		Token:             GetString(TrackerToken),
		TokenValidSeconds: viper.GetUint64(string(TrackerTokenValidSeconds)),
		RequestTimeout:    GetDuration(TrackerRequestTimeout),
	}
}

// GetImporterConfig returns the statistics importer settings
func GetImporterConfig() ImporterConfig {
	return ImporterConfig{
		Concurrency: GetInt(ImporterConcurrency),
		PageSize:    GetInt(ImporterPageSize),
		RateLimit:   viper.GetFloat64(string(ImporterRateLimit)),
		Interval:    GetDuration(ImporterInterval),
	}
}

// GetStoreConfig returns the config options for the backing store
func GetStoreConfig() StoreConfig {
	return StoreConfig{
		Type:       GetString(StoreType),
		Host:       GetString(StoreHost),
		Port:       GetInt(StorePort),
		Username:   GetString(StoreUser),
		Password:   GetString(StorePassword),
		Database:   GetString(StoreDatabase),
		Properties: GetString(StoreProperties),
	}
}

// Validate checks a typed config struct, returning ErrInvalidConfig wrapping the
// offending fields
func Validate(cfg interface{}) error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(consts.ErrInvalidConfig, err.Error())
	}
	return nil
}

// GetString returns a string value from the config
func GetString(key Key) string {
	return viper.GetString(string(key))
}

// GetInt returns a int value from the config
func GetInt(key Key) int {
	return viper.GetInt(string(key))
}

// GetBool returns a bool value from the config
func GetBool(key Key) bool {
	return viper.GetBool(string(key))
}

// GetDuration returns a duration value from the config
func GetDuration(key Key) time.Duration {
	return viper.GetDuration(string(key))
}

func setDefaults() {
	viper.SetDefault(string(GeneralRunMode), "release")
	viper.SetDefault(string(GeneralLogLevel), "info")
	viper.SetDefault(string(GeneralLogColour), false)
	viper.SetDefault(string(TrackerURL), "udp://localhost:6969")
	viper.SetDefault(string(TrackerAPIURL), "http://localhost:1212")
	viper.SetDefault(string(TrackerTokenValidSeconds), 7257600)
	viper.SetDefault(string(TrackerRequestTimeout), "5s")
	viper.SetDefault(string(ImporterConcurrency), 10)
	viper.SetDefault(string(ImporterPageSize), 500)
	viper.SetDefault(string(ImporterRateLimit), 0)
	viper.SetDefault(string(ImporterInterval), "0s")
	viper.SetDefault(string(APIListen), "localhost:34001")
	viper.SetDefault(string(StoreType), "memory")
}

// Read reads in config file and ENV variables if set.
func Read(cfgFile string) error {
	setDefaults()
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else if os.Getenv("INDEX_CONFIG") != "" {
		viper.SetConfigFile(os.Getenv("INDEX_CONFIG"))
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			return errors.Wrap(consts.ErrInvalidConfig, err.Error())
		}
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.AddConfigPath("../")
		viper.SetConfigName("tindex")
	}
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return consts.ErrInvalidConfig
		}
		log.Debugf("No config file found, using defaults and environment")
	} else {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
	if err := setupLogger(GetString(GeneralLogLevel), GetBool(GeneralLogColour)); err != nil {
		return err
	}
	gin.SetMode(GetString(GeneralRunMode))
	return nil
}

func setupLogger(levelStr string, colour bool) error {
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return errors.Wrapf(consts.ErrInvalidConfig, "invalid log level: %s", levelStr)
	}
	log.SetFormatter(&log.TextFormatter{
		ForceColors:   colour,
		FullTimestamp: true,
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(level)
	return nil
}
