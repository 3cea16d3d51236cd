package appbase

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path"
	"reflect"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/logging"
	"github.com/spf13/viper"
)

type Context[C any] interface {
	InitContext(settings *AppSettings) error
	ShutdownSignal() error
	Cleanup() error
	Config() *C
	Server() *http.Server
}

type Config struct {
	AppSetting *AppSettings
	// InstanceId ID of the instance. Written to results log with every run.
	// Can be `env://VAR` to take it from environment variable VAR.
	// Default: random uuid
	InstanceId string `mapstructure:"INSTANCE_ID"`

	// HTTPPort port for http server.
	HTTPPort int `mapstructure:"HTTP_PORT" default:"3049"`

	// # AUTH

	// AuthTokens A list of auth tokens that authorizes user in HTTP interface separated by comma.
	// Token may be hashed: `${salt}.${hash}` where hash is `base64(sha512($token + $salt + TokenSecrets))`
	AuthTokens string `mapstructure:"AUTH_TOKENS"`
	// See AuthTokens
	TokenSecrets string `mapstructure:"TOKEN_SECRET"`

	// # LOGGING

	// LogFormat log format. Can be `text` or `json`. Default: `text`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// LogLevel Default: `info`
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
}

func (c *Config) PostInit(settings *AppSettings) error {
	c.AppSetting = settings
	if c.LogFormat == "json" {
		logging.SetJsonFormatter()
	}
	if err := logging.InitGlobalLogger(nil, c.LogLevel); err != nil {
		return err
	}
	if strings.HasPrefix(c.InstanceId, "env://") {
		env := c.InstanceId[len("env://"):]
		c.InstanceId = os.Getenv(env)
		if c.InstanceId != "" {
			logging.Infof("Loaded instance id from env %s: %s", env, c.InstanceId)
		}
	}
	if c.InstanceId == "" {
		c.InstanceId = uuid.NewString()
		logging.Infof("Generated instance id: %s", c.InstanceId)
	}
	return nil
}

func (c *Config) SplitAuthTokens() []string {
	return splitNonEmpty(c.AuthTokens)
}

func (c *Config) SplitTokenSecrets() []string {
	return splitNonEmpty(c.TokenSecrets)
}

func splitNonEmpty(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}

type InstanceConfig interface {
	PostInit(settings *AppSettings) error
}

func initViperVariables[C InstanceConfig](appConfig C) {
	elem := reflect.ValueOf(appConfig).Elem()
	tp := elem.Type()
	modelType := reflect.TypeOf((*InstanceConfig)(nil)).Elem()
	for i := 0; i < tp.NumField(); i++ {
		field := tp.Field(i)
		if reflect.PointerTo(field.Type).Implements(modelType) {
			initViperVariables(elem.Field(i).Addr().Interface().(InstanceConfig))
		} else if field.Type.Kind() == reflect.Struct {
			logging.Fatalf("Application config has incorrect struct field '%s': all structs nested in config must implement interface 'InstanceConfig'", field.Name)
		}
		variable := field.Tag.Get("mapstructure")
		if variable == "" || strings.HasPrefix(variable, ",") {
			continue
		}
		if defaultValue := field.Tag.Get("default"); defaultValue != "" {
			viper.SetDefault(variable, defaultValue)
		} else {
			_ = viper.BindEnv(variable)
		}
	}
}

// InitAppConfig loads config from `{ConfigPath}/{ConfigName}.{ConfigType}` file when it exists
// and from environment variables prefixed with EnvPrefix
func InitAppConfig[C InstanceConfig](appConfig C, settings *AppSettings) error {
	configPath := settings.ConfigPath
	if configPath == "" {
		configPath = "."
	}
	initViperVariables(appConfig)
	viper.SetConfigFile(path.Join(configPath, fmt.Sprintf("%s.%s", settings.ConfigName, settings.ConfigType)))
	viper.SetConfigType(settings.ConfigType)
	viper.SetEnvPrefix(settings.EnvPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		//it is ok to not have config file
		if _, ok := err.(*fs.PathError); !ok {
			return fmt.Errorf("❗error reading config file: %s", err)
		}
	}
	if err := viper.Unmarshal(appConfig); err != nil {
		return fmt.Errorf("❗error unmarshalling config: %s", err)
	}
	if err := appConfig.PostInit(settings); err != nil {
		return fmt.Errorf("❗error initializing config: %s", err)
	}
	return nil
}

type AppSettings struct {
	Name, ConfigPath, ConfigName, ConfigType, EnvPrefix string
}

func (a *AppSettings) EnvPrefixWithUnderscore() string {
	if a.EnvPrefix == "" {
		return ""
	}
	return a.EnvPrefix + "_"
}

type App[C any] struct {
	appContext  Context[C]
	settings    *AppSettings
	exitChannel chan os.Signal
}

func NewApp[C any](appContext Context[C], appSettings *AppSettings) (*App[C], error) {
	logging.SetTextFormatter()
	if err := appContext.InitContext(appSettings); err != nil {
		return nil, fmt.Errorf("failed to start %s: %v", appSettings.Name, err)
	}
	return &App[C]{
		appContext:  appContext,
		settings:    appSettings,
		exitChannel: make(chan os.Signal, 1),
	}, nil
}

// Run serves http until shutdown signal is received
func (a *App[C]) Run() {
	signal.Notify(a.exitChannel, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-a.exitChannel
		logging.Infof("Received signal: %s. Shutting down...", sig)
		if err := a.appContext.ShutdownSignal(); err != nil {
			logging.Errorf("error during shutdown: %s", err)
		}
	}()
	if server := a.appContext.Server(); server != nil {
		logging.Infof("Starting http server on %s", server.Addr)
		logging.Info(server.ListenAndServe())
	}
	if err := a.appContext.Cleanup(); err != nil {
		logging.Errorf("error during cleanup: %s", err)
	}
}

func (a *App[C]) Exit(signal os.Signal) {
	logging.Infof("App Triggered Exit...")
	a.exitChannel <- signal
}
