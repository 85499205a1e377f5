package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configBaseName   = "sealscan"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "SEALSCAN"

	enableFlagName   = "enable"
	disableFlagName  = "disable"
	parallelFlagName = "parallel"
	formatFlagName   = "format"
	logFileFlagName  = "log-file"
	verboseFlagName  = "verbose"

	enableConfigKey   = "categories.enable"
	disableConfigKey  = "categories.disable"
	parallelConfigKey = "run.parallel"
	formatConfigKey   = "output.format"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultParallel      = 0
	defaultFormat        = "text"
	defaultLogLevel      = "warning"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// verbose forces debug logging.
var verbose bool

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(enableConfigKey, []string{})
	viper.SetDefault(disableConfigKey, []string{})
	viper.SetDefault(parallelConfigKey, defaultParallel)
	viper.SetDefault(formatConfigKey, defaultFormat)

	viper.SetDefault(logFilenameKey, "")
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return
		}
		log.Warnf("read %s: %v", configFileName, err)
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(logFileFlagName, "", "write logs to a rotating file instead of stderr")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verbose, verboseFlagName, "v", false, "debug logging")
}

// bindFlagToConfig wires a flag to a config key so config and env values feed
// the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		log.Fatalf("flag for config key %q not found", key)
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// configureLogger sets the logrus level from the config and sends the log to
// a lumberjack file when one is configured.
func configureLogger(logPath string, verbose bool) {
	level, err := log.ParseLevel(viper.GetString(logLevelKey))
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if strings.TrimSpace(logPath) == "" {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	log.SetOutput(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	})
}
