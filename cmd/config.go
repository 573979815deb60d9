package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"simstage.dev/pkg/simstage/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "simstage"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	projectNameKey   = "project.name"
	scenariosFileKey = "project.scenarios_file"
	defaultGroupKey  = "project.default_group"

	refWorkspaceKey = "reference.workspace"

	sandboxRootKey      = "sandbox.root"
	sandboxWorkspaceKey = "sandbox.workspace"
	configDocNameKey    = "sandbox.config_file"
	requiredFilesKey    = "sandbox.required_files"
	filesToLinkKey      = "sandbox.files_to_link"
	copyAllFilesKey     = "sandbox.copy_all_files"
	executableKey       = "sandbox.executable"

	maxTrialDirsKey = "trials.max_dirs"

	defaultScenariosFile = "scenarios.yaml"
	defaultSandboxRoot   = "sandboxes"
	defaultConfigDocName = "config.yaml"
	defaultExecutable    = "run-model"
	defaultMaxTrialDirs  = 1000

	envPrefix = "SIMSTAGE"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".simstage.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(projectNameKey, "simstage")
	viper.SetDefault(scenariosFileKey, defaultScenariosFile)
	viper.SetDefault(defaultGroupKey, "")
	viper.SetDefault(refWorkspaceKey, "")
	viper.SetDefault(sandboxRootKey, defaultSandboxRoot)
	viper.SetDefault(sandboxWorkspaceKey, "")
	viper.SetDefault(configDocNameKey, defaultConfigDocName)
	viper.SetDefault(requiredFilesKey, []string{})
	viper.SetDefault(filesToLinkKey, []string{})
	viper.SetDefault(copyAllFilesKey, false)
	viper.SetDefault(executableKey, defaultExecutable)
	viper.SetDefault(maxTrialDirsKey, defaultMaxTrialDirs)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	readConfigFile()
}

// readConfigFile loads the settings file if present. A missing file is
// fine, defaults and environment apply; an unreadable or malformed one is
// worth a warning before the run proceeds on defaults. Viper reports a
// missing file as ConfigFileNotFoundError when searching paths and as a
// plain fs.ErrNotExist when the file was set explicitly.
func readConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return
		}

		slog.Warn("could not read settings file", "file", viper.ConfigFileUsed(), "error", err)
	}
}

// runtimeConfig assembles the engine configuration from viper. The result
// is passed by reference into the domain layer; nothing below cmd reads
// viper directly.
func runtimeConfig() (*domain.Config, error) {
	cfg := &domain.Config{
		ProjectName:      viper.GetString(projectNameKey),
		ScenariosFile:    viper.GetString(scenariosFileKey),
		DefaultGroup:     viper.GetString(defaultGroupKey),
		RefWorkspace:     viper.GetString(refWorkspaceKey),
		SandboxRoot:      viper.GetString(sandboxRootKey),
		SandboxWorkspace: viper.GetString(sandboxWorkspaceKey),
		ConfigFileName:   viper.GetString(configDocNameKey),
		RequiredFiles:    viper.GetStringSlice(requiredFilesKey),
		FilesToLink:      viper.GetStringSlice(filesToLinkKey),
		CopyAllFiles:     viper.GetBool(copyAllFilesKey),
		Executable:       viper.GetString(executableKey),
		MaxTrialDirs:     viper.GetInt(maxTrialDirsKey),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
