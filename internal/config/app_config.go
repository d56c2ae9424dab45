package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// ApplicationName names the global configuration directory.
	ApplicationName = "repobundle"
	// GlobalConfigFileName is the configuration file inside the global configuration directory.
	GlobalConfigFileName = "config.toml"
	// LocalConfigFileName is the configuration file looked up in the working directory.
	LocalConfigFileName = "repobundle.toml"

	xdgConfigHomeVariable    = "XDG_CONFIG_HOME"
	userConfigDirectoryName  = ".config"
	resolveWorkingDirError   = "determine working directory: %w"
	resolveConfigPathError   = "resolve configuration path %s: %w"
	statConfigurationError   = "stat configuration %s: %w"
	configurationIsDirectory = "configuration path %s is a directory"
	readConfigurationError   = "read configuration from %s: %w"
	decodeConfigurationError = "decode configuration from %s: %w"
)

// LoadOptions controls how configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// Configuration holds file-provided defaults. Pointer fields distinguish an
// explicit false or zero from an unset key.
type Configuration struct {
	OutputFile    string   `mapstructure:"output_file"`
	Stdout        *bool    `mapstructure:"stdout"`
	Model         string   `mapstructure:"model"`
	Clipboard     *bool    `mapstructure:"clipboard"`
	LineNumbers   *bool    `mapstructure:"line_numbers"`
	ForceUTF8     *bool    `mapstructure:"force_utf8"`
	Token         string   `mapstructure:"token"`
	Branch        string   `mapstructure:"branch"`
	Exclude       []string `mapstructure:"exclude"`
	ExtendExclude []string `mapstructure:"extend_exclude"`
	ExcludeGlob   []string `mapstructure:"exclude_glob"`
	Workers       *int     `mapstructure:"workers"`
	CloneTimeout  string   `mapstructure:"clone_timeout"`
}

// GlobalConfigPath returns the global configuration file location.
func GlobalConfigPath() (string, error) {
	if configHome := os.Getenv(xdgConfigHomeVariable); configHome != "" {
		return filepath.Join(configHome, ApplicationName, GlobalConfigFileName), nil
	}
	homeDirectory, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDirectory, userConfigDirectoryName, ApplicationName, GlobalConfigFileName), nil
}

// LoadConfiguration loads the global file, then the local or explicit file over it.
func LoadConfiguration(options LoadOptions) (Configuration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return Configuration{}, fmt.Errorf(resolveWorkingDirError, err)
		}
		workingDirectory = currentDirectory
	}

	var merged Configuration

	if globalPath, err := GlobalConfigPath(); err == nil {
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return Configuration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return Configuration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return Configuration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf(resolveConfigPathError, explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (Configuration, error) {
	if path == "" {
		return Configuration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return Configuration{}, nil
		}
		return Configuration{}, fmt.Errorf(statConfigurationError, path, statErr)
	}
	if info.IsDir() {
		return Configuration{}, fmt.Errorf(configurationIsDirectory, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return Configuration{}, fmt.Errorf(readConfigurationError, path, readErr)
	}
	var config Configuration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return Configuration{}, fmt.Errorf(decodeConfigurationError, path, decodeErr)
	}
	if reader.IsSet("exclude") && config.Exclude == nil {
		config.Exclude = []string{}
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
// An exclude list present in override replaces the receiver's, even when empty.
func (config Configuration) Merge(override Configuration) Configuration {
	result := config
	if override.OutputFile != "" {
		result.OutputFile = override.OutputFile
	}
	if override.Stdout != nil {
		result.Stdout = cloneBool(override.Stdout)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.LineNumbers != nil {
		result.LineNumbers = cloneBool(override.LineNumbers)
	}
	if override.ForceUTF8 != nil {
		result.ForceUTF8 = cloneBool(override.ForceUTF8)
	}
	if override.Token != "" {
		result.Token = override.Token
	}
	if override.Branch != "" {
		result.Branch = override.Branch
	}
	if override.Exclude != nil {
		result.Exclude = DeduplicatePatterns(override.Exclude)
	}
	if len(override.ExtendExclude) > 0 {
		result.ExtendExclude = DeduplicatePatterns(override.ExtendExclude)
	}
	if len(override.ExcludeGlob) > 0 {
		result.ExcludeGlob = DeduplicatePatterns(override.ExcludeGlob)
	}
	if override.Workers != nil {
		result.Workers = cloneInt(override.Workers)
	}
	if override.CloneTimeout != "" {
		result.CloneTimeout = override.CloneTimeout
	}
	return result
}

// BoolValue dereferences value, returning fallback when it is unset.
func BoolValue(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
