package walker

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
	"go.uber.org/zap"
)

const (
	gitDirectoryName     = ".git"
	gitExcludeFileName   = "info/exclude"
	xdgConfigHomeEnv     = "XDG_CONFIG_HOME"
	globalIgnoreRelative = "git/ignore"
	warningIgnoreRule    = "invalid ignore rule"
	warningIgnoreLoad    = "unable to load ignore rules"
)

// ignoreLayers holds the repository, repository-exclude, and global ignore rules.
type ignoreLayers struct {
	layers []gitignore.GitIgnore
}

// loadIgnoreLayers loads nested .gitignore files, .git/info/exclude, and the
// user's global git ignore file. Missing sources are skipped silently.
func loadIgnoreLayers(rootDirectory string, logger *zap.Logger) *ignoreLayers {
	result := &ignoreLayers{}

	repositoryIgnore, repositoryError := gitignore.NewRepository(rootDirectory)
	if repositoryError != nil {
		logger.Warn(warningIgnoreLoad, zap.String("path", rootDirectory), zap.Error(repositoryError))
	} else if repositoryIgnore != nil {
		result.layers = append(result.layers, repositoryIgnore)
	}

	excludePath := filepath.Join(rootDirectory, gitDirectoryName, filepath.FromSlash(gitExcludeFileName))
	if excludeIgnore := loadIgnoreFile(excludePath, rootDirectory, logger); excludeIgnore != nil {
		result.layers = append(result.layers, excludeIgnore)
	}

	if globalPath := globalIgnorePath(); globalPath != "" {
		if globalIgnore := loadIgnoreFile(globalPath, rootDirectory, logger); globalIgnore != nil {
			result.layers = append(result.layers, globalIgnore)
		}
	}

	return result
}

// ignored reports whether any layer ignores relativePath. A negation rule in a
// layer only re-includes paths that the same layer ignores.
func (layers *ignoreLayers) ignored(relativePath string, isDirectory bool) bool {
	if layers == nil {
		return false
	}
	for _, layer := range layers.layers {
		match := layer.Relative(relativePath, isDirectory)
		if match != nil && match.Ignore() {
			return true
		}
	}
	return false
}

// loadIgnoreFile parses one ignore file with patterns anchored at baseDirectory.
//
// #nosec G304
func loadIgnoreFile(filePath string, baseDirectory string, logger *zap.Logger) gitignore.GitIgnore {
	fileHandle, openError := os.Open(filePath)
	if openError != nil {
		if !os.IsNotExist(openError) {
			logger.Warn(warningIgnoreLoad, zap.String("path", filePath), zap.Error(openError))
		}
		return nil
	}
	defer fileHandle.Close()

	return gitignore.New(fileHandle, baseDirectory, func(ruleError gitignore.Error) bool {
		logger.Warn(warningIgnoreRule, zap.String("path", filePath), zap.Error(ruleError))
		return true
	})
}

func globalIgnorePath() string {
	if configHome := strings.TrimSpace(os.Getenv(xdgConfigHomeEnv)); configHome != "" {
		return filepath.Join(configHome, filepath.FromSlash(globalIgnoreRelative))
	}
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil || homeDirectory == "" {
		return ""
	}
	return filepath.Join(homeDirectory, ".config", filepath.FromSlash(globalIgnoreRelative))
}
