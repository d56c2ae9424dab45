// Package walker enumerates the regular files of a repository that survive
// ignore-file rules and exclusion patterns.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/repobundle/internal/utils"
)

const (
	warningSkipEntry          = "skipping entry"
	debugExcludedByPattern    = "excluded by pattern"
	debugExcludedByIgnoreFile = "excluded by ignore rules"
	errorRootFormat           = "repository root %s: %w"
	errorRootNotDirectory     = "repository root %s is not a directory"
)

// PathMatcher decides whether a repository-relative path is excluded.
type PathMatcher interface {
	Matches(relativePath string) bool
}

// Options configures a walk.
type Options struct {
	Root    string
	Matcher PathMatcher
	Logger  *zap.Logger
}

// Walk returns the forward-slash relative paths of every regular file under
// options.Root that is neither ignored by an ignore layer nor matched by
// options.Matcher. Hidden entries are visited. Entries that cannot be read are
// logged and skipped. Paths are returned in lexical walk order.
func Walk(options Options) ([]string, error) {
	logger := utils.LoggerOrNop(options.Logger)

	absoluteRoot, absoluteError := filepath.Abs(options.Root)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorRootFormat, options.Root, absoluteError)
	}
	rootInfo, statError := os.Stat(absoluteRoot)
	if statError != nil {
		return nil, fmt.Errorf(errorRootFormat, absoluteRoot, statError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(errorRootNotDirectory, absoluteRoot)
	}

	layers := loadIgnoreLayers(absoluteRoot, logger)
	var relativePaths []string

	walkFunction := func(walkedPath string, directoryEntry fs.DirEntry, accessError error) error {
		if accessError != nil {
			logger.Warn(warningSkipEntry, zap.String("path", walkedPath), zap.Error(accessError))
			if directoryEntry != nil && directoryEntry.IsDir() && walkedPath != absoluteRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if walkedPath == absoluteRoot {
			return nil
		}

		relativePath, relativeError := filepath.Rel(absoluteRoot, walkedPath)
		if relativeError != nil {
			logger.Warn(warningSkipEntry, zap.String("path", walkedPath), zap.Error(relativeError))
			return nil
		}
		relativePath = filepath.ToSlash(relativePath)

		if directoryEntry.IsDir() {
			if layers.ignored(relativePath, true) {
				logger.Debug(debugExcludedByIgnoreFile, zap.String("path", relativePath))
				return filepath.SkipDir
			}
			return nil
		}
		if !directoryEntry.Type().IsRegular() {
			return nil
		}
		if layers.ignored(relativePath, false) {
			logger.Debug(debugExcludedByIgnoreFile, zap.String("path", relativePath))
			return nil
		}
		if options.Matcher != nil && options.Matcher.Matches(relativePath) {
			logger.Debug(debugExcludedByPattern, zap.String("path", relativePath))
			return nil
		}
		relativePaths = append(relativePaths, relativePath)
		return nil
	}

	if walkError := filepath.WalkDir(absoluteRoot, walkFunction); walkError != nil {
		return nil, fmt.Errorf(errorRootFormat, absoluteRoot, walkError)
	}
	return relativePaths, nil
}
