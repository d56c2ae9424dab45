// Package repository locates local git repositories and clones remote ones.
package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// GitDirectoryName is the metadata directory of a git working tree.
	GitDirectoryName = ".git"
	// DetachedHead is reported as the branch when HEAD is not a symbolic reference.
	DetachedHead = "detached HEAD"

	headFileName         = "HEAD"
	symbolicRefPrefix    = "ref: "
	branchRefPrefix      = "refs/heads/"
	gitDirFilePrefix     = "gitdir:"
	absolutePathFormat   = "failed to get absolute path for %s: %w"
	readHeadFormat       = "read HEAD of %s: %w"
	readGitDirFileFormat = "read %s: %w"
	invalidGitDirFormat  = "%s does not point to a git directory"
)

// ErrNotRepository reports that no git repository encloses the start directory.
var ErrNotRepository = errors.New("no git repository found")

// Local describes a discovered working tree.
type Local struct {
	Root         string
	GitDirectory string
	Branch       string
}

// Discover searches upward from startDirectory for a directory holding .git
// and reports the working tree root and its current branch.
func Discover(startDirectory string) (Local, error) {
	absoluteStartDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return Local{}, fmt.Errorf(absolutePathFormat, startDirectory, absoluteError)
	}

	currentDirectory := absoluteStartDirectory
	for {
		gitPath := filepath.Join(currentDirectory, GitDirectoryName)
		if fileInformation, statError := os.Stat(gitPath); statError == nil {
			gitDirectory, resolveError := resolveGitDirectory(currentDirectory, gitPath, fileInformation.IsDir())
			if resolveError != nil {
				return Local{}, resolveError
			}
			branch, branchError := readBranch(gitDirectory)
			if branchError != nil {
				return Local{}, branchError
			}
			return Local{Root: currentDirectory, GitDirectory: gitDirectory, Branch: branch}, nil
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			break
		}
		currentDirectory = parentDirectory
	}

	return Local{}, fmt.Errorf("%w in or above %s", ErrNotRepository, absoluteStartDirectory)
}

// resolveGitDirectory follows the "gitdir:" indirection used by worktrees and submodules.
//
// #nosec G304
func resolveGitDirectory(workingTree string, gitPath string, isDirectory bool) (string, error) {
	if isDirectory {
		return gitPath, nil
	}
	fileContent, readError := os.ReadFile(gitPath)
	if readError != nil {
		return "", fmt.Errorf(readGitDirFileFormat, gitPath, readError)
	}
	trimmedContent := strings.TrimSpace(string(fileContent))
	if !strings.HasPrefix(trimmedContent, gitDirFilePrefix) {
		return "", fmt.Errorf(invalidGitDirFormat, gitPath)
	}
	target := strings.TrimSpace(strings.TrimPrefix(trimmedContent, gitDirFilePrefix))
	if !filepath.IsAbs(target) {
		target = filepath.Join(workingTree, target)
	}
	return filepath.Clean(target), nil
}

// #nosec G304
func readBranch(gitDirectory string) (string, error) {
	headContent, readError := os.ReadFile(filepath.Join(gitDirectory, headFileName))
	if readError != nil {
		return "", fmt.Errorf(readHeadFormat, gitDirectory, readError)
	}
	return branchFromHead(string(headContent)), nil
}

func branchFromHead(headContent string) string {
	trimmedHead := strings.TrimSpace(headContent)
	if !strings.HasPrefix(trimmedHead, symbolicRefPrefix) {
		return DetachedHead
	}
	reference := strings.TrimSpace(strings.TrimPrefix(trimmedHead, symbolicRefPrefix))
	return strings.TrimPrefix(reference, branchRefPrefix)
}
