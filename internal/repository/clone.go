package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

const (
	gitExecutable         = "git"
	githubURLFormat       = "https://github.com/%s.git"
	tokenUsername         = "oauth2"
	redactedToken         = "***"
	terminalPromptSetting = "GIT_TERMINAL_PROMPT=0"
	fileScheme            = "file"
	httpScheme            = "http"
	httpsScheme           = "https"
)

var shorthandExpression = regexp.MustCompile(`^[\w\-]+/[\w\-]+$`)

// CloneErrorKind classifies clone failures.
type CloneErrorKind int

const (
	CloneErrorOther CloneErrorKind = iota
	CloneErrorInvalidInput
	CloneErrorBranchNotFound
	CloneErrorNotFound
	CloneErrorNetwork
	CloneErrorTimeout
)

// CloneError reports a failed clone. Output never contains the access token.
type CloneError struct {
	Kind   CloneErrorKind
	Input  string
	Branch string
	Output string
	Err    error
}

func (cloneError *CloneError) Error() string {
	switch cloneError.Kind {
	case CloneErrorInvalidInput:
		return fmt.Sprintf("invalid repository %q: expected a URL or owner/repo shorthand", cloneError.Input)
	case CloneErrorBranchNotFound:
		return fmt.Sprintf("the branch %q does not exist in the repository %s", cloneError.Branch, cloneError.Input)
	case CloneErrorNotFound:
		return fmt.Sprintf("the repository %s does not exist or requires authentication; provide a token with --token for private repositories", cloneError.Input)
	case CloneErrorNetwork:
		return fmt.Sprintf("network error while cloning %s: %s", cloneError.Input, cloneError.detail())
	case CloneErrorTimeout:
		return fmt.Sprintf("cloning %s timed out", cloneError.Input)
	default:
		return fmt.Sprintf("failed to clone %s: %s", cloneError.Input, cloneError.detail())
	}
}

func (cloneError *CloneError) Unwrap() error {
	return cloneError.Err
}

func (cloneError *CloneError) detail() string {
	if cloneError.Output != "" {
		return cloneError.Output
	}
	if cloneError.Err != nil {
		return cloneError.Err.Error()
	}
	return "unknown error"
}

// CloneRequest describes a shallow clone.
type CloneRequest struct {
	Input       string
	Branch      string
	Token       string
	Destination string
}

// ResolveURL expands owner/repo shorthand to a GitHub URL and accepts absolute URLs unchanged.
func ResolveURL(input string) (string, error) {
	trimmedInput := strings.TrimSpace(input)
	if parsedURL, parseError := url.Parse(trimmedInput); parseError == nil && parsedURL.Scheme != "" {
		if parsedURL.Host != "" || parsedURL.Scheme == fileScheme {
			return trimmedInput, nil
		}
	}
	if shorthandExpression.MatchString(trimmedInput) {
		return fmt.Sprintf(githubURLFormat, trimmedInput), nil
	}
	return "", &CloneError{Kind: CloneErrorInvalidInput, Input: input}
}

// AuthenticatedURL embeds token as oauth2 credentials in HTTP(S) URLs.
func AuthenticatedURL(repositoryURL string, token string) (string, error) {
	if token == "" {
		return repositoryURL, nil
	}
	parsedURL, parseError := url.Parse(repositoryURL)
	if parseError != nil {
		return "", parseError
	}
	if parsedURL.Scheme != httpScheme && parsedURL.Scheme != httpsScheme {
		return repositoryURL, nil
	}
	parsedURL.User = url.UserPassword(tokenUsername, token)
	return parsedURL.String(), nil
}

// Clone performs a depth-one clone of request.Input into request.Destination
// using the git executable. Destination must not exist or be empty.
func Clone(ctx context.Context, request CloneRequest) error {
	repositoryURL, resolveError := ResolveURL(request.Input)
	if resolveError != nil {
		return resolveError
	}
	cloneURL, authError := AuthenticatedURL(repositoryURL, request.Token)
	if authError != nil {
		return &CloneError{Kind: CloneErrorInvalidInput, Input: request.Input, Err: authError}
	}

	arguments := []string{"clone", "--depth", "1", "--quiet"}
	if request.Branch != "" {
		arguments = append(arguments, "--branch", request.Branch)
	}
	arguments = append(arguments, cloneURL, request.Destination)

	// #nosec G204
	command := exec.CommandContext(ctx, gitExecutable, arguments...)
	command.Env = append(os.Environ(), terminalPromptSetting)
	var errorOutput bytes.Buffer
	command.Stderr = &errorOutput

	if runError := command.Run(); runError != nil {
		output := strings.TrimSpace(errorOutput.String())
		if request.Token != "" {
			output = strings.ReplaceAll(output, request.Token, redactedToken)
		}
		kind := classifyCloneFailure(output, request.Branch)
		if ctxError := ctx.Err(); errors.Is(ctxError, context.DeadlineExceeded) {
			kind = CloneErrorTimeout
			runError = ctxError
		}
		return &CloneError{Kind: kind, Input: request.Input, Branch: request.Branch, Output: output, Err: runError}
	}
	return nil
}

func classifyCloneFailure(output string, branch string) CloneErrorKind {
	loweredOutput := strings.ToLower(output)
	switch {
	case branch != "" && (strings.Contains(loweredOutput, "remote branch") || strings.Contains(loweredOutput, "not found in upstream")):
		return CloneErrorBranchNotFound
	case strings.Contains(loweredOutput, "repository not found"),
		strings.Contains(loweredOutput, "authentication failed"),
		strings.Contains(loweredOutput, "could not read username"),
		strings.Contains(loweredOutput, "terminal prompts disabled"),
		strings.Contains(loweredOutput, "does not appear to be a git repository"),
		strings.Contains(loweredOutput, "error: 404"):
		return CloneErrorNotFound
	case strings.Contains(loweredOutput, "could not resolve host"),
		strings.Contains(loweredOutput, "failed to connect"),
		strings.Contains(loweredOutput, "connection timed out"),
		strings.Contains(loweredOutput, "connection refused"),
		strings.Contains(loweredOutput, "unable to access"):
		return CloneErrorNetwork
	default:
		return CloneErrorOther
	}
}
