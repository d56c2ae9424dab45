// Package patterns compiles exclusion rules into path predicates.
//
// Every user-supplied pattern is a literal substring: it is regex-escaped and
// matched case-insensitively anywhere in the repository-relative path, so
// "*.log" excludes only paths that literally contain "*.log". The built-in
// defaults are the only true regular expressions.
package patterns

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/temirov/repobundle/internal/utils"
)

// ExcludeMode selects which pattern lists are in effect.
type ExcludeMode int

const (
	// ExcludeModeDefault applies the built-in defaults plus any extend patterns.
	ExcludeModeDefault ExcludeMode = iota
	// ExcludeModeReplace applies only the replace patterns.
	ExcludeModeReplace
)

const (
	caseInsensitivePrefix         = "(?i)"
	warningInvalidPattern         = "invalid exclude pattern"
	warningInvalidGlob            = "invalid exclude glob"
	errorUnknownExcludeModeFormat = "unknown exclude mode %d"
)

// DefaultPatterns are the built-in exclusion expressions used in ExcludeModeDefault.
var DefaultPatterns = []string{
	`(?i)\.gitignore`,
	`(?i)renovate\.json`,
	`(?i)requirement.*\.txt`,
	`(?i)\.lock$`,
	`(?i)license(\..*)?`,
	`(?i)\.github`,
	`(?i)\.git`,
	`(?i)\.vscode`,
}

// RuleSet describes the exclusion configuration of one run.
type RuleSet struct {
	Mode ExcludeMode
	// Replace holds the sole literal patterns used in ExcludeModeReplace.
	Replace []string
	// Extend holds literal patterns added to the defaults in ExcludeModeDefault.
	Extend []string
	// Globs are doublestar patterns applied in both modes.
	Globs []string
}

// NewRuleSet returns a replace rule set when replacePatterns is non-nil and a
// default+extend rule set otherwise. extendPatterns are discarded in replace mode.
func NewRuleSet(replacePatterns []string, extendPatterns []string, globs []string) RuleSet {
	if replacePatterns != nil {
		return RuleSet{Mode: ExcludeModeReplace, Replace: replacePatterns, Globs: globs}
	}
	return RuleSet{Mode: ExcludeModeDefault, Extend: extendPatterns, Globs: globs}
}

// Matcher reports whether a relative path is excluded.
type Matcher struct {
	expressions []*regexp.Regexp
	globs       []string
}

// Compile builds a Matcher for ruleSet. A pattern that fails to compile is
// reported to logger and never matches; compilation never aborts.
func Compile(ruleSet RuleSet, logger *zap.Logger) (*Matcher, error) {
	logger = utils.LoggerOrNop(logger)

	var rawExpressions []string
	switch ruleSet.Mode {
	case ExcludeModeReplace:
		rawExpressions = literalExpressions(ruleSet.Replace)
	case ExcludeModeDefault:
		rawExpressions = append(rawExpressions, DefaultPatterns...)
		rawExpressions = append(rawExpressions, literalExpressions(ruleSet.Extend)...)
	default:
		return nil, fmt.Errorf(errorUnknownExcludeModeFormat, ruleSet.Mode)
	}

	matcher := &Matcher{}
	for _, rawExpression := range rawExpressions {
		expression, compileError := regexp.Compile(rawExpression)
		if compileError != nil {
			logger.Warn(warningInvalidPattern, zap.String("pattern", rawExpression), zap.Error(compileError))
			continue
		}
		matcher.expressions = append(matcher.expressions, expression)
	}
	for _, glob := range ruleSet.Globs {
		if !doublestar.ValidatePattern(glob) {
			logger.Warn(warningInvalidGlob, zap.String("pattern", glob))
			continue
		}
		matcher.globs = append(matcher.globs, glob)
	}
	return matcher, nil
}

// Matches reports whether any compiled predicate matches relativePath.
func (matcher *Matcher) Matches(relativePath string) bool {
	if matcher == nil {
		return false
	}
	for _, expression := range matcher.expressions {
		if expression.MatchString(relativePath) {
			return true
		}
	}
	for _, glob := range matcher.globs {
		if matched, _ := doublestar.Match(glob, relativePath); matched {
			return true
		}
	}
	return false
}

func literalExpressions(literals []string) []string {
	expressions := make([]string, 0, len(literals))
	for _, literal := range literals {
		if literal == "" {
			continue
		}
		expressions = append(expressions, caseInsensitivePrefix+regexp.QuoteMeta(literal))
	}
	return expressions
}
