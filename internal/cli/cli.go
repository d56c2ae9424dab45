// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repobundle/internal/bundle"
	"github.com/temirov/repobundle/internal/config"
	"github.com/temirov/repobundle/internal/patterns"
	"github.com/temirov/repobundle/internal/repository"
	"github.com/temirov/repobundle/internal/sink"
	"github.com/temirov/repobundle/internal/tokenizer"
	"github.com/temirov/repobundle/internal/types"
	"github.com/temirov/repobundle/internal/utils"
)

const (
	rootUse              = "repobundle [repository]"
	rootShortDescription = "bundle a repository into one LLM-ready XML document"
	rootLongDescription  = `repobundle packs a git repository into a single XML document holding the
directory structure and the contents of every text file, and reports the
document size and token count.

Without an argument the current directory must be inside a git repository and
is bundled. With an argument (owner/repo shorthand or a clone URL) the
repository is shallow-cloned into a temporary directory and bundled from there.`
	rootUsageExample = `  # Bundle the current repository into packed-repo.xml
  repobundle

  # Bundle a GitHub repository branch and copy the result to the clipboard
  repobundle temirov/repobundle --branch main --clipboard

  # Print a line-numbered bundle without markdown files
  repobundle --stdout --lnumbers --extend-exclude .md`

	branchFlagName            = "branch"
	fileFlagName              = "file"
	stdoutFlagName            = "stdout"
	modelFlagName             = "model"
	clipboardFlagName         = "clipboard"
	lineNumbersFlagName       = "lnumbers"
	tokenFlagName             = "token"
	versionFlagName           = "version"
	excludeFlagName           = "exclude"
	extendExcludeFlagName     = "extend-exclude"
	excludeFromFlagName       = "exclude-from"
	extendExcludeFromFlagName = "extend-exclude-from"
	excludeGlobFlagName       = "exclude-glob"
	forceUTF8FlagName         = "force-utf8"
	workersFlagName           = "workers"
	configFlagName            = "config"
	noColorFlagName           = "no-color"
	verboseFlagName           = "verbose"
	cloneTimeoutFlagName      = "clone-timeout"
	initConfigFlagName        = "init-config"
	forceFlagName             = "force"

	branchFlagDescription            = "branch to check out for remote repositories"
	fileFlagDescription              = "file name to save the bundle as"
	stdoutFlagDescription            = "write the XML to stdout instead of a file"
	clipboardFlagDescription         = "copy the XML to the clipboard instead of writing a file"
	lineNumbersFlagDescription       = "prefix every line of file content with its line number"
	tokenFlagDescription             = "access token for private repositories"
	versionFlagDescription           = "display application version"
	excludeFlagDescription           = "literal path substring to exclude, replacing the built-in excludes (repeatable)"
	extendExcludeFlagDescription     = "literal path substring to exclude in addition to the built-in excludes (repeatable)"
	excludeFromFlagDescription       = "file of replace-exclude patterns, one per line"
	extendExcludeFromFlagDescription = "file of extend-exclude patterns, one per line"
	excludeGlobFlagDescription       = "doublestar glob to exclude, for example **/*.log (repeatable)"
	forceUTF8FlagDescription         = "transcode files that are not valid UTF-8 instead of substituting invalid bytes"
	workersFlagDescription           = "number of files read ahead in parallel"
	configFlagDescription            = "configuration file to use instead of ./" + config.LocalConfigFileName
	noColorFlagDescription           = "disable colored summary output"
	verboseFlagDescription           = "log debug diagnostics"
	cloneTimeoutFlagDescription      = "maximum time allowed for cloning a remote repository"
	initConfigFlagDescription        = "write a default configuration file and exit; use --init-config=global for the global file"
	forceFlagDescription             = "overwrite an existing configuration file with --init-config"

	versionTemplate             = "repobundle version %s\n"
	configurationWrittenFormat  = "configuration written to %s\n"
	defaultCloneTimeout         = 5 * time.Minute
	defaultWorkers              = 1
	cloneDirectoryPattern       = "repobundle-*"
	cloneSubdirectoryName       = "repository"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	invalidCloneTimeoutFormat   = "invalid clone timeout %q: %w"
	invalidWorkersFormat        = "invalid workers value %d: must be at least 1"
	loadPatternFileFormat       = "load patterns from %s: %w"
	createCloneDirectoryFormat  = "create temporary clone directory: %w"
	notRepositoryMessage        = "no git repository found in the current directory; pass a repository to clone"
	loggerCreationFormat        = "create logger: %w"
)

// Environment carries the process resources the command uses.
type Environment struct {
	Stdout           io.Writer
	Stderr           io.Writer
	WorkingDirectory string
	Copier           sink.Copier
	StderrIsTerminal bool
}

// commandOptions stores the values of every flag.
type commandOptions struct {
	branch            string
	outputFile        string
	stdout            bool
	model             string
	clipboard         bool
	lineNumbers       bool
	token             string
	showVersion       bool
	exclude           []string
	extendExclude     []string
	excludeFrom       string
	extendExcludeFrom string
	excludeGlobs      []string
	forceUTF8         bool
	workers           int
	configPath        string
	noColor           bool
	verbose           bool
	cloneTimeout      time.Duration
	initConfig        string
	force             bool
}

// Execute runs the repobundle application with the process arguments.
func Execute() error {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	environment := Environment{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		WorkingDirectory: workingDirectory,
		Copier:           sink.SystemClipboard{},
		StderrIsTerminal: isTerminal(os.Stderr),
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCommand := createRootCommand(environment)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand.Flags(), os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(environment Environment) *cobra.Command {
	var options commandOptions

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				_, err := fmt.Fprintf(environment.Stdout, versionTemplate, GetApplicationVersion(environment.WorkingDirectory))
				return err
			}
			if options.initConfig != "" {
				destinationPath, initError := config.InitializeConfiguration(config.InitOptions{
					Target:           config.InitTarget(options.initConfig),
					Force:            options.force,
					WorkingDirectory: environment.WorkingDirectory,
				})
				if initError != nil {
					return initError
				}
				_, err := fmt.Fprintf(environment.Stdout, configurationWrittenFormat, destinationPath)
				return err
			}
			repositoryInput := ""
			if len(arguments) == 1 {
				repositoryInput = arguments[0]
			}
			return runBundle(command, environment, options, repositoryInput)
		},
	}

	flagSet := rootCommand.Flags()
	flagSet.StringVarP(&options.branch, branchFlagName, "b", "", branchFlagDescription)
	flagSet.StringVarP(&options.outputFile, fileFlagName, "f", types.DefaultOutputFile, fileFlagDescription)
	registerBooleanFlag(flagSet, &options.stdout, stdoutFlagName, "s", false, stdoutFlagDescription)
	flagSet.StringVarP(&options.model, modelFlagName, "m", tokenizer.DefaultModel, modelFlagUsage())
	registerBooleanFlag(flagSet, &options.clipboard, clipboardFlagName, "c", false, clipboardFlagDescription)
	registerBooleanFlag(flagSet, &options.lineNumbers, lineNumbersFlagName, "l", false, lineNumbersFlagDescription)
	flagSet.StringVarP(&options.token, tokenFlagName, "t", "", tokenFlagDescription)
	flagSet.BoolVarP(&options.showVersion, versionFlagName, "V", false, versionFlagDescription)
	flagSet.StringArrayVar(&options.exclude, excludeFlagName, nil, excludeFlagDescription)
	flagSet.StringArrayVar(&options.extendExclude, extendExcludeFlagName, nil, extendExcludeFlagDescription)
	flagSet.StringVar(&options.excludeFrom, excludeFromFlagName, "", excludeFromFlagDescription)
	flagSet.StringVar(&options.extendExcludeFrom, extendExcludeFromFlagName, "", extendExcludeFromFlagDescription)
	flagSet.StringArrayVar(&options.excludeGlobs, excludeGlobFlagName, nil, excludeGlobFlagDescription)
	registerBooleanFlag(flagSet, &options.forceUTF8, forceUTF8FlagName, "", false, forceUTF8FlagDescription)
	flagSet.IntVar(&options.workers, workersFlagName, defaultWorkers, workersFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(flagSet, &options.noColor, noColorFlagName, "", false, noColorFlagDescription)
	registerBooleanFlag(flagSet, &options.verbose, verboseFlagName, "", false, verboseFlagDescription)
	flagSet.DurationVar(&options.cloneTimeout, cloneTimeoutFlagName, defaultCloneTimeout, cloneTimeoutFlagDescription)
	flagSet.StringVar(&options.initConfig, initConfigFlagName, "", initConfigFlagDescription)
	registerBooleanFlag(flagSet, &options.force, forceFlagName, "", false, forceFlagDescription)
	if initFlag := flagSet.Lookup(initConfigFlagName); initFlag != nil {
		initFlag.NoOptDefVal = string(config.InitTargetLocal)
	}
	return rootCommand
}

func modelFlagUsage() string {
	return fmt.Sprintf("tokenizer model, optionally prefixed with a backend (%s: or %s:); supported models: %v",
		tokenizer.BackendTiktoken, tokenizer.BackendEmbedded, tokenizer.SupportedModelIDs())
}

// runBundle resolves configuration, acquires the repository and runs the pipeline.
func runBundle(command *cobra.Command, environment Environment, options commandOptions, repositoryInput string) error {
	configuration, configurationError := config.LoadConfiguration(config.LoadOptions{
		WorkingDirectory: environment.WorkingDirectory,
		ExplicitFilePath: options.configPath,
	})
	if configurationError != nil {
		return configurationError
	}
	settings, settingsError := resolveSettings(command, options, configuration)
	if settingsError != nil {
		return settingsError
	}
	if _, selectorError := tokenizer.ParseSelector(settings.model); selectorError != nil {
		return selectorError
	}

	logger, loggerError := utils.NewApplicationLogger(options.verbose)
	if loggerError != nil {
		return fmt.Errorf(loggerCreationFormat, loggerError)
	}
	defer func() { _ = logger.Sync() }()

	ctx := command.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bundleRoot := environment.WorkingDirectory
	if repositoryInput != "" {
		cloneDirectory, cloneDirectoryError := os.MkdirTemp("", cloneDirectoryPattern)
		if cloneDirectoryError != nil {
			return fmt.Errorf(createCloneDirectoryFormat, cloneDirectoryError)
		}
		defer func() { _ = os.RemoveAll(cloneDirectory) }()

		bundleRoot = filepath.Join(cloneDirectory, cloneSubdirectoryName)
		logger.Info("cloning repository", zap.String("repository", repositoryInput), zap.String("branch", settings.branch))
		cloneContext, cancelClone := context.WithTimeout(ctx, settings.cloneTimeout)
		cloneError := repository.Clone(cloneContext, repository.CloneRequest{
			Input:       repositoryInput,
			Branch:      settings.branch,
			Token:       settings.token,
			Destination: bundleRoot,
		})
		cancelClone()
		if cloneError != nil {
			return cloneError
		}
	} else {
		local, discoverError := repository.Discover(environment.WorkingDirectory)
		if discoverError != nil {
			if errors.Is(discoverError, repository.ErrNotRepository) {
				return errors.New(notRepositoryMessage)
			}
			return discoverError
		}
		logger.Info("found git repository", zap.String("root", local.Root), zap.String("branch", local.Branch))
	}

	destination := settings.sink(environment)
	result, runError := bundle.Run(ctx, bundle.Options{
		Root:        bundleRoot,
		Excludes:    settings.excludes,
		LineNumbers: settings.lineNumbers,
		ForceUTF8:   settings.forceUTF8,
		Model:       settings.model,
		Sink:        destination,
		Workers:     settings.workers,
		Logger:      logger,
	})
	if runError != nil {
		return runError
	}

	summary := result.Summary(destination)
	if summary.Persisted() {
		useColors := environment.StderrIsTerminal && !options.noColor
		return printSummary(environment.Stderr, summary, useColors)
	}
	return nil
}

// runSettings is the merged result of defaults, configuration files and flags.
type runSettings struct {
	branch       string
	outputFile   string
	stdout       bool
	clipboard    bool
	model        string
	lineNumbers  bool
	forceUTF8    bool
	token        string
	workers      int
	cloneTimeout time.Duration
	excludes     patterns.RuleSet
}

func (settings runSettings) sink(environment Environment) sink.Sink {
	switch {
	case settings.stdout:
		return sink.StreamSink{Writer: environment.Stdout}
	case settings.clipboard:
		return sink.ClipboardSink{Copier: environment.Copier}
	default:
		outputPath := settings.outputFile
		if !filepath.IsAbs(outputPath) {
			outputPath = filepath.Join(environment.WorkingDirectory, outputPath)
		}
		return sink.FileSink{Path: outputPath}
	}
}

// resolveSettings overlays explicitly changed flags onto the configuration file values.
func resolveSettings(command *cobra.Command, options commandOptions, configuration config.Configuration) (runSettings, error) {
	flagSet := command.Flags()
	changed := func(name string) bool { return flagSet.Changed(name) }

	settings := runSettings{
		branch:       firstNonEmpty(configuration.Branch, options.branch),
		outputFile:   firstNonEmpty(configuration.OutputFile, options.outputFile),
		stdout:       config.BoolValue(configuration.Stdout, options.stdout),
		clipboard:    config.BoolValue(configuration.Clipboard, options.clipboard),
		model:        firstNonEmpty(configuration.Model, options.model),
		lineNumbers:  config.BoolValue(configuration.LineNumbers, options.lineNumbers),
		forceUTF8:    config.BoolValue(configuration.ForceUTF8, options.forceUTF8),
		token:        firstNonEmpty(configuration.Token, options.token),
		workers:      options.workers,
		cloneTimeout: options.cloneTimeout,
	}
	if configuration.Workers != nil {
		settings.workers = *configuration.Workers
	}
	if configuration.CloneTimeout != "" {
		parsedTimeout, parseError := time.ParseDuration(configuration.CloneTimeout)
		if parseError != nil {
			return runSettings{}, fmt.Errorf(invalidCloneTimeoutFormat, configuration.CloneTimeout, parseError)
		}
		settings.cloneTimeout = parsedTimeout
	}

	if changed(branchFlagName) {
		settings.branch = options.branch
	}
	if changed(fileFlagName) {
		settings.outputFile = options.outputFile
	}
	if changed(stdoutFlagName) {
		settings.stdout = options.stdout
	}
	if changed(clipboardFlagName) {
		settings.clipboard = options.clipboard
	}
	if changed(modelFlagName) {
		settings.model = options.model
	}
	if changed(lineNumbersFlagName) {
		settings.lineNumbers = options.lineNumbers
	}
	if changed(forceUTF8FlagName) {
		settings.forceUTF8 = options.forceUTF8
	}
	if changed(tokenFlagName) {
		settings.token = options.token
	}
	if changed(workersFlagName) {
		settings.workers = options.workers
	}
	if changed(cloneTimeoutFlagName) {
		settings.cloneTimeout = options.cloneTimeout
	}
	if settings.workers < 1 {
		return runSettings{}, fmt.Errorf(invalidWorkersFormat, settings.workers)
	}

	replacePatterns := configuration.Exclude
	if changed(excludeFlagName) || changed(excludeFromFlagName) {
		flagPatterns, loadError := collectPatterns(options.exclude, options.excludeFrom)
		if loadError != nil {
			return runSettings{}, loadError
		}
		replacePatterns = flagPatterns
	}
	extendPatterns := configuration.ExtendExclude
	if changed(extendExcludeFlagName) || changed(extendExcludeFromFlagName) {
		flagPatterns, loadError := collectPatterns(options.extendExclude, options.extendExcludeFrom)
		if loadError != nil {
			return runSettings{}, loadError
		}
		extendPatterns = append(append([]string{}, extendPatterns...), flagPatterns...)
	}
	globs := append(append([]string{}, configuration.ExcludeGlob...), options.excludeGlobs...)
	settings.excludes = patterns.NewRuleSet(replacePatterns, config.DeduplicatePatterns(extendPatterns), config.DeduplicatePatterns(globs))
	return settings, nil
}

// collectPatterns joins repeated flag values with the contents of an optional pattern file.
// The result is never nil so an explicit empty replace list stays distinguishable.
func collectPatterns(flagValues []string, patternFilePath string) ([]string, error) {
	collected := append([]string{}, flagValues...)
	if patternFilePath != "" {
		filePatterns, loadError := config.LoadPatternFile(patternFilePath)
		if loadError != nil {
			return nil, fmt.Errorf(loadPatternFileFormat, patternFilePath, loadError)
		}
		collected = append(collected, filePatterns...)
	}
	return config.DeduplicatePatterns(collected), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
