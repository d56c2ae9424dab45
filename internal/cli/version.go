package cli

import (
	"os/exec"
	"runtime/debug"
	"strings"

	"github.com/temirov/repobundle/internal/repository"
)

const (
	unknownVersion     = "unknown"
	develBuildVersion  = "(devel)"
	gitExecutableName  = "git"
	describeSubcommand = "describe"
)

// GetApplicationVersion reports the module version from build info, falling
// back to git describe in the enclosing checkout of startDirectory.
func GetApplicationVersion(startDirectory string) string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != develBuildVersion {
		return buildInfo.Main.Version
	}

	local, discoverError := repository.Discover(startDirectory)
	if discoverError != nil {
		return unknownVersion
	}
	for _, describeArguments := range [][]string{
		{describeSubcommand, "--tags", "--exact-match"},
		{describeSubcommand, "--tags", "--long", "--dirty"},
	} {
		// #nosec G204
		describeCommand := exec.Command(gitExecutableName, describeArguments...)
		describeCommand.Dir = local.Root
		describeOutput, describeError := describeCommand.Output()
		if describeError == nil && len(describeOutput) > 0 {
			return strings.TrimSpace(string(describeOutput))
		}
	}
	return unknownVersion
}
