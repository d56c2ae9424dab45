package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName      = "bool"
	booleanFlagAcceptedList  = "true, false, yes, no, on, off, 1, 0"
	invalidBooleanFlagFormat = "invalid boolean value %q for --%s; accepted values: %s"
	joinedFlagFormat         = "--%s=%s"
)

var booleanLiterals = map[string]bool{
	"true": true, "t": true, "1": true, "yes": true, "y": true, "on": true,
	"false": false, "f": false, "0": false, "no": false, "n": false, "off": false,
}

func parseBooleanLiteral(input string) (bool, bool) {
	parsed, known := booleanLiterals[strings.ToLower(strings.TrimSpace(input))]
	return parsed, known
}

// literalBoolValue is a pflag.Value for switches that also take yes/no/on/off literals.
type literalBoolValue struct {
	target *bool
	name   string
}

func (value *literalBoolValue) Set(input string) error {
	if strings.TrimSpace(input) == "" {
		*value.target = true
		return nil
	}
	parsed, known := parseBooleanLiteral(input)
	if !known {
		return fmt.Errorf(invalidBooleanFlagFormat, input, value.name, booleanFlagAcceptedList)
	}
	*value.target = parsed
	return nil
}

func (value *literalBoolValue) String() string {
	if value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *literalBoolValue) Type() string { return booleanFlagTypeName }

// registerBooleanFlag adds a switch that works bare (--stdout), with a literal
// (--stdout=no) and, after normalizeBooleanFlagArguments, with a separate
// literal (--stdout no, -s no).
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	*target = defaultValue
	registered := flagSet.VarPF(&literalBoolValue{target: target, name: name}, name, shorthand, usage)
	registered.NoOptDefVal = strconv.FormatBool(true)
}

// normalizeBooleanFlagArguments rewrites "--flag literal" and "-f literal" into
// "--flag=literal" for flags registered with registerBooleanFlag. Arguments
// after "--" are left alone.
func normalizeBooleanFlagArguments(flagSet *pflag.FlagSet, arguments []string) []string {
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == "--" {
			return append(normalized, arguments[index:]...)
		}
		flagName, isSwitch := literalBoolFlagName(flagSet, argument)
		if isSwitch && index+1 < len(arguments) {
			if _, known := parseBooleanLiteral(arguments[index+1]); known {
				normalized = append(normalized, fmt.Sprintf(joinedFlagFormat, flagName, arguments[index+1]))
				index++
				continue
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func literalBoolFlagName(flagSet *pflag.FlagSet, argument string) (string, bool) {
	if strings.Contains(argument, "=") {
		return "", false
	}
	var flag *pflag.Flag
	switch {
	case strings.HasPrefix(argument, "--"):
		flag = flagSet.Lookup(strings.TrimPrefix(argument, "--"))
	case strings.HasPrefix(argument, "-") && len(argument) == 2:
		flag = flagSet.ShorthandLookup(argument[1:])
	}
	if flag == nil {
		return "", false
	}
	if _, isLiteralBool := flag.Value.(*literalBoolValue); !isLiteralBool {
		return "", false
	}
	return flag.Name, true
}
