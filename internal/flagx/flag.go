// Package flagx holds small helpers for components that each parse only the
// command-line flags they own.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps only the flags listed in allowedFlags (and their values)
// from args. Both "-f value" and "-f=value" forms are understood; a value
// that starts with "-" is treated as the next flag, not a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// Positional returns the arguments of args that are not flags from
// valueFlags nor their values. It is the complement of FilterArgs and is used
// to find a subcommand among flags owned by other components.
func Positional(args []string, valueFlags []string) []string {
	owned := make(map[string]struct{}, len(valueFlags))
	for _, f := range valueFlags {
		owned[f] = struct{}{}
	}

	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, skip := owned[name]; skip {
				continue
			}
		}
		if _, skip := owned[arg]; skip {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		rest = append(rest, arg)
	}

	return rest
}

// lookupString parses os.Args for a single string flag known under the
// given names; the last occurrence wins.
func lookupString(names ...string) string {
	var value string

	dashed := make([]string, 0, len(names))
	for _, n := range names {
		dashed = append(dashed, "-"+n)
	}

	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}
	_ = fs.Parse(FilterArgs(os.Args[1:], dashed))

	return value
}

// JsonConfigFlags returns the JSON config path given via -c or -config,
// or "" when neither is present.
func JsonConfigFlags() string {
	return lookupString("config", "c")
}

// EnvFileFlags returns the dotenv path given via -env, or "" when absent.
func EnvFileFlags() string {
	return lookupString("env")
}
