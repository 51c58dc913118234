package cli

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/deflang/log"
)

type logConfig struct {
	Level      string `default:"${logLevel}"  enum:"${logLevelEnum}"  help:"Set log level (${enum})."`
	Format     string `default:"${logFormat}" enum:"${logFormatEnum}" help:"Set log format (${enum})."`
	TimeLayout string `default:"RFC3339"                              help:"Set timestamp format."`
	Caller     bool   `default:"false"                                help:"Include caller information."       negatable:""`
	Pretty     bool   `default:"true"                                 help:"Enable colorized pretty printing." negatable:""`

	out io.Writer `kong:"-"`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevel":      log.DefaultLevel.String(),
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormat":     log.DefaultFormat.String(),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) groups() []kong.Group {
	return []kong.Group{{Key: "log", Title: "Logging options"}}
}

// apply replaces the package-level logger with one configured by f.
func (f *logConfig) apply() {
	log.Config(
		log.WithOutput(f.out),
		log.WithLevel(log.ParseLevel(f.Level)),
		log.WithFormat(log.ParseFormat(f.Format)),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)
}

// start applies the parsed flag values, including those taken from the
// configuration file.
func (f *logConfig) start(ctx context.Context) {
	f.apply()

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", f.Level),
		slog.String("format", f.Format),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan applies logger flags found in args before kong parses them, so that
// messages logged while parsing already honor them.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			break
		}

		name, value, assigned := strings.Cut(args[i], "=")

		// Value flags consume the next argument unless assigned inline.
		next := func() string {
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++

				return args[i]
			}

			return value
		}

		switch name {
		case "--log-level":
			f.Level = next()

		case "--log-format":
			f.Format = next()

		case "--log-caller", "--no-log-caller":
			f.Caller = scanBool(name, value, assigned, f.Caller)

		case "--log-pretty", "--no-log-pretty":
			f.Pretty = scanBool(name, value, assigned, f.Pretty)
		}
	}

	f.apply()
}

// scanBool returns the value of a boolean flag named name. Booleans only
// take a value when assigned with "=". Unparseable values keep current.
func scanBool(name, value string, assigned, current bool) bool {
	v := true

	if assigned {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return current
		}

		v = b
	}

	if strings.HasPrefix(name, "--no-") {
		return !v
	}

	return v
}
