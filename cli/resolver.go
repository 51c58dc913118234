package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/deflang/cli/cmd"
	"github.com/ardnew/deflang/lang"
	"github.com/ardnew/deflang/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in deflang.
//
// Every output key supplies the flag of the same name, with underscores in
// place of hyphens:
//
//	def level := q(debug) ;
//	log_level = level ;      % --log-level=debug
//	log_pretty = q(false) ;  % --log-pretty=false
//	indent = 4 ;             % --indent=4
//
// A file that does not evaluate is logged and ignored. Command-line flags
// override configured values.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		m, err := lang.EvaluateReader(ctx, r, lang.WithLogger(log.Default()))
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration file",
				slog.Any("error", err))

			return config{}, nil
		}

		cfg := make(config, m.Len())
		for key, val := range m.All() {
			cfg[key] = flagValue(val)
		}

		return cfg, nil
	}
}

// config implements [kong.Resolver] over an evaluated configuration file.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[cmd.ConfigKey(flag.Name)]; ok {
		return value, nil
	}

	// Not configured; kong uses the default.
	return nil, nil
}

// flagValue converts a resolved value to a form kong can decode.
// Kong parses numbers from strings.
func flagValue(val any) any {
	switch v := val.(type) {
	case int64:
		return strconv.FormatInt(v, 10)

	case []any:
		elems := make([]any, len(v))
		for i, elem := range v {
			elems[i] = flagValue(elem)
		}

		return elems

	default:
		return v
	}
}
