package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/deflang/lang"
	"github.com/ardnew/deflang/log"
	"github.com/ardnew/deflang/pkg"
	"github.com/ardnew/deflang/profile"
)

// configFileMode is the permission mode of a generated configuration file.
const configFileMode os.FileMode = 0o600

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%c %s configuration\n", lang.DefaultCommentMarker, pkg.Name)

	if err := configMapping(ktx).Format(ctx, &buf); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	if err := os.WriteFile(confPath, buf.Bytes(), configFileMode); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// ConfigKey returns the identifier under which a flag is stored in a
// configuration file. Identifiers cannot contain hyphens.
func ConfigKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// configMapping collects the current values of the application flags.
func configMapping(ktx *kong.Context) *lang.Mapping {
	m := lang.NewMapping()

	prefixIgnore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if val, ok := flagValue(ktx.FlagValue(flag)); ok {
			m.Set(ConfigKey(flag.Name), val)
		}
	}

	return m
}

// flagValue converts a flag value to a resolved value, or reports false if
// the flag is unset.
func flagValue(val any) (any, bool) {
	if val == nil {
		return nil, false
	}

	switch v := val.(type) {
	case bool:
		return fmt.Sprint(v), true

	case string:
		return v, v != ""

	case int:
		return int64(v), true

	case int64:
		return v, true
	}

	rv := reflect.ValueOf(val)

	switch rv.Kind() {
	case reflect.Slice:
		if rv.Len() == 0 {
			return nil, false
		}

		elems := make([]any, 0, rv.Len())

		for i := range rv.Len() {
			if elem, ok := flagValue(rv.Index(i).Interface()); ok {
				elems = append(elems, elem)
			}
		}

		return elems, true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true

	case reflect.String:
		return rv.String(), rv.Len() > 0

	default:
		return fmt.Sprint(val), true
	}
}
