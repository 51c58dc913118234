package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/deflang/pkg"
	"github.com/ardnew/deflang/profile"
)

const (
	// configBase is the base name of the configuration file.
	configBase = "config"

	// historyBase is the base name of the REPL history file.
	historyBase = "history.utf8"
)

// dirMode is the permission mode for created directories.
const dirMode os.FileMode = 0o700

// paths locates the per-user directories of the application.
type paths struct {
	config string
	cache  string
}

// userPaths returns the configuration and cache directories of the current
// user, each with a subdirectory named for the application.
//
// The directories are looked up on every call so that changes to
// XDG_CONFIG_HOME and XDG_CACHE_HOME take effect.
func userPaths() paths {
	return paths{
		config: userDir(os.UserConfigDir, ".config"),
		cache:  userDir(os.UserCacheDir, ".cache"),
	}
}

// userDir returns base() joined with the application name. If base fails,
// the home directory joined with homeSub is used, and failing that, the
// working directory.
func userDir(base func() (string, error), homeSub string) string {
	dir, err := base()
	if err != nil {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, homeSub)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, pkg.Name)
}

// configFile returns the path of the configuration file.
func (p paths) configFile() string { return filepath.Join(p.config, configBase) }

// historyFile returns the path of the REPL history file.
func (p paths) historyFile() string { return filepath.Join(p.cache, historyBase) }

// profileDir returns the default output directory for profiles.
func (p paths) profileDir() string { return filepath.Join(p.cache, profile.Tag) }

// mkdirAll creates the configuration and cache directories.
func (p paths) mkdirAll() error {
	for _, dir := range []string{p.config, p.cache} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return err
		}
	}

	return nil
}
