package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/pebble/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config.yaml"

// dirMode is the permission mode of created directories. The REPL history
// stored under the cache directory may contain program input.
const dirMode os.FileMode = 0o700

// debugBinary matches the default output name of the dlv debugger.
var debugBinary = regexp.MustCompile(`^__debug_bin\d*$`)

// appName returns the name of the running executable, which names the
// configuration and cache directories. Leading dots are removed, and a dlv
// debug build is named after the package.
var appName = sync.OnceValue(func() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	name := filepath.Base(exe)
	name = strings.TrimLeft(strings.TrimSuffix(name, filepath.Ext(name)), ".")

	if name == "" || debugBinary.MatchString(name) {
		return pkg.Name
	}

	return name
})

// userDir joins the application name to the directory returned by base,
// falling back to fallback under the home directory, and then to the
// working directory.
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, appName())
}

// configDir holds config.yaml, written by the init command.
var configDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// cacheDir holds the REPL history.
var cacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// configPath joins elem to the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return err
		}
	}

	return nil
}
