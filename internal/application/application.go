package application

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// AppName is the application name used for directories and identification
	AppName = "gerritconn"

	// EnvHome overrides the application directory
	EnvHome = "GERRITCONN_HOME"
)

var (
	once   sync.Once
	appDir string
	errDir error
)

// GetApplicationDirectory returns the gerritconn configuration directory path.
// Linux: ~/.config/gerritconn (via os.UserConfigDir)
// Windows: C:\Users\{username}\AppData\Local\gerritconn (via os.UserCacheDir)
// GERRITCONN_HOME takes precedence on every platform.
func GetApplicationDirectory() (string, error) {
	once.Do(lazyLoad)

	if errDir != nil {
		return "", errDir
	}

	return appDir, nil
}

// LogDirectory returns the directory holding the diagnostic log.
func LogDirectory() (string, error) {
	dir, err := GetApplicationDirectory()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "logs"), nil
}

func lazyLoad() {
	if home := os.Getenv(EnvHome); home != "" {
		appDir = home
		return
	}

	var (
		baseDir string
		err     error
	)

	switch runtime.GOOS {
	case "windows":
		// Windows: use AppData\Local (via UserCacheDir)
		baseDir, err = os.UserCacheDir()
	default:
		// Linux/others: use ~/.config (via UserConfigDir)
		baseDir, err = os.UserConfigDir()
	}

	if err != nil {
		errDir = fmt.Errorf("failed to get config directory: %w", err)
		return
	}

	appDir = filepath.Join(baseDir, AppName)
}
