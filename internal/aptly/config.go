package aptly

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
)

// Setup describes the aptly configuration written for one run.
type Setup struct {
	// ConfigPath is the generated config.json handed to every command.
	ConfigPath string

	// RootDir is the aptly root for this run. Databases, staged pools, and
	// the publication output all live below it.
	RootDir string

	// PublicDir is where aptly materializes publications: RootDir/public.
	PublicDir string
}

// Configure writes an aptly configuration into workDir and returns the
// resulting setup.
//
// Without a user configuration, the run uses a fresh root (rootOverride, or
// workDir/.aptly) with a minimal generated config. With one, the user's
// settings are carried over verbatim except for rootDir, which is forced to
// an absolute path: rootOverride wins, otherwise the file's own rootDir is
// kept, resolved relative to the file's directory if relative. A user
// configuration without rootDir and without an override is an error rather
// than a guess.
func Configure(workDir, rootOverride, userConfigPath string) (*Setup, error) {
	configPath := filepath.Join(workDir, constants.AptlyConfigFile)

	var (
		rootDir string
		payload map[string]any
	)

	if userConfigPath != "" {
		absUser, err := filepath.Abs(expandHome(userConfigPath))
		if err != nil {
			return nil, errors.WrapIO("resolve", userConfigPath, err)
		}
		data, err := os.ReadFile(absUser)
		if err != nil {
			return nil, errors.NewConfigError("aptly", "configuration file not readable", err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, errors.WrapParse("json", absUser, err)
		}

		switch {
		case rootOverride != "":
			rootDir, err = filepath.Abs(expandHome(rootOverride))
			if err != nil {
				return nil, errors.WrapIO("resolve", rootOverride, err)
			}
		default:
			raw, _ := payload["rootDir"].(string)
			if raw == "" {
				return nil, errors.NewConfigError("aptly",
					"configuration file lacks rootDir and no root override was given", nil)
			}
			rootDir = expandHome(raw)
			if !filepath.IsAbs(rootDir) {
				rootDir = filepath.Join(filepath.Dir(absUser), rootDir)
			}
		}
		payload["rootDir"] = rootDir
	} else {
		if rootOverride != "" {
			abs, err := filepath.Abs(expandHome(rootOverride))
			if err != nil {
				return nil, errors.WrapIO("resolve", rootOverride, err)
			}
			rootDir = abs
		} else {
			rootDir = filepath.Join(workDir, constants.AptlyHomeDir)
		}
		payload = map[string]any{
			"rootDir":             rootDir,
			"downloadConcurrency": constants.DownloadConcurrency,
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, errors.WrapParse("json", configPath, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(configPath, data, constants.FilePermissions); err != nil {
		return nil, errors.WrapIO("write", configPath, err)
	}
	if err := os.MkdirAll(rootDir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", rootDir, err)
	}

	return &Setup{
		ConfigPath: configPath,
		RootDir:    rootDir,
		PublicDir:  filepath.Join(rootDir, constants.PublicDir),
	}, nil
}

// Runner returns an ExecRunner bound to this setup.
func (s *Setup) Runner() *ExecRunner {
	return &ExecRunner{ConfigPath: s.ConfigPath, RootDir: s.RootDir}
}

// expandHome resolves a leading ~ against the current user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
