package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LoadMatchingPolicy reads a standalone policy YAML file containing only the
// `matching` section.  Fields absent from the file keep their platform
// defaults.  Used both at startup and by WatchMatchingPolicy on each change.
func LoadMatchingPolicy(policyPath string) (*MatchingConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(policyPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read policy file %q: %w", policyPath, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal policy file %q: %w", policyPath, err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: policy file %q invalid: %w", policyPath, err)
	}
	return &cfg.Matching, nil
}

// WatchMatchingPolicy monitors policyPath and invokes onChange with the newly
// parsed matching policy whenever the file is rewritten on disk.  The scoring
// thresholds and penalty magnitudes are operational policy, so operators can
// tune them without a restart.
//
// A change that fails to parse or validate is skipped; the previous policy
// stays in effect.  The returned stop function releases the watcher.
func WatchMatchingPolicy(policyPath string, onChange func(*MatchingConfig)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to create policy watcher: %w", err)
	}

	// Watch the parent directory: editors and config-map mounts typically
	// replace the file atomically, which unregisters a direct file watch.
	dir := filepath.Dir(policyPath)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("config: failed to watch %q: %w", dir, err)
	}

	target := filepath.Clean(policyPath)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				policy, err := LoadMatchingPolicy(policyPath)
				if err != nil {
					continue
				}
				onChange(policy)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher.Close, nil
}
