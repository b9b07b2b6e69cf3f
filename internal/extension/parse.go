package extension

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/pkgmux/internal/action"
	"github.com/blackwell-systems/pkgmux/internal/event"
)

// ConfFile is the extension config filename inside each extension dir.
const ConfFile = "plugin.conf"

// ParseConf parses a plugin.conf file. The format is line based:
//
//	# comment
//	name=notifier
//	enabled=true
//	description=Desktop notifications
//	version=1.0
//	author=ops
//
//	[post-install-success]
//	action=notify:Installed $packages
//	action=log:install ok
//
// Metadata keys appear before the first section. Each [event] section
// collects repeated action= lines, which is why this is not parsed as
// TOML or INI (duplicate keys are the point). Unknown event names and
// malformed actions are errors: a bad config is rejected at load time
// rather than surfacing mid-operation.
func ParseConf(path string) (*Extension, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ext := &Extension{
		Enabled:       true,
		Dir:           filepath.Dir(path),
		Subscriptions: make(map[event.Name][]action.Action),
	}

	var current event.Name
	lineNo := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Section header: [event-name]
		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, fmt.Errorf("%s:%d: unterminated section header %q", path, lineNo, line)
			}
			name := event.Name(strings.TrimSpace(line[1 : len(line)-1]))
			if !name.Valid() {
				return nil, fmt.Errorf("%s:%d: unknown event %q", path, lineNo, string(name))
			}
			current = name
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			return nil, fmt.Errorf("%s:%d: malformed line %q", path, lineNo, line)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])

		if current == "" {
			// Metadata before the first section.
			switch key {
			case "name":
				ext.ID = value
			case "enabled":
				ext.Enabled = value == "true" || value == "yes" || value == "1"
			case "description":
				ext.Description = value
			case "version":
				ext.Version = value
			case "author":
				ext.Author = value
			default:
				return nil, fmt.Errorf("%s:%d: unknown metadata key %q", path, lineNo, key)
			}
			continue
		}

		if key != "action" {
			return nil, fmt.Errorf("%s:%d: only action= lines are allowed inside [%s]", path, lineNo, string(current))
		}
		a, err := action.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		ext.Subscriptions[current] = append(ext.Subscriptions[current], a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if ext.ID == "" {
		// Fall back to the directory name when name= is missing.
		ext.ID = filepath.Base(ext.Dir)
	}

	return ext, nil
}

// LoadDir loads every extension from a directory of extension dirs.
// Entries without a plugin.conf are skipped; a plugin.conf that fails to
// parse is an error. idPrefix, when non-empty, is prepended to every
// loaded extension ID (used for the system scope).
func LoadDir(dir, idPrefix string) ([]*Extension, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read extension dir %s: %w", dir, err)
	}

	var exts []*Extension
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		confPath := filepath.Join(dir, entry.Name(), ConfFile)
		if _, err := os.Stat(confPath); err != nil {
			continue
		}
		ext, err := ParseConf(confPath)
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", entry.Name(), err)
		}
		if idPrefix != "" {
			ext.ID = idPrefix + ext.ID
		}
		exts = append(exts, ext)
	}
	return exts, nil
}
