package extension

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/pkgmux/internal/action"
	"github.com/blackwell-systems/pkgmux/internal/event"
)

// writeConf writes a plugin.conf into a fresh extension dir and returns
// the conf path.
func writeConf(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConf(t *testing.T) {
	path := writeConf(t, `# desktop notification extension
name=notifier
enabled=true
description=Desktop notifications for installs
version=1.2
author=ops

[post-install-success]
action=notify:Installed $packages
action=log:install ok

[post-remove-success]
action=log:removed $packages
`)

	ext, err := ParseConf(path)
	if err != nil {
		t.Fatalf("ParseConf: %v", err)
	}

	if ext.ID != "notifier" {
		t.Errorf("ID = %q, want %q", ext.ID, "notifier")
	}
	if !ext.Enabled {
		t.Error("Enabled = false, want true")
	}
	if ext.Description != "Desktop notifications for installs" {
		t.Errorf("Description = %q", ext.Description)
	}
	if ext.Version != "1.2" || ext.Author != "ops" {
		t.Errorf("Version/Author = %q/%q", ext.Version, ext.Author)
	}
	if ext.Dir != filepath.Dir(path) {
		t.Errorf("Dir = %q, want %q", ext.Dir, filepath.Dir(path))
	}

	install := ext.Subscriptions[event.PostInstallSuccess]
	if len(install) != 2 {
		t.Fatalf("post-install-success has %d actions, want 2", len(install))
	}
	if install[0] != (action.Action{Kind: action.Notify, Payload: "Installed $packages"}) {
		t.Errorf("first action = %+v", install[0])
	}
	if install[1].Kind != action.Log {
		t.Errorf("second action kind = %q", string(install[1].Kind))
	}
	if len(ext.Subscriptions[event.PostRemoveSuccess]) != 1 {
		t.Error("post-remove-success subscription missing")
	}
}

func TestParseConfDisabled(t *testing.T) {
	path := writeConf(t, "name=quiet\nenabled=false\n")
	ext, err := ParseConf(path)
	if err != nil {
		t.Fatalf("ParseConf: %v", err)
	}
	if ext.Enabled {
		t.Error("Enabled = true, want false")
	}
}

func TestParseConfDefaultsIDToDirName(t *testing.T) {
	path := writeConf(t, "[session-start]\naction=log:hello\n")
	ext, err := ParseConf(path)
	if err != nil {
		t.Fatalf("ParseConf: %v", err)
	}
	if ext.ID != filepath.Base(filepath.Dir(path)) {
		t.Errorf("ID = %q, want directory name", ext.ID)
	}
}

func TestParseConfRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIn  string
	}{
		{"unknown event", "name=x\n[pre-destroy]\naction=log:x\n", "unknown event"},
		{"malformed action", "name=x\n[pre-install]\naction=log\n", "malformed action"},
		{"unknown action kind", "name=x\n[pre-install]\naction=exec:rm\n", "unknown action kind"},
		{"unknown metadata", "name=x\ncolor=red\n", "unknown metadata key"},
		{"non-action in section", "name=x\n[pre-install]\nfoo=bar\n", "only action= lines"},
		{"unterminated section", "name=x\n[pre-install\n", "unterminated"},
		{"bare line", "name=x\njust some text\n", "malformed line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConf(t, tt.content)
			_, err := ParseConf(path)
			if err == nil {
				t.Fatal("ParseConf succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantIn)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()

	mustWrite := func(rel, content string) {
		t.Helper()
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	mustWrite("notifier/plugin.conf", "name=notifier\n[post-install]\naction=log:x\n")
	mustWrite("logger/plugin.conf", "name=logger\n[session-start]\naction=log:start\n")
	// A directory without plugin.conf is skipped, not an error.
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	// A stray file at the top level is ignored.
	mustWrite("README", "not an extension")

	exts, err := LoadDir(root, "")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(exts) != 2 {
		t.Fatalf("loaded %d extensions, want 2", len(exts))
	}
}

func TestLoadDirSystemPrefix(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "auditor")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	conf := "name=auditor\n[post-install]\naction=log:x\n"
	if err := os.WriteFile(filepath.Join(dir, ConfFile), []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}

	exts, err := LoadDir(root, "system-")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(exts) != 1 || exts[0].ID != "system-auditor" {
		t.Fatalf("exts = %+v, want one with ID system-auditor", exts)
	}
}

func TestLoadDirMissing(t *testing.T) {
	exts, err := LoadDir(filepath.Join(t.TempDir(), "nope"), "")
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(exts) != 0 {
		t.Errorf("loaded %d extensions from missing dir", len(exts))
	}
}

func TestLoadDirBadConfFails(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "broken")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfFile), []byte("[no-such-event]\naction=log:x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDir(root, ""); err == nil {
		t.Fatal("LoadDir accepted a config with an unknown event")
	}
}
