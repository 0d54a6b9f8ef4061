// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"runtime"
	"testing"
)

func TestNodePlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos string
		want string
	}{
		{Windows, "win32"},
		{Linux, "linux"},
		{Darwin, "darwin"},
		{"freebsd", "freebsd"},
	}
	for _, tt := range tests {
		if got := NodePlatform(tt.goos); got != tt.want {
			t.Errorf("NodePlatform(%q) = %q, want %q", tt.goos, got, tt.want)
		}
	}
}

func TestNodeArch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goarch string
		want   string
	}{
		{"amd64", "x64"},
		{"386", "ia32"},
		{"arm64", "arm64"},
		{"riscv64", "riscv64"},
	}
	for _, tt := range tests {
		if got := NodeArch(tt.goarch); got != tt.want {
			t.Errorf("NodeArch(%q) = %q, want %q", tt.goarch, got, tt.want)
		}
	}
}

func TestCurrent(t *testing.T) {
	t.Parallel()

	p, a := Current()
	if p != NodePlatform(runtime.GOOS) || a != NodeArch(runtime.GOARCH) {
		t.Errorf("Current() = %q, %q", p, a)
	}
}

func TestDetectFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		env   map[string]string
		files map[string]bool
		want  ConfinementType
	}{
		{name: "none", want: ConfinementNone},
		{name: "flatpak", files: map[string]bool{"/.flatpak-info": true}, want: ConfinementFlatpak},
		{name: "snap", env: map[string]string{"SNAP_NAME": "lintcage"}, want: ConfinementSnap},
		{
			name:  "flatpak takes precedence",
			env:   map[string]string{"SNAP_NAME": "lintcage"},
			files: map[string]bool{"/.flatpak-info": true},
			want:  ConfinementFlatpak,
		},
		{name: "docker", files: map[string]bool{"/.dockerenv": true}, want: ConfinementContainer},
		{name: "podman", files: map[string]bool{"/run/.containerenv": true}, want: ConfinementContainer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lookupEnv := func(key string) string { return tt.env[key] }
			stat := func(path string) error {
				if tt.files[path] {
					return nil
				}
				return os.ErrNotExist
			}
			if got := detectFrom(lookupEnv, stat); got != tt.want {
				t.Errorf("detectFrom() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSeccompHint(t *testing.T) {
	t.Parallel()

	if SeccompHint(ConfinementNone) != "" {
		t.Error("no hint expected without confinement")
	}
	for _, ct := range []ConfinementType{ConfinementFlatpak, ConfinementSnap, ConfinementContainer} {
		if SeccompHint(ct) == "" {
			t.Errorf("SeccompHint(%q) is empty", ct)
		}
	}
}
