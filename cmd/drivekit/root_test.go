package main

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags clears flag values left behind by an earlier Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	homedir.DisableCache = true
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestPutGetRoundTrip(t *testing.T) {
	setupHome(t)
	base := t.TempDir()
	common := []string{"--driver", "local", "--local-base-path", base, "--log-level", "error"}

	out, err := run(t, "first draft", append(common, "put", "notes/todo")...)
	if err != nil {
		t.Fatalf("put error = %v", err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		t.Fatal("put printed no ID")
	}

	out, err = run(t, "", append(common, "get", "notes/todo")...)
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if out != "first draft" {
		t.Errorf("get = %q, want %q", out, "first draft")
	}

	out, err = run(t, "", append(common, "id", "notes/todo")...)
	if err != nil {
		t.Fatalf("id error = %v", err)
	}
	if strings.TrimSpace(out) != id {
		t.Errorf("id = %q, want %q", strings.TrimSpace(out), id)
	}

	out, err = run(t, "", append(common, "ls", "notes/to")...)
	if err != nil {
		t.Fatalf("ls error = %v", err)
	}
	if !strings.Contains(out, "todo") || !strings.Contains(out, id) {
		t.Errorf("ls output %q does not list the stored item", out)
	}

	if _, err := run(t, "", append(common, "get", "notes/missing")...); err == nil {
		t.Error("get of a missing item succeeded")
	}
}

func TestPutFromFile(t *testing.T) {
	setupHome(t)
	base := t.TempDir()
	src := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(src, []byte("from a file"), 0644); err != nil {
		t.Fatal(err)
	}
	common := []string{"--driver", "local", "--local-base-path", base, "--log-level", "error"}

	if _, err := run(t, "", append(common, "put", "docs/input", src)...); err != nil {
		t.Fatalf("put error = %v", err)
	}
	out, err := run(t, "", append(common, "get", "docs/input")...)
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if out != "from a file" {
		t.Errorf("get = %q, want %q", out, "from a file")
	}
}

func TestConfigFile(t *testing.T) {
	home := setupHome(t)
	base := t.TempDir()
	conf := "driver: local\nlocal-base-path: " + base + "\nlog-level: error\n"
	if err := os.WriteFile(filepath.Join(home, ".drivekit.yaml"), []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "configured", "put", "cfg/item"); err != nil {
		t.Fatalf("put error = %v", err)
	}
	if _, err := os.Stat(base); err != nil {
		t.Fatalf("base path from the config file was not used: %v", err)
	}
	entries, err := os.ReadDir(base)
	if err != nil || len(entries) == 0 {
		t.Errorf("nothing was written under %s (err %v)", base, err)
	}
}

func TestEncryptedPut(t *testing.T) {
	setupHome(t)
	base := t.TempDir()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	common := []string{"--driver", "local", "--local-base-path", base, "--log-level", "error", "--encryption-key", key}

	if _, err := run(t, "top secret", append(common, "put", "--zstd", "--encrypt", "vault/code")...); err != nil {
		t.Fatalf("put error = %v", err)
	}

	out, err := run(t, "", append(common, "get", "vault/code")...)
	if err != nil {
		t.Fatalf("raw get error = %v", err)
	}
	if strings.Contains(out, "top secret") {
		t.Error("stored content holds the plaintext")
	}

	out, err = run(t, "", append(common, "get", "--zstd", "--encrypt", "vault/code")...)
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if out != "top secret" {
		t.Errorf("get = %q, want %q", out, "top secret")
	}
}

func TestEncryptNeedsKey(t *testing.T) {
	setupHome(t)
	common := []string{"--driver", "memory", "--log-level", "error"}
	if _, err := run(t, "x", append(common, "put", "--encrypt", "vault/code")...); err == nil {
		t.Error("put --encrypt without a key succeeded")
	}
}

func TestDriversCommand(t *testing.T) {
	out, err := run(t, "", "drivers")
	if err != nil {
		t.Fatalf("drivers error = %v", err)
	}
	for _, name := range []string{"azure", "gcs", "local", "memory", "s3", "sftp", "zip"} {
		if !strings.Contains(out, name) {
			t.Errorf("drivers output %q is missing %s", out, name)
		}
	}
}

func TestZipDriver(t *testing.T) {
	setupHome(t)
	archive := filepath.Join(t.TempDir(), "docs.zip")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("docs/readme.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte("packed"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	common := []string{"--driver", "zip", "--zip-path", archive, "--log-level", "error"}
	out, err := run(t, "", append(common, "get", "docs/readme.txt")...)
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if out != "packed" {
		t.Errorf("get = %q, want %q", out, "packed")
	}

	if _, err := run(t, "x", append(common, "put", "docs/new.txt")...); err == nil {
		t.Error("put into a zip archive succeeded")
	}
}
