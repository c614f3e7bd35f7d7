//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/zentty-go/testutil"
)

var (
	binaryPath string
	endpoint   string
)

func TestMain(m *testing.M) {
	moduleRoot := testutil.FindModuleRoot("..")
	testutil.LoadDotEnv(filepath.Join(moduleRoot, ".env"))

	endpoint = testutil.ValidateEndpoint("ZENTTY_E2E_ENDPOINT")

	tmpDir, err := os.MkdirTemp("", "zentty-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating temp dir: %v\n", err)
		os.Exit(1)
	}

	binaryPath = filepath.Join(tmpDir, "zentty-go")

	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "building binary: %v\n", err)
		os.Exit(1)
	}

	// Isolate only after the build so the toolchain keeps its module cache.
	if err := testutil.IsolateHome(tmpDir, "ZENTTY_CONFIG", "ZENTTY_ENDPOINT", "ZENTTY_SESSION_CODE"); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string) {
	t.Helper()

	stdout, stderr, err := runCLIErr(stdin, args...)
	if err != nil {
		t.Fatalf("CLI command %v failed: %v\nstdout: %s\nstderr: %s", args, err, stdout, stderr)
	}

	return stdout, stderr
}

func runCLIErr(stdin string, args ...string) (string, string, error) {
	fullArgs := append([]string{"--endpoint", endpoint}, args...)
	cmd := exec.Command(binaryPath, fullArgs...)
	cmd.Stdin = bytes.NewBufferString(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.String(), stderr.String(), err
}

func TestE2E_RoundTrip(t *testing.T) {
	stamp := time.Now().UnixNano()
	username := fmt.Sprintf("e2e%d", stamp)
	password := fmt.Sprintf("pw-%d", stamp)
	content := bytes.Repeat([]byte("zentty e2e\n"), 40000)

	var folderID, fileID string

	t.Run("register", func(t *testing.T) {
		stdout, _ := runCLI(t, password+"\n", "--json", "register",
			"--username", username,
			"--email", username+"@example.com",
			"--name", "E2E "+username)

		var user map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &user))
		assert.Equal(t, username, user["username"])
	})

	t.Run("login", func(t *testing.T) {
		_, stderr := runCLI(t, password+"\n", "login", username)
		assert.Contains(t, stderr, "Logged in")
	})

	t.Run("whoami", func(t *testing.T) {
		stdout, _ := runCLI(t, "", "whoami")
		assert.Contains(t, stdout, username)
	})

	t.Run("create", func(t *testing.T) {
		stdout, _ := runCLI(t, "", "--json", "create", "folder", "--title", "e2e folder")

		var entity map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &entity))

		id, ok := entity["_id"].(string)
		require.True(t, ok)
		require.NotEmpty(t, id)

		folderID = id
	})

	t.Run("put", func(t *testing.T) {
		require.NotEmpty(t, folderID)

		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, content, 0o600))

		stdout, _ := runCLI(t, "", "--json", "put", path, "--parent", folderID)

		var results []map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &results))
		require.Len(t, results, 1)
		assert.InDelta(t, len(content), results[0]["size"], 0)

		fileID, _ = results[0]["entity_id"].(string)
	})

	t.Run("get", func(t *testing.T) {
		require.NotEmpty(t, fileID)

		stdout, _ := runCLI(t, "", "get", fileID)
		assert.Contains(t, stdout, "notes.txt")
	})

	t.Run("ls", func(t *testing.T) {
		stdout, _ := runCLI(t, "", "ls", folderID)
		assert.Contains(t, stdout, fileID)
	})

	t.Run("relate", func(t *testing.T) {
		_, stderr := runCLI(t, "", "relate", folderID, fileID, "contains")
		assert.Contains(t, stderr, "Related")

		stdout, _ := runCLI(t, "", "related", folderID, "contains")
		assert.Contains(t, stdout, fileID)

		runCLI(t, "", "unrelate", folderID, fileID, "contains")
	})

	t.Run("logout", func(t *testing.T) {
		_, stderr := runCLI(t, "", "logout")
		assert.Contains(t, stderr, "Logged out")

		_, _, err := runCLIErr("", "whoami")
		require.Error(t, err)
	})
}

func TestE2E_WrongPassword(t *testing.T) {
	_, stderr, err := runCLIErr("definitely-wrong\n", "login", fmt.Sprintf("nobody%d", time.Now().UnixNano()))
	require.Error(t, err)
	assert.Contains(t, stderr, "Error:")
}
