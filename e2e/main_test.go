package e2e

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

var (
	appURL string
)

const (
	adminUser     = "testuser"
	adminEmail    = "testuser@example.com"
	adminPassword = "testpass123"

	port = "8081"
)

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

func runTestMain(m *testing.M) int {
	workDir, err := os.MkdirTemp("", "expense-api-e2e")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(workDir)

	binary, err := buildServer(workDir)
	if err != nil {
		fmt.Println(err)
		return 1
	}

	appURL = "http://localhost:" + port
	server, err := startServer(binary, workDir)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	defer stopServer(server)

	if err := waitHealthy(appURL+"/api/health", 5*time.Second); err != nil {
		fmt.Println(err)
		return 1
	}

	return m.Run()
}

// buildServer compiles cmd/server into dir. Works from the e2e directory
// and from the module root.
func buildServer(dir string) (string, error) {
	pkg := "../cmd/server"
	if _, err := os.Stat(pkg); os.IsNotExist(err) {
		pkg = "./cmd/server"
		if _, err := os.Stat(pkg); err != nil {
			return "", errors.New("could not find cmd/server to build")
		}
	}

	binary := filepath.Join(dir, "expense-api-test")
	output, err := exec.Command("go", "build", "-o", binary, pkg).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to build server: %v\n%s", err, output)
	}
	return binary, nil
}

// startServer runs the binary against a fresh SQLite file in dir. The
// ADMIN_* variables make the server create the account the suite logs in with.
func startServer(binary, dir string) (*exec.Cmd, error) {
	cmd := exec.Command(binary)
	cmd.Env = append(os.Environ(),
		"PORT="+port,
		"DB_DRIVER=sqlite",
		"DB_PATH="+filepath.Join(dir, "expenses.db"),
		"JWT_SECRET=e2e-secret-e2e-secret-e2e-secret-42",
		"JWT_EXPIRATION=1h",
		"ADMIN_USER="+adminUser,
		"ADMIN_EMAIL="+adminEmail,
		"ADMIN_PASSWORD="+adminPassword,
		"LOG_LEVEL=warn",
	)
	// No .env is read from dir
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}
	return cmd, nil
}

// waitHealthy polls the health endpoint until the database is migrated and
// the listener is up.
func waitHealthy(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not healthy at %s after %s", url, timeout)
}

// stopServer sends SIGINT so the server drains connections, and kills it if
// it has not exited within a few seconds.
func stopServer(cmd *exec.Cmd) {
	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		_ = cmd.Process.Kill()
		return
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		fmt.Println("Server did not shut down, killing it")
		_ = cmd.Process.Kill()
		<-done
	}
}
