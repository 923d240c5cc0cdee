package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/server"
	"github.com/desertthunder/faves/internal/services"
	"github.com/desertthunder/faves/internal/shared"
	tu "github.com/desertthunder/faves/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

// newTestRunner wires a Runner to an in-memory dev API and token store.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, *tu.MemoryTokens) {
	t.Helper()

	store := server.NewStore([]string{"Coffee", "Tea", "Bagels"}).WithBcryptCost(bcrypt.MinCost)
	srv := httptest.NewServer(server.New(store, nil))
	t.Cleanup(srv.Close)

	output := &bytes.Buffer{}
	tokens := &tu.MemoryTokens{}
	runner := NewRunner(RunnerOpts{
		API:    services.NewAPIService(srv.URL, srv.Client()),
		Tokens: tokens,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
		Prompt: &bytes.Buffer{},
	})
	return runner, output, tokens
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "faves", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"faves"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			api := services.NewAPIService("http://example.com", nil)
			tokens := &tu.MemoryTokens{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				API:    api,
				Tokens: tokens,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.tokens != tokens {
				t.Error("expected tokens to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.api == nil || runner.api.BaseURL() != runner.config.API.BaseURL {
				t.Error("expected api built from config")
			}
			if runner.tokens != nil {
				t.Error("expected token store to open lazily")
			}
		})
	})

	t.Run("tokenStore opens database lazily", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "faves.db")
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(&bytes.Buffer{})})
		t.Cleanup(func() { runner.Close() })

		tokens, err := runner.tokenStore()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := tokens.SetToken(context.Background(), "tok"); err != nil {
			t.Fatalf("failed to store token: %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)

		again, _ := runner.tokenStore()
		if again != tokens {
			t.Error("expected the same store on second call")
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("Hello %s\n", "World"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "Hello World\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		names := map[string]bool{}
		for _, cmd := range runner.register() {
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "login", "register", "logout", "whoami", "products", "favorites", "api", "tui", "devserver"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("Session Lifecycle", func(t *testing.T) {
		runner, output, tokens := newTestRunner(t)

		if err := run(runner, "register", "--username", "alice", "--password", "pw"); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if !strings.Contains(output.String(), "Logged in as alice") {
			t.Errorf("unexpected output %q", output.String())
		}
		if tokens.Value == "" {
			t.Fatal("expected token stored")
		}

		output.Reset()
		if err := run(runner, "whoami", "--json"); err != nil {
			t.Fatalf("whoami failed: %v", err)
		}
		var identity models.Identity
		if err := json.Unmarshal(output.Bytes(), &identity); err != nil || identity.Username != "alice" {
			t.Errorf("unexpected whoami output %q (%v)", output.String(), err)
		}

		output.Reset()
		if err := run(runner, "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if tokens.Value != "" {
			t.Error("expected token cleared")
		}

		err := run(runner, "whoami")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Login Failure Keeps Token", func(t *testing.T) {
		runner, _, tokens := newTestRunner(t)
		tokens.Value = "previous"

		err := run(runner, "login", "--username", "ghost", "--password", "pw")
		if !errors.Is(err, shared.ErrAuthFailed) || !strings.Contains(err.Error(), "invalid credentials") {
			t.Errorf("expected auth failure with server message, got %v", err)
		}
		if tokens.Value != "previous" {
			t.Errorf("expected token unchanged, got %q", tokens.Value)
		}
	})

	t.Run("Prompts For Missing Credentials", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		runner.input.Reset(strings.NewReader("bob\n"))

		original := readPassword
		readPassword = func(int) ([]byte, error) { return []byte("hunter2"), nil }
		t.Cleanup(func() { readPassword = original })

		if err := run(runner, "register"); err != nil {
			t.Fatalf("register with prompts failed: %v", err)
		}
		if err := run(runner, "logout"); err != nil {
			t.Fatal(err)
		}

		runner.input.Reset(strings.NewReader("bob\n"))
		if err := run(runner, "login"); err != nil {
			t.Fatalf("login with prompted credentials failed: %v", err)
		}
	})

	t.Run("Empty Credentials Rejected Locally", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		runner.input.Reset(strings.NewReader("\n"))

		original := readPassword
		readPassword = func(int) ([]byte, error) { return nil, nil }
		t.Cleanup(func() { readPassword = original })

		err := run(runner, "login")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Favorites Round Trip", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		if err := run(runner, "register", "-u", "alice", "-p", "pw"); err != nil {
			t.Fatal(err)
		}

		output.Reset()
		if err := run(runner, "favorites", "add", "2"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if !strings.Contains(output.String(), "Added Tea to favorites (favorite 1)") {
			t.Errorf("unexpected output %q", output.String())
		}

		err := run(runner, "favorites", "add", "2")
		if err == nil || !strings.Contains(err.Error(), "product is already a favorite") {
			t.Errorf("expected duplicate refusal, got %v", err)
		}

		output.Reset()
		if err := run(runner, "products", "--format", "csv"); err != nil {
			t.Fatalf("products failed: %v", err)
		}
		if !strings.Contains(output.String(), "2,Tea,true,1") {
			t.Errorf("expected Tea marked favorite, got %q", output.String())
		}

		output.Reset()
		if err := run(runner, "favorites", "list", "--json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		var favorites []models.Favorite
		if err := json.Unmarshal(output.Bytes(), &favorites); err != nil || len(favorites) != 1 {
			t.Fatalf("unexpected favorites %q (%v)", output.String(), err)
		}
		if favorites[0].ProductID != models.NumericID(2) {
			t.Errorf("expected product 2, got %v", favorites[0].ProductID)
		}

		if err := run(runner, "favorites", "remove", "1"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		err = run(runner, "favorites", "remove", "1")
		if err == nil || !strings.Contains(err.Error(), "favorite not found") {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("Favorites List Reports Write Failure", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		if err := run(runner, "register", "-u", "alice", "-p", "pw"); err != nil {
			t.Fatal(err)
		}
		if err := run(runner, "favorites", "add", "1"); err != nil {
			t.Fatal(err)
		}

		runner.output = &tu.FWriter{}
		err := run(runner, "favorites", "list")
		if err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error, got %v", err)
		}
	})

	t.Run("Favorites Require Session", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		err := run(runner, "favorites", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Products Logged Out", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)

		if err := run(runner, "products"); err != nil {
			t.Fatalf("products failed: %v", err)
		}
		if !strings.Contains(output.String(), "1. Coffee (id 1)") {
			t.Errorf("expected plain listing, got %q", output.String())
		}
		if strings.Contains(output.String(), "[+]") {
			t.Error("expected no controls when logged out")
		}
	})

	t.Run("Products JSON And File Output", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)

		if err := run(runner, "products", "--format", "json"); err != nil {
			t.Fatalf("products failed: %v", err)
		}
		if !strings.Contains(output.String(), `"name": "Bagels"`) {
			t.Errorf("unexpected JSON %q", output.String())
		}

		path := filepath.Join(t.TempDir(), "products.md")
		if err := run(runner, "products", "--format", "markdown", "--output", path); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "| 3 | Bagels |") {
			t.Error("expected markdown table in file")
		}

		err := run(runner, "products", "--format", "yaml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("API Get", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		if err := run(runner, "register", "-u", "alice", "-p", "pw"); err != nil {
			t.Fatal(err)
		}

		output.Reset()
		if err := run(runner, "api", "get", "--auth", "--json", "api/auth/me"); err != nil {
			t.Fatalf("api get failed: %v", err)
		}
		if !strings.Contains(output.String(), `"username":"alice"`) {
			t.Errorf("unexpected output %q", output.String())
		}

		err := run(runner, "api", "get", "/api/auth/me")
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "401") {
			t.Errorf("expected 401 without --auth, got %v", err)
		}
	})

	t.Run("Setup", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{}), Output: &bytes.Buffer{}})
		if err := run(runner, "setup", "--config", "config.toml"); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		tu.AssertFileExists(t, filepath.Join(dir, "faves.db"))
	})
}
