// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for isolating settings, writing a
// config file and capturing command output.
package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/sealreel/internal/configs"
	logger "github.com/PolarWolf314/sealreel/internal/logging"
)

// setupTestEnvironment points the user settings at temporary directories
// and writes a config file using a file key store and backendURL. It
// returns the config path.
func setupTestEnvironment(t *testing.T, backendURL, token string) string {
	t.Helper()

	originalUserSettings := configs.UserSealreelSettings
	tempUserDir := t.TempDir()
	configs.UserSealreelSettings = &configs.UserSettings{
		ConfigDir: filepath.Join(tempUserDir, "config"),
		DataDir:   filepath.Join(tempUserDir, "data"),
		Username:  "testuser",
	}

	t.Cleanup(func() {
		configs.UserSealreelSettings = originalUserSettings
		ResetGlobalState()
	})

	cfg := configs.DefaultUserConfig()
	cfg.Account.Label = "testuser"
	cfg.Backend.URL = backendURL
	cfg.Backend.Token = token

	path := filepath.Join(tempUserDir, "config", "config.toml")
	if err := configs.SaveUserConfig(path, cfg); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	ResetGlobalState()
	Logger = logger.Logger{}
	return path
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	first := <-outputChan
	second := <-outputChan

	return first + second, err
}

// runCLI executes the real command tree with args and the given config,
// returning everything written to stdout and stderr.
func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	ResetGlobalState()
	return captureOutput(func() error {
		RootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		return RootCmd.Execute()
	})
}
