//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary   = "bin/grievance"
	templDir = "./internal/web"
)

// Generate compiles the .templ pages into Go. The generated files are
// committed, so a missing templ binary only skips the step.
func Generate() error {
	if _, err := exec.LookPath("templ"); err != nil {
		fmt.Println(">> templ not found; using committed *_templ.go files.")
		fmt.Println(">> install with: go install github.com/a-h/templ/cmd/templ@v0.3.1001")
		return nil
	}
	fmt.Println(">> Generating templ pages")
	return sh.Run("templ", "generate", "-path", templDir)
}

// Build regenerates pages and tidies deps, then compiles the service to
// ./bin/grievance.
func Build() error {
	mg.Deps(Generate, Tidy)
	fmt.Println(">> Building", binary)
	return sh.Run("go", "build", "-o", binary, "./cmd/grievance")
}

// Dev runs the server against an in-memory store loaded from seed.yaml, or
// the example seed when there is none.
func Dev() error {
	mg.Deps(Generate)
	seedFile := "seed.yaml"
	if _, err := os.Stat(seedFile); err != nil {
		seedFile = "seed.example.yaml"
	}
	args := []string{"run", "./cmd/grievance", "serve", "--in-memory", "--seed", seedFile}
	fmt.Println(">> go", args)
	return sh.RunV("go", args...)
}

// Migrate applies the SQL migrations to POSTGRES_DSN.
func Migrate() error {
	mg.Deps(Build)
	return sh.RunV(binary, "migrate")
}

// Test runs all unit tests with the race detector.
func Test() error {
	fmt.Println(">> Running tests...")
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs golangci-lint if available.
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println(">> golangci-lint not found; skipping.")
		return nil
	}
	return sh.Run("golangci-lint", "run", "./...")
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.Run("go", "mod", "tidy")
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll("bin")
}

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Println(">> .env:", err)
	}
}
