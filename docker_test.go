package pingonetools_test

import (
	"os"
	"strings"
	"testing"
)

func readDockerfile(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("Dockerfile")
	if err != nil {
		t.Fatalf("failed to read Dockerfile: %v", err)
	}
	return string(data)
}

func TestDockerfileExists(t *testing.T) {
	_, err := os.Stat("Dockerfile")
	if err != nil {
		t.Fatalf("Dockerfile should exist: %v", err)
	}
}

func TestDockerfileMultiStageBuild(t *testing.T) {
	content := readDockerfile(t)

	// マルチステージビルドの確認: ビルドステージと実行ステージが存在すること
	if !strings.Contains(content, "FROM golang:") {
		t.Error("Dockerfile should contain a Go builder stage (FROM golang:)")
	}

	// 最終ステージは軽量イメージであること
	var lastFrom string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "FROM ") {
			lastFrom = trimmed
		}
	}
	if !strings.Contains(lastFrom, "gcr.io/distroless") && !strings.Contains(lastFrom, "alpine") && !strings.Contains(lastFrom, "scratch") {
		t.Errorf("final stage should use a minimal base image (distroless/alpine/scratch), got: %s", lastFrom)
	}
}

func TestDockerfileBuildsCLI(t *testing.T) {
	content := readDockerfile(t)

	// cmd/pingone-tools をビルドすること
	if !strings.Contains(content, "./cmd/pingone-tools") {
		t.Error("Dockerfile should build ./cmd/pingone-tools")
	}
}

func TestDockerfileEntrypoint(t *testing.T) {
	content := readDockerfile(t)

	// ENTRYPOINTでpingone-toolsバイナリを起動すること（フラグはdocker runの引数で渡す）
	if !strings.Contains(content, "ENTRYPOINT") || !strings.Contains(content, "pingone-tools") {
		t.Error("Dockerfile should use ENTRYPOINT to start the pingone-tools binary")
	}
}

func TestDockerfileRunsAsNonRoot(t *testing.T) {
	content := readDockerfile(t)

	if !strings.Contains(content, "USER nonroot") {
		t.Error("Dockerfile should run the binary as a non-root user")
	}
}
