package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const deck = `cards:
  - id: card-01
    topic: sleep
    difficulty: 1
    created_at: "2024-01-01T00:00:00Z"
    translations:
      - lang: en
        title: Keep a wind-down hour
        hook: Screens off before bed.
        bullets: ["Dim the lights", "Read on paper"]
        why: Light delays melatonin.
  - id: card-02
    topic: focus
    difficulty: 2
    created_at: "2024-01-02T00:00:00Z"
    translations:
      - lang: en
        title: One tab at a time
        hook: Close what you are not reading.
        bullets: ["Batch email"]
        why: Switching costs attention.
  - id: card-03
    topic: habits
    difficulty: 1
    created_at: "2024-01-03T00:00:00Z"
    translations:
      - lang: en
        title: Anchor new habits
        hook: Attach them to an existing routine.
        bullets: ["After coffee, stretch"]
        why: Cues make habits stick.
  - id: card-04
    topic: movement
    difficulty: 1
    created_at: "2024-01-04T00:00:00Z"
    translations:
      - lang: en
        title: Walk after lunch
        hook: Ten minutes is enough.
        bullets: ["Leave the phone"]
        why: It flattens glucose spikes.
  - id: card-05
    topic: stress
    difficulty: 3
    created_at: "2024-01-05T00:00:00Z"
    translations:
      - lang: en
        title: Name the feeling
        hook: Labelling calms the alarm.
        bullets: ["Say it out loud"]
        why: It engages the prefrontal cortex.
`

func TestEndToEndWorkflow(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get cwd: %v", err)
	}

	binDir := os.Getenv("LESSFEED_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join(cwd, "..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	cliPath := filepath.Join(binDir, "lessfeed")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s. Build it with 'go build -o bin/lessfeed ./cmd/lessfeed'.", cliPath)
	}

	tempDir := t.TempDir()
	deckPath := filepath.Join(tempDir, "deck.yaml")
	if err := os.WriteFile(deckPath, []byte(deck), 0o644); err != nil {
		t.Fatalf("Failed to write deck: %v", err)
	}
	dbPath := filepath.Join(tempDir, "lessfeed", "lessfeed.db")

	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "XDG_CONFIG_HOME=") || strings.HasPrefix(e, "LESSFEED_") {
			continue
		}
		env = append(env, e)
	}
	env = append(env,
		fmt.Sprintf("HOME=%s", tempDir),
		fmt.Sprintf("XDG_CONFIG_HOME=%s", tempDir),
		fmt.Sprintf("LESSFEED_CONTENT_FILE=%s", deckPath),
		"LESSFEED_LANG=en",
	)

	run := func(args ...string) string {
		t.Helper()
		full := append([]string{"--config", dbPath, "--env-file", filepath.Join(tempDir, ".env")}, args...)
		cmd := exec.Command(cliPath, full...)
		cmd.Env = env
		cmd.Dir = tempDir
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("Command lessfeed %v failed: %v\nOutput: %s", args, err, out)
		}
		return string(out)
	}

	t.Log("Initializing storage...")
	run("init")
	run("settings", "--notifications-enabled=true", "--notification-time=00:00")

	t.Log("Reading the feed...")
	out := run("feed")
	for _, id := range []string{"card-01", "card-05"} {
		if !strings.Contains(out, id) {
			t.Errorf("feed output missing %s:\n%s", id, out)
		}
	}

	t.Log("Toggling a card...")
	run("toggle", "learned", "card-01")
	if out := run("status", "card-01"); !strings.Contains(out, "Learned:   yes") {
		t.Errorf("expected card-01 to be learned:\n%s", out)
	}

	t.Log("Completing the daily ritual...")
	if out := run("daily", "--read"); !strings.Contains(out, "Daily ritual complete") {
		t.Errorf("expected the ritual to complete:\n%s", out)
	}
	if out := run("streak"); !strings.Contains(out, "Current streak: 1") {
		t.Errorf("expected a streak of 1:\n%s", out)
	}

	t.Log("Checking the reminder...")
	if out := run("remind", "--dry-run"); !strings.Contains(out, "No reminder due.") {
		t.Errorf("expected no reminder after the ritual:\n%s", out)
	}

	t.Log("Backing up...")
	run("backup", "create")
	if out := run("backup", "list"); !strings.Contains(out, ".db") {
		t.Errorf("expected a backup to be listed:\n%s", out)
	}
}
