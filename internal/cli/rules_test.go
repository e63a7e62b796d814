package cli

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"testing"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func writeConfig(t *testing.T, body string) {
	t.Helper()
	if err := os.WriteFile(os.Getenv("CU_CONFIG"), []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

const rulesYAML = `moderation:
  weblog.entry:
    policy: akismet
    enable_field: enable_comments
    auto_close_field: pub_date
    close_after: 30
    email_notification: true
  weblog.link:
    auto_moderate_field: pub_date
    moderate_after: 7
`

func TestRulesTable(t *testing.T) {
	testEnv(t)
	writeConfig(t, rulesYAML)

	out, err := executeCommand("rules")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows:\n%s", out)
	}
	if got := strings.Fields(lines[1]); strings.Join(got, " ") != "weblog.entry akismet enable_comments pub_date+30d - yes yes" {
		t.Errorf("entry row = %q", lines[1])
	}
	if got := strings.Fields(lines[2]); strings.Join(got, " ") != "weblog.link default - - pub_date+7d no no" {
		t.Errorf("link row = %q", lines[2])
	}
}

func TestRulesJSON(t *testing.T) {
	testEnv(t)
	writeConfig(t, rulesYAML)

	out, err := executeCommand("rules", "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 2 || got[0]["content_type"] != "weblog.entry" || got[0]["policy"] != "akismet" {
		t.Errorf("got %v", got)
	}
	if got[0]["akismet"] != true || got[0]["close_after"] != float64(30) {
		t.Errorf("expected effective settings, got %v", got[0])
	}
}

func TestRulesMissingFile(t *testing.T) {
	testEnv(t)

	out, err := executeCommand("rules")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No moderation rules in") {
		t.Errorf("got %q", out)
	}
}

func TestRulesConfigFlag(t *testing.T) {
	testEnv(t)
	path := t.TempDir() + "/other.yaml"
	if err := os.WriteFile(path, []byte("moderation:\n  shop.product:\n    policy: none\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand("rules", "--config", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "shop.product") || !strings.Contains(out, "none") {
		t.Errorf("got %q", out)
	}
}

func TestRulesInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown policy", "moderation:\n  weblog.entry:\n    policy: sometimes\n", `unknown moderation policy "sometimes"`},
		{"bad label", "moderation:\n  entry:\n    policy: always\n", "app_label.model"},
		{"bad yaml", "moderation: [", "parsing config"},
		{"misspelled option", "moderation:\n  weblog.entry:\n    auto_close_feild: pub_date\n", "auto_close_feild"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEnv(t)
			writeConfig(t, tt.body)

			_, err := executeCommand("rules")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
