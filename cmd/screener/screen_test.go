package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

type fixture struct {
	job, alice, bob, missing string
}

func newFixture(t *testing.T) fixture {
	dir := t.TempDir()
	return fixture{
		job:     writeFile(t, dir, "job.txt", "Senior Go engineer building Kafka and Redis services"),
		alice:   writeFile(t, dir, "alice.txt", "Senior Go engineer building Kafka and Redis services"),
		bob:     writeFile(t, dir, "bob.md", "Python developer focused on data analysis"),
		missing: filepath.Join(dir, "carol.txt"),
	}
}

func TestScreenJSON(t *testing.T) {
	f := newFixture(t)
	stdout, _, err := execute(t, "screen", "--job", f.job, "--skills", "Go,Redis", "--format", "json", f.bob, f.alice, f.missing)
	if err != nil {
		t.Fatalf("screen: %v", err)
	}

	var report struct {
		Results []struct {
			DisplayName   string   `json:"display_name"`
			FinalScore    int      `json:"final_score"`
			MatchedSkills []string `json:"matched_skills"`
		} `json:"results"`
		Failures []struct {
			FileName string `json:"file_name"`
			Kind     string `json:"kind"`
		} `json:"failures"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, stdout)
	}
	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}
	top := report.Results[0]
	if top.DisplayName != "alice" || top.FinalScore != 100 {
		t.Errorf("top = %+v, want alice with 100", top)
	}
	if strings.Join(top.MatchedSkills, ",") != "Go,Redis" {
		t.Errorf("matched = %v", top.MatchedSkills)
	}
	if report.Results[1].DisplayName != "bob" || report.Results[1].FinalScore >= top.FinalScore {
		t.Errorf("second = %+v", report.Results[1])
	}
	if len(report.Failures) != 1 || report.Failures[0].Kind != "extraction_failed" {
		t.Errorf("failures = %+v, want one extraction_failed", report.Failures)
	}
}

func TestScreenTable(t *testing.T) {
	f := newFixture(t)
	stdout, stderr, err := execute(t, "screen", "-j", f.job, "--sort", "name", f.bob, f.alice, f.missing)
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if !strings.Contains(strings.ToUpper(stdout), "CANDIDATE") {
		t.Errorf("table missing header:\n%s", stdout)
	}
	alice, bob := strings.Index(stdout, "alice"), strings.Index(stdout, "bob")
	if alice < 0 || bob < 0 || alice > bob {
		t.Errorf("rows not in name order:\n%s", stdout)
	}
	if strings.Contains(stdout, "carol") {
		t.Errorf("failed file listed as a result:\n%s", stdout)
	}
	if !strings.Contains(stderr, "carol.txt") {
		t.Errorf("stderr missing skipped file: %q", stderr)
	}
}

func TestScreenRejects(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown skill", []string{"screen", "--job", f.job, "--skills", "Cobol", f.alice}, apperrors.ErrUnknownSkill},
		{"bad format", []string{"screen", "--job", f.job, "--format", "xml", f.alice}, apperrors.ErrInvalidInput},
		{"bad sort", []string{"screen", "--job", f.job, "--sort", "date", f.alice}, apperrors.ErrInvalidInput},
		{"missing job", []string{"screen", "--job", f.missing, f.alice}, apperrors.ErrExtractionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if code := apperrors.ExitCode(err); code == 0 {
				t.Errorf("exit code = 0 for %v", err)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "screener version:") {
		t.Errorf("version output = %q", stdout)
	}
}
