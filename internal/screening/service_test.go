package screening

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/extract"
	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/metrics"
)

func newService(t *testing.T, opts Options) *Service {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func mustJob(t *testing.T, s *Service, req JobRequest) Job {
	t.Helper()
	job, err := s.CreateJob(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return job
}

func mustCandidate(t *testing.T, s *Service, name, text string) Candidate {
	t.Helper()
	c, err := s.AddCandidate(context.Background(), CandidateRequest{FileName: name, Text: text})
	if err != nil {
		t.Fatalf("AddCandidate: %v", err)
	}
	return c
}

func mustScreen(t *testing.T, s *Service, req ScreenRequest) *Run {
	t.Helper()
	run, err := s.Screen(context.Background(), req)
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	return run
}

func resultFor(t *testing.T, run *Run, candidateID string) MatchResult {
	t.Helper()
	for _, r := range run.Results {
		if r.CandidateID == candidateID {
			return r
		}
	}
	t.Fatalf("no result for %s in %+v", candidateID, run.Results)
	return MatchResult{}
}

func TestCreateJobRejectsUnknownSkill(t *testing.T) {
	s := newService(t, Options{})
	_, err := s.CreateJob(context.Background(), JobRequest{
		Description:    "Backend engineer",
		RequiredSkills: []string{"Go", "Cobol-on-Cogs"},
	})
	if !errors.Is(err, apperrors.ErrUnknownSkill) {
		t.Fatalf("err = %v, want ErrUnknownSkill", err)
	}
	if n := s.Corpus().TotalDocuments(); n != 0 {
		t.Errorf("rejected job was ingested: %d documents", n)
	}
}

func TestScreenRanksCandidates(t *testing.T) {
	s := newService(t, Options{})
	job := mustJob(t, s, JobRequest{
		Description:    "Backend engineer building Go services on Kafka and Redis",
		RequiredSkills: []string{"Go", "Kafka", "Redis"},
	})
	strong := mustCandidate(t, s, "alice.txt", "Backend engineer building Go services on Kafka and Redis")
	partial := mustCandidate(t, s, "bob.txt", "Java developer with Kafka experience")
	none := mustCandidate(t, s, "carol.txt", "Pastry chef and baker")

	run := mustScreen(t, s, ScreenRequest{JobID: job.ID})
	if len(run.Results) != 3 || len(run.Failures) != 0 {
		t.Fatalf("results = %d failures = %v", len(run.Results), run.Failures)
	}
	if run.Results[0].CandidateID != strong.ID {
		t.Errorf("top candidate = %s, want %s", run.Results[0].DisplayName, strong.DisplayName)
	}

	top := resultFor(t, run, strong.ID)
	if top.FinalScore != 100 {
		t.Errorf("identical resume score = %d, want 100", top.FinalScore)
	}
	if !reflect.DeepEqual(top.MatchedSkills, []string{"Go", "Redis", "Kafka"}) {
		t.Errorf("matched = %q", top.MatchedSkills)
	}

	mid := resultFor(t, run, partial.ID)
	if !reflect.DeepEqual(mid.MatchedSkills, []string{"Kafka"}) {
		t.Errorf("matched = %q", mid.MatchedSkills)
	}
	if math.Abs(mid.SkillCoverage-1.0/3) > 1e-12 {
		t.Errorf("partial coverage = %v, want 1/3", mid.SkillCoverage)
	}
	wantMid := int(math.Round((0.6*mid.Similarity + 0.4*mid.SkillCoverage) * 100))
	if mid.FinalScore != wantMid {
		t.Errorf("partial score = %d, want %d", mid.FinalScore, wantMid)
	}

	low := resultFor(t, run, none.ID)
	if low.Similarity != 0 || low.FinalScore != 0 || len(low.MatchedSkills) != 0 {
		t.Errorf("unrelated candidate = %+v", low)
	}
	if low.DisplayName != "carol" {
		t.Errorf("display name = %q", low.DisplayName)
	}
}

func TestScreenEmptyRequiredSkillsAndEmptyResume(t *testing.T) {
	s := newService(t, Options{})
	job := mustJob(t, s, JobRequest{Description: "Data analyst"})
	empty := mustCandidate(t, s, "empty.txt", "   ")

	run := mustScreen(t, s, ScreenRequest{JobID: job.ID})
	got := resultFor(t, run, empty.ID)
	if got.Similarity != 0 {
		t.Errorf("similarity = %v, want 0", got.Similarity)
	}
	if got.SkillCoverage != 1 {
		t.Errorf("coverage = %v, want 1", got.SkillCoverage)
	}
	if got.FinalScore != 40 {
		t.Errorf("final = %d, want 40", got.FinalScore)
	}
	if got.MatchedSkills == nil {
		t.Error("MatchedSkills is nil, want empty")
	}
}

func TestScreenDepartmentBoost(t *testing.T) {
	s := newService(t, Options{})
	job := mustJob(t, s, JobRequest{
		Description:    "Python developer for data pipelines",
		RequiredSkills: []string{"Python", "SQL"},
		Department:     "Data Engineering",
	})
	inDept := mustCandidate(t, s, "dana.txt", "Python developer, five years in Data Engineering")
	outDept := mustCandidate(t, s, "eve.txt", "Python developer, five years in data science")

	run := mustScreen(t, s, ScreenRequest{JobID: job.ID})
	for _, tc := range []struct {
		id    string
		match bool
		boost float64
	}{
		{inDept.ID, true, 1.05},
		{outDept.ID, false, 1},
	} {
		r := resultFor(t, run, tc.id)
		if r.DepartmentMatch != tc.match {
			t.Errorf("%s DepartmentMatch = %v, want %v", r.DisplayName, r.DepartmentMatch, tc.match)
		}
		if r.Department != "Data Engineering" {
			t.Errorf("%s Department = %q", r.DisplayName, r.Department)
		}
		want := int(math.Min(100, math.Round((0.6*r.Similarity+0.4*r.SkillCoverage)*100*tc.boost)))
		if r.FinalScore != want {
			t.Errorf("%s final = %d, want %d", r.DisplayName, r.FinalScore, want)
		}
	}
}

func TestScreenReportsUnknownCandidates(t *testing.T) {
	s := newService(t, Options{})
	job := mustJob(t, s, JobRequest{Description: "Go developer", RequiredSkills: []string{"Go"}})
	c := mustCandidate(t, s, "a.txt", "Go developer")

	run := mustScreen(t, s, ScreenRequest{JobID: job.ID, CandidateIDs: []string{"ghost", c.ID, c.ID}})
	if len(run.Results) != 1 || run.Results[0].CandidateID != c.ID {
		t.Fatalf("results = %+v", run.Results)
	}
	if len(run.Failures) != 1 {
		t.Fatalf("failures = %+v", run.Failures)
	}
	f := run.Failures[0]
	if f.CandidateID != "ghost" || f.Kind != "candidate_not_found" || !errors.Is(f, apperrors.ErrCandidateNotFound) {
		t.Errorf("failure = %+v", f)
	}
}

func TestScreenUnknownJob(t *testing.T) {
	s := newService(t, Options{})
	if _, err := s.Screen(context.Background(), ScreenRequest{JobID: "nope"}); !errors.Is(err, apperrors.ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestScreenCancelled(t *testing.T) {
	s := newService(t, Options{MaxConcurrency: 1})
	job := mustJob(t, s, JobRequest{Description: "Go developer"})
	for i := 0; i < 5; i++ {
		mustCandidate(t, s, fmt.Sprintf("c%d.txt", i), "Go developer")
	}
	before := s.Corpus().TotalDocuments()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run, err := s.Screen(ctx, ScreenRequest{JobID: job.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !run.Cancelled || len(run.Results) != 0 || len(run.Failures) != 5 {
		t.Fatalf("run = %+v", run)
	}
	for _, f := range run.Failures {
		if f.Kind != "cancelled" {
			t.Errorf("failure kind = %q", f.Kind)
		}
	}
	if after := s.Corpus().TotalDocuments(); after != before {
		t.Errorf("corpus changed on cancel: %d -> %d", before, after)
	}
	if len(s.Dashboard(SortByScore)) != 0 {
		t.Error("cancelled candidates reached the dashboard")
	}
}

func TestScreenDeterministic(t *testing.T) {
	s := newService(t, Options{MaxConcurrency: 4})
	job := mustJob(t, s, JobRequest{
		Description:    "Senior engineer: Kubernetes, Docker, AWS, Terraform, Go",
		RequiredSkills: []string{"Kubernetes", "Docker", "AWS"},
	})
	for i := 0; i < 20; i++ {
		mustCandidate(t, s, fmt.Sprintf("r%02d.txt", i), fmt.Sprintf("engineer %d with Docker and k8s and terraform %d", i, i%3))
	}
	first := mustScreen(t, s, ScreenRequest{JobID: job.ID})
	second := mustScreen(t, s, ScreenRequest{JobID: job.ID})
	if len(first.Results) != len(second.Results) {
		t.Fatal("result counts differ")
	}
	for i := range first.Results {
		a, b := first.Results[i], second.Results[i]
		if a.CandidateID != b.CandidateID || a.FinalScore != b.FinalScore ||
			math.Float64bits(a.Similarity) != math.Float64bits(b.Similarity) {
			t.Fatalf("rank %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestUploadCandidatesIsolatesFailures(t *testing.T) {
	texts := map[string]string{
		"/resumes/alice.txt": "Go and Kafka",
		"/resumes/bob.md":    "Python",
	}
	ex := extract.Func(func(_ context.Context, path string) (string, error) {
		if text, ok := texts[path]; ok {
			return text, nil
		}
		return "", apperrors.Newf(apperrors.ErrExtractionFailed, "%s: corrupt", path)
	})
	s := newService(t, Options{Extractor: ex})

	added, failures := s.UploadCandidates(context.Background(), []string{"/resumes/alice.txt", "/resumes/broken.pdf", "/resumes/bob.md"})
	if len(added) != 2 || added[0].DisplayName != "alice" || added[1].DisplayName != "bob" {
		t.Fatalf("added = %+v", added)
	}
	if !reflect.DeepEqual(added[0].Skills.Names(), []string{"Go", "Kafka"}) {
		t.Errorf("skills = %q", added[0].Skills.Names())
	}
	if len(failures) != 1 || failures[0].FileName != "/resumes/broken.pdf" || failures[0].Kind != "extraction_failed" {
		t.Fatalf("failures = %+v", failures)
	}
	if n := s.Corpus().TotalDocuments(); n != 2 {
		t.Errorf("corpus documents = %d, want 2", n)
	}
}

func TestUploadCandidatesClassifiesExtractorErrors(t *testing.T) {
	ex := extract.Func(func(_ context.Context, path string) (string, error) {
		if path == "/resumes/gone.txt" {
			return "", fmt.Errorf("open %s: %w", path, os.ErrNotExist)
		}
		return "Go", nil
	})
	s := newService(t, Options{Extractor: ex})

	added, failures := s.UploadCandidates(context.Background(), []string{"/resumes/ok.txt", "/resumes/gone.txt"})
	if len(added) != 1 || len(failures) != 1 {
		t.Fatalf("added %d, failures %+v", len(added), failures)
	}
	f := failures[0]
	if f.Kind != "extraction_failed" {
		t.Errorf("Kind = %q, want extraction_failed", f.Kind)
	}
	if !errors.Is(f, apperrors.ErrExtractionFailed) || !errors.Is(f, os.ErrNotExist) {
		t.Errorf("failure %v lost its cause", f)
	}
}

func TestRawText(t *testing.T) {
	s := newService(t, Options{})
	raw := "  Ünïcode RÉSUMÉ\n\twith C++  "
	c := mustCandidate(t, s, "x.txt", raw)
	got, err := s.RawText(c.ID)
	if err != nil || got != raw {
		t.Fatalf("RawText = %q, %v", got, err)
	}
	if _, err := s.RawText("missing"); !errors.Is(err, apperrors.ErrCandidateNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestDashboardSortingAndSupersede(t *testing.T) {
	s := newService(t, Options{})
	job := mustJob(t, s, JobRequest{Description: "Go Kafka", RequiredSkills: []string{"Go", "Kafka"}})
	zed := mustCandidate(t, s, "zed.txt", "Go Kafka")
	amy := mustCandidate(t, s, "amy.txt", "Kafka")
	mustScreen(t, s, ScreenRequest{JobID: job.ID})

	byScore := s.Dashboard(SortByScore)
	if len(byScore) != 2 || byScore[0].CandidateID != zed.ID {
		t.Fatalf("by score = %+v", byScore)
	}
	byName := s.Dashboard(SortByName)
	if byName[0].CandidateID != amy.ID || byName[1].CandidateID != zed.ID {
		t.Fatalf("by name = %+v", byName)
	}

	mustCandidate(t, s, "new.txt", "Rust")
	mustScreen(t, s, ScreenRequest{JobID: job.ID})
	all := s.Dashboard(SortByScore)
	if len(all) != 3 {
		t.Fatalf("dashboard has %d results, want 3 (one per pair)", len(all))
	}

	other := mustJob(t, s, JobRequest{Description: "Rust"})
	mustScreen(t, s, ScreenRequest{JobID: other.ID})
	forJob, err := s.DashboardForJob(job.ID, SortByScore)
	if err != nil || len(forJob) != 3 {
		t.Fatalf("DashboardForJob = %d results, %v", len(forJob), err)
	}
	if len(s.Dashboard(SortByScore)) != 6 {
		t.Errorf("dashboard total = %d, want 6", len(s.Dashboard(SortByScore)))
	}
	if _, err := s.DashboardForJob("nope", SortByName); !errors.Is(err, apperrors.ErrJobNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestSortResultsTies(t *testing.T) {
	results := []MatchResult{
		{CandidateID: "c", DisplayName: "Sam", FinalScore: 80},
		{CandidateID: "a", DisplayName: "Sam", FinalScore: 80},
		{CandidateID: "b", DisplayName: "Ann", FinalScore: 90},
	}
	sortResults(results, SortByScore)
	if got := []string{results[0].CandidateID, results[1].CandidateID, results[2].CandidateID}; !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("by score = %v", got)
	}
	sortResults(results, SortByName)
	if got := []string{results[0].CandidateID, results[1].CandidateID, results[2].CandidateID}; !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("by name = %v", got)
	}
}

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SortMode
		wantErr bool
	}{
		{"", SortByScore, false},
		{"score", SortByScore, false},
		{" NAME ", SortByName, false},
		{"salary", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSortMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSortMode(%q) = %v, %v", tt.in, got, err)
		}
		if tt.wantErr && !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	}
	if SortByName.String() != "name" || SortByScore.String() != "score" {
		t.Error("String() mismatch")
	}
}

type recordingObserver struct {
	mu   sync.Mutex
	runs []*Run
}

func (o *recordingObserver) ObserveRun(_ context.Context, _ Job, run *Run) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, run)
}

func TestMetricsAndObservers(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	obs := &recordingObserver{}
	s := newService(t, Options{Metrics: m, Observers: []RunObserver{obs}})
	job := mustJob(t, s, JobRequest{Description: "Go"})
	mustCandidate(t, s, "a.txt", "Go")
	mustCandidate(t, s, "b.txt", "Java")
	mustScreen(t, s, ScreenRequest{JobID: job.ID, CandidateIDs: []string{"ghost"}})
	mustScreen(t, s, ScreenRequest{JobID: job.ID})

	if got := testutil.ToFloat64(m.DocumentsIngestedTotal.WithLabelValues("resume")); got != 2 {
		t.Errorf("resumes ingested = %v", got)
	}
	if got := testutil.ToFloat64(m.CorpusDocuments); got != 3 {
		t.Errorf("corpus documents = %v", got)
	}
	if got := testutil.ToFloat64(m.ScreeningRunsTotal.WithLabelValues("completed")); got != 2 {
		t.Errorf("completed runs = %v", got)
	}
	if got := testutil.ToFloat64(m.CandidatesScoredTotal); got != 2 {
		t.Errorf("candidates scored = %v", got)
	}
	if got := testutil.ToFloat64(m.CandidateFailuresTotal.WithLabelValues("candidate_not_found")); got != 1 {
		t.Errorf("not found failures = %v", got)
	}
	if len(obs.runs) != 2 {
		t.Errorf("observer saw %d runs", len(obs.runs))
	}
}

func TestConcurrentIngestAndScreen(t *testing.T) {
	s := newService(t, Options{MaxConcurrency: 4})
	job := mustJob(t, s, JobRequest{Description: "Go Kafka Redis", RequiredSkills: []string{"Go"}})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				s.AddCandidate(context.Background(), CandidateRequest{FileName: "r.txt", Text: fmt.Sprintf("Go Kafka %d", i)})
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				run, err := s.Screen(context.Background(), ScreenRequest{JobID: job.ID})
				if err != nil {
					t.Error(err)
					return
				}
				for _, r := range run.Results {
					if r.FinalScore < 0 || r.FinalScore > 100 {
						t.Errorf("score %d out of range", r.FinalScore)
					}
				}
			}
		}()
	}
	wg.Wait()
	if n := len(s.Candidates()); n != 100 {
		t.Errorf("candidates = %d, want 100", n)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{DepartmentBoost: 0.5}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("boost err = %v", err)
	}
}
