package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/extract"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/screening"
	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/kafka"
)

type screenOptions struct {
	jobPath       string
	skills        []string
	department    string
	sort          string
	format        string
	publishEvents bool
}

func newScreenCmd(root *rootOptions) *cobra.Command {
	opts := &screenOptions{}
	cmd := &cobra.Command{
		Use:   "screen RESUME...",
		Short: "Rank resume files against a job description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreen(cmd.Context(), root, opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&opts.jobPath, "job", "j", "", "job description file (required)")
	cmd.Flags().StringSliceVarP(&opts.skills, "skills", "s", nil, "required skills, comma separated taxonomy names")
	cmd.Flags().StringVarP(&opts.department, "department", "d", "", "department label; resumes mentioning it get the department boost")
	cmd.Flags().StringVar(&opts.sort, "sort", "score", "result order: score or name")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "output format: table or json")
	cmd.Flags().BoolVar(&opts.publishEvents, "publish-events", false, "publish the run summary to the Kafka screening events topic")
	cmd.MarkFlagRequired("job")
	return cmd
}

type screenReport struct {
	Job      screening.Job           `json:"job"`
	Results  []screening.MatchResult `json:"results"`
	Failures []screening.Failure     `json:"failures"`
	Cached   bool                    `json:"cached"`
}

func runScreen(ctx context.Context, root *rootOptions, opts *screenOptions, paths []string, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mode, err := screening.ParseSortMode(opts.sort)
	if err != nil {
		return err
	}
	if opts.format != "table" && opts.format != "json" {
		return apperrors.Newf(apperrors.ErrInvalidInput, "unknown format %q (want table or json)", opts.format)
	}
	cfg := root.cfg

	var observers []screening.RunObserver
	if opts.publishEvents {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ScreeningEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, analytics.CollectorConfig{})
		collector.Start(ctx)
		defer collector.Close()
		observers = append(observers, collector)
	}

	st, err := buildStack(cfg, nil, observers...)
	if err != nil {
		return err
	}
	defer st.Close()

	description, err := extract.FileExtractor{}.Extract(ctx, opts.jobPath)
	if err != nil {
		return err
	}
	job, err := st.svc.CreateJob(ctx, screening.JobRequest{
		Description:    description,
		RequiredSkills: opts.skills,
		Department:     opts.department,
	})
	if err != nil {
		return err
	}

	candidates, failures := st.svc.UploadCandidates(ctx, paths)
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	report := screenReport{Job: job, Results: []screening.MatchResult{}, Failures: failures}
	if len(ids) > 0 {
		run, err := st.svc.Screen(ctx, screening.ScreenRequest{JobID: job.ID, CandidateIDs: ids})
		if err != nil {
			return err
		}
		report.Results, err = st.svc.DashboardForJob(job.ID, mode)
		if err != nil {
			return err
		}
		report.Failures = append(report.Failures, run.Failures...)
		report.Cached = run.Cached
	}
	if report.Failures == nil {
		report.Failures = []screening.Failure{}
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	if err := writeTable(out, report.Results); err != nil {
		return err
	}
	for _, f := range report.Failures {
		fmt.Fprintf(errOut, "skipped %s [%s]\n", f.Error(), f.Kind)
	}
	return nil
}

func writeTable(out io.Writer, results []screening.MatchResult) error {
	table := tablewriter.NewWriter(out)
	table.Header("Rank", "Candidate", "Score", "Similarity", "Matched Skills", "Dept")
	for i, r := range results {
		matched := strings.Join(r.MatchedSkills, ", ")
		if matched == "" {
			matched = "-"
		}
		dept := "-"
		if r.DepartmentMatch {
			dept = r.Department
		}
		row := []string{
			strconv.Itoa(i + 1),
			r.DisplayName,
			strconv.Itoa(r.FinalScore),
			strconv.FormatFloat(r.Similarity, 'f', 3, 64),
			matched,
			dept,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
