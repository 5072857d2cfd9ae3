package screening

// Dashboard returns the latest result of every screened (job, candidate)
// pair, ordered by mode.
func (s *Service) Dashboard(mode SortMode) []MatchResult {
	return s.dashboard("", mode)
}

// DashboardForJob is Dashboard restricted to one job. An unknown job yields
// ErrJobNotFound.
func (s *Service) DashboardForJob(jobID string, mode SortMode) ([]MatchResult, error) {
	if _, err := s.Job(jobID); err != nil {
		return nil, err
	}
	return s.dashboard(jobID, mode), nil
}

func (s *Service) dashboard(jobID string, mode SortMode) []MatchResult {
	s.mu.RLock()
	out := make([]MatchResult, 0, len(s.results))
	for key, r := range s.results {
		if jobID != "" && key.jobID != jobID {
			continue
		}
		out = append(out, r)
	}
	s.mu.RUnlock()
	sortResults(out, mode)
	return out
}
