package autofix

// RuleStats tallies one rule id's outcomes across a run.
type RuleStats struct {
	Applied int
	Failed  int
	Skipped int
	Safe    bool
}

// Stats is the per-run counters §4.F's "Statistics" section requires.
type Stats struct {
	AppliedSafe    int
	AppliedUnsafe  int
	Failed         int
	Skipped        int
	FilesModified  int
	ByRule         map[string]*RuleStats
}

// NewStats returns an empty, initialized Stats.
func NewStats() *Stats {
	return &Stats{ByRule: make(map[string]*RuleStats)}
}

func (s *Stats) ruleStats(ruleID string, safe bool) *RuleStats {
	rs, ok := s.ByRule[ruleID]
	if !ok {
		rs = &RuleStats{Safe: safe}
		s.ByRule[ruleID] = rs
	}
	return rs
}

// Record folds one FileResult's outcomes into the aggregate.
func (s *Stats) Record(result FileResult) {
	if result.Written {
		s.FilesModified++
	}
	for _, f := range result.AppliedFixes {
		rs := s.ruleStats(f.RuleID, f.IsSafe())
		rs.Applied++
		if f.IsSafe() {
			s.AppliedSafe++
		} else {
			s.AppliedUnsafe++
		}
	}
	for _, f := range result.FailedFixes {
		s.ruleStats(f.RuleID, f.IsSafe()).Failed++
		s.Failed++
	}
	for _, f := range result.SkippedFixes {
		s.ruleStats(f.RuleID, f.IsSafe()).Skipped++
		s.Skipped++
	}
}

// RecordAll folds every result in results into the aggregate.
func (s *Stats) RecordAll(results []FileResult) {
	for _, r := range results {
		s.Record(r)
	}
}
