package booking

// Per-field confidence by extraction source. Pattern matches are near
// certain; model output is plausible but unverified.
const (
	confidencePattern = 0.9
	confidenceLLM     = 0.6
)

// MergeExtractions combines the two extractor views of one utterance. The
// pattern value wins whenever it is present; the LLM fills only the gaps.
// Pure function of its inputs.
func MergeExtractions(pattern, llm Fields) (Fields, map[string]float64) {
	merged := Fields{}
	confidence := make(map[string]float64)

	pick := func(name, p, l string) string {
		if p != "" {
			confidence[name] = confidencePattern
			return p
		}
		if l != "" {
			confidence[name] = confidenceLLM
			return l
		}
		return ""
	}

	merged.Name = pick("name", pattern.Name, llm.Name)
	merged.Email = pick("email", pattern.Email, llm.Email)
	merged.Date = pick("date", pattern.Date, llm.Date)
	merged.Time = pick("time", pattern.Time, llm.Time)
	merged.InterviewType = pick("interview_type", pattern.InterviewType, llm.InterviewType)

	return merged, confidence
}

// Merge folds one turn's extracted fields into the draft. Non-empty values
// overwrite, empty values never erase, so accumulation is monotonic and
// replaying the same turn is a no-op.
func (d *Draft) Merge(f Fields, confidence map[string]float64, turn int) {
	if d.Confidence == nil {
		d.Confidence = make(map[string]float64)
	}

	changed := false
	apply := func(name string, dst *string, val string) {
		if val == "" {
			return
		}
		if *dst != val {
			changed = true
		}
		*dst = val
		if c, ok := confidence[name]; ok {
			d.Confidence[name] = c
		}
	}

	apply("name", &d.Name, f.Name)
	apply("email", &d.Email, f.Email)
	apply("date", &d.Date, f.Date)
	apply("time", &d.Time, f.Time)
	apply("interview_type", &d.InterviewType, f.InterviewType)

	if changed && (len(d.SourceTurns) == 0 || d.SourceTurns[len(d.SourceTurns)-1] != turn) {
		d.SourceTurns = append(d.SourceTurns, turn)
	}
}

// TurnConfidence grades a turn outcome on the completeness ladder: intent
// alone scores lowest, each filled required field climbs, and fields sourced
// from the deterministic extractor add a small boost.
func TurnConfidence(d Draft) float64 {
	missing := len(d.Missing())
	present := len(requiredFields) - missing
	if present == 0 {
		return 0.4
	}

	var base float64
	switch missing {
	case 0:
		base = 0.9
	case 1:
		base = 0.7
	default:
		base = 0.5
	}

	for _, f := range requiredFields {
		if d.field(f) != "" && d.Confidence[f] >= confidencePattern {
			base += 0.02
		}
	}
	if base > 1.0 {
		return 1.0
	}
	return base
}

// OverallConfidence is the mean confidence across the required fields that
// are present. Zero when nothing has been extracted yet.
func (d Draft) OverallConfidence() float64 {
	var sum float64
	var n int
	for _, f := range requiredFields {
		if d.field(f) != "" {
			if c, ok := d.Confidence[f]; ok {
				sum += c
			} else {
				sum += confidenceLLM
			}
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
