package streams

// Summary counts sessions per terminal state. Requested is the
// post-dedup input size; the per-state counts always sum to it.
type Summary struct {
	Requested         int `json:"requested"`
	NotFound          int `json:"not_found"`
	AlreadyHasStreams int `json:"already_has_streams"`
	MissingStrava     int `json:"missing_strava"`
	Enriched          int `json:"enriched"`
	Failed            int `json:"failed"`
}

// IDBuckets lists the session IDs per terminal state, in input order,
// for caller-side reporting.
type IDBuckets struct {
	NotFound          []string `json:"not_found"`
	AlreadyHasStreams []string `json:"already_has_streams"`
	MissingStrava     []string `json:"missing_strava"`
	Enriched          []string `json:"enriched"`
	Failed            []string `json:"failed"`
}

// Report is the aggregate result of one bulk enrichment call. There is
// no single success/failure flag: partial success is the normal case.
type Report struct {
	Summary Summary   `json:"summary"`
	IDs     IDBuckets `json:"ids"`
}

func buildReport(order []string, states map[string]State) *Report {
	rep := &Report{Summary: Summary{Requested: len(order)}}
	for _, id := range order {
		switch states[id] {
		case StateNotFound:
			rep.Summary.NotFound++
			rep.IDs.NotFound = append(rep.IDs.NotFound, id)
		case StateAlreadyHasStreams:
			rep.Summary.AlreadyHasStreams++
			rep.IDs.AlreadyHasStreams = append(rep.IDs.AlreadyHasStreams, id)
		case StateMissingStrava:
			rep.Summary.MissingStrava++
			rep.IDs.MissingStrava = append(rep.IDs.MissingStrava, id)
		case StateEnriched:
			rep.Summary.Enriched++
			rep.IDs.Enriched = append(rep.IDs.Enriched, id)
		case StateFailed:
			rep.Summary.Failed++
			rep.IDs.Failed = append(rep.IDs.Failed, id)
		}
	}
	return rep
}
