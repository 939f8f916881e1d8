package journal

import "strconv"

// Summary condenses a journal.
type Summary struct {
	Entries     int    `json:"entries"`
	Games       int    `json:"games"`
	Rounds      int    `json:"rounds"`
	Mismatches  int    `json:"mismatches"`
	BestScore   int    `json:"best_score"`
	FinalScore  int    `json:"final_score"`
	FinalStatus string `json:"final_status"`
}

// Summarize counts games (score resets), completed rounds (score
// increments), and mismatches, and reports the last score and status seen.
func Summarize(entries []Entry) Summary {
	s := Summary{Entries: len(entries), FinalStatus: "idle"}

	for _, e := range entries {
		switch e.Kind {
		case KindScore:
			v, err := strconv.Atoi(e.Value)
			if err != nil {
				continue
			}
			if v == 0 {
				s.Games++
			} else {
				s.Rounds++
			}
			s.FinalScore = v
			s.BestScore = max(s.BestScore, v)
		case KindStatus:
			s.FinalStatus = e.Value
		case KindMarkFail:
			s.Mismatches++
		}
	}

	return s
}

// Filter returns the entries of the given kinds, in order.
func Filter(entries []Entry, kinds ...Kind) []Entry {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var out []Entry
	for _, e := range entries {
		if want[e.Kind] {
			out = append(out, e)
		}
	}
	return out
}
