package probe

import (
	"fmt"
	"math"

	"github.com/okian/discmatch/internal/domain/types"
)

// Verify checks one successful match answer and returns a description of
// every violated property.
func Verify(r Result) []string {
	resp := r.Response
	if resp == nil {
		return nil
	}
	var out []string
	fail := func(format string, args ...any) {
		out = append(out, r.Name+": "+fmt.Sprintf(format, args...))
	}

	if resp.Candidates == 0 {
		if resp.Best != nil || len(resp.Alternates) > 0 {
			fail("results returned without candidates")
		}
		return out
	}
	if resp.Best == nil {
		fail("no best match among %d candidates", resp.Candidates)
		return out
	}
	if got := 1 + len(resp.Alternates); got > resp.Candidates {
		fail("%d results from %d candidates", got, resp.Candidates)
	}

	ranked := append([]types.Match{*resp.Best}, resp.Alternates...)
	for i, m := range ranked {
		if m.Rank != i+1 {
			fail("result %d has rank %d", i+1, m.Rank)
		}
		if m.Score < 0 || m.Score > 1 {
			fail("%s score %.4f outside [0,1]", m.Disc.Name, m.Score)
		}
		if want := int(math.Round(m.Score * 100)); m.Percentage != want {
			fail("%s percentage %d, want %d", m.Disc.Name, m.Percentage, want)
		}
		if m.CategoryCompat < 0 || m.CategoryCompat > 1 {
			fail("%s category compatibility %.2f outside [0,1]", m.Disc.Name, m.CategoryCompat)
		}
		if len(m.Reasons) == 0 {
			fail("%s has no reasons", m.Disc.Name)
		}
		if i > 0 && m.Score > ranked[i-1].Score {
			fail("%s ranked below %s with a higher score", m.Disc.Name, ranked[i-1].Disc.Name)
		}
	}
	return out
}
