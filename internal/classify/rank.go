package classify

import (
	"sort"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// Classify returns copies of samples with Category set, ordered by pid.
func Classify(rules *Rules, samples []model.ProcessSample) []model.ProcessSample {
	out := make([]model.ProcessSample, len(samples))
	for i, s := range samples {
		s.Category = rules.Categorize(s.Name)
		out[i] = s
	}
	model.SortByPID(out)
	return out
}

// Rank builds the top-n lists per category and metric from classified samples.
// Ties are broken by ascending pid so the result depends only on the input set.
func Rank(samples []model.ProcessSample, n int) model.Rankings {
	var user, system []model.ProcessSample
	for _, s := range samples {
		if s.Category == model.CategorySystem {
			system = append(system, s)
		} else {
			user = append(user, s)
		}
	}
	byCPU := func(a, b model.ProcessSample) bool {
		if a.CPUPercent != b.CPUPercent {
			return a.CPUPercent > b.CPUPercent
		}
		return a.PID < b.PID
	}
	byRAM := func(a, b model.ProcessSample) bool {
		if a.RAMBytes != b.RAMBytes {
			return a.RAMBytes > b.RAMBytes
		}
		return a.PID < b.PID
	}
	return model.Rankings{
		UserCPU:   top(user, n, byCPU),
		SystemCPU: top(system, n, byCPU),
		UserRAM:   top(user, n, byRAM),
		SystemRAM: top(system, n, byRAM),
	}
}

func top(in []model.ProcessSample, n int, less func(a, b model.ProcessSample) bool) []model.ProcessSample {
	out := make([]model.ProcessSample, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
