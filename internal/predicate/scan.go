package predicate

import "github.com/verte-zerg/gazetag/internal/model"

// nextDistinctRegion returns the index of the first fixation after i whose
// region is set and differs from events[i].Region, or -1.
func nextDistinctRegion(events []model.Event, i int, cls model.Classifier) int {
	current := events[i].Region
	for j := i + 1; j < len(events); j++ {
		ev := &events[j]
		if cls.Kind(ev) != model.KindFixation || ev.Region == "" {
			continue
		}
		if ev.Region != current {
			return j
		}
	}
	return -1
}

func previousSaccade(events []model.Event, i int, cls model.Classifier) int {
	for j := i - 1; j >= 0; j-- {
		if cls.Kind(&events[j]) == model.KindSaccade {
			return j
		}
	}
	return -1
}

func nextSaccade(events []model.Event, i int, cls model.Classifier) int {
	for j := i + 1; j < len(events); j++ {
		if cls.Kind(&events[j]) == model.KindSaccade {
			return j
		}
	}
	return -1
}
