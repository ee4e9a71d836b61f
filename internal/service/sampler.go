package service

import (
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"math/rand/v2"
	"sync"
)

// bandQuotas splits n across EASY/MEDIUM/HARD. EASY and HARD are floored,
// MEDIUM takes the remainder.
func bandQuotas(n int, split config.PracticeConfig) map[model.Difficulty]int {
	easy := n * split.EasyPercent / 100
	hard := n * split.HardPercent / 100
	return map[model.Difficulty]int{
		model.DifficultyEasy:   easy,
		model.DifficultyMedium: n - easy - hard,
		model.DifficultyHard:   hard,
	}
}

// backfillOrder is the band preference used to cover another band's shortfall.
var backfillOrder = []model.Difficulty{model.DifficultyMedium, model.DifficultyEasy, model.DifficultyHard}

type sampler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newSampler(src rand.Source) *sampler {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &sampler{rnd: rand.New(src)}
}

// shuffled returns a permuted copy of ids.
func (s *sampler) shuffled(ids []string) []string {
	out := append([]string(nil), ids...)
	s.mu.Lock()
	s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	s.mu.Unlock()
	return out
}

// pick draws up to n distinct ids.
func (s *sampler) pick(ids []string, n int) []string {
	out := s.shuffled(ids)
	if n < len(out) {
		out = out[:n]
	}
	return out
}

type bandPick struct {
	quota  int
	picked []string
	spare  []string
}

// pickMixed samples each band to its quota, then tops up short bands from the
// spare questions of the others. Bands come back in EASY, MEDIUM, HARD order.
func (s *sampler) pickMixed(candidates map[model.Difficulty][]string, quotas map[model.Difficulty]int) map[model.Difficulty]*bandPick {
	picks := make(map[model.Difficulty]*bandPick, len(model.Bands))
	missing := 0
	for _, band := range model.Bands {
		all := s.shuffled(candidates[band])
		q := quotas[band]
		p := &bandPick{quota: q}
		if q >= len(all) {
			p.picked = all
			missing += q - len(all)
		} else {
			p.picked = all[:q]
			p.spare = all[q:]
		}
		picks[band] = p
	}

	for _, band := range backfillOrder {
		if missing == 0 {
			break
		}
		p := picks[band]
		take := min(missing, len(p.spare))
		p.picked = append(p.picked, p.spare[:take]...)
		p.spare = p.spare[take:]
		missing -= take
	}
	return picks
}
