package service

import "exam_prep_backend/internal/util"

// Score turns the number of correct stored answers into the persisted result.
// The percentage is nil when the paper has no questions.
func Score(correct, total int) (int, *float64) {
	if total <= 0 {
		return correct, nil
	}
	pct := util.Round2(float64(correct) / float64(total) * 100)
	return correct, &pct
}
