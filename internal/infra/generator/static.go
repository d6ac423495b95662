// Package generator provides the candidate-content collaborator. The engine
// only consumes the structural output; swapping in a real AI-backed
// implementation is a matter of satisfying challenge.Generator.
package generator

import (
	"context"

	"team_challenge_bot/internal/domain/challenge"
)

// pool is a canned rotation of candidates used until a content backend is
// wired in.
var pool = []challenge.Candidate{
	{Text: "Сделайте 10-минутную разминку", TimeSlot: challenge.SlotMorning, Points: 10, Difficulty: "easy", Duration: "10m", FocusArea: "health"},
	{Text: "Напишите коллеге слова благодарности", TimeSlot: challenge.SlotAfternoon, Points: 15, Difficulty: "easy", Duration: "5m", FocusArea: "team"},
	{Text: "Подведите итоги дня в трёх предложениях", TimeSlot: challenge.SlotEvening, Points: 20, Difficulty: "medium", Duration: "15m", FocusArea: "reflection"},
}

type StaticGenerator struct{}

func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

func (g *StaticGenerator) GenerateCandidates(_ context.Context, _ int64, count int) ([]challenge.Candidate, error) {
	if count < 1 {
		count = 1
	}
	candidates := make([]challenge.Candidate, 0, count)
	for i := 0; i < count; i++ {
		candidates = append(candidates, pool[i%len(pool)])
	}
	return candidates, nil
}
