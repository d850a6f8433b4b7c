package matching

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"dorm-allocation-backend/internal/model"
	"dorm-allocation-backend/internal/store"
)

// Scorer computes pairwise/group compatibility scores. Scores combine a
// tag component, a major component and a bed-type component via the
// weight table, plus a small random jitter that breaks ties in the
// subsequent ranking sort.
type Scorer struct {
	store store.Store

	mu  sync.Mutex
	rng *rand.Rand

	// BedTypeScore is an extension point: no bed-type preference data is
	// modeled yet, so the default returns a constant 0.5.
	BedTypeScore func(student model.Student) float64
}

// NewScorer creates a scorer. A nil rng gets a time-seeded source;
// passing a fixed-seed rand makes scoring runs reproducible in tests.
func NewScorer(s store.Store, rng *rand.Rand) *Scorer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scorer{
		store:        s,
		rng:          rng,
		BedTypeScore: func(model.Student) float64 { return 0.5 },
	}
}

// Score computes the compatibility score of student against the given
// peer group. The peer group is the batch being processed, so a score is
// relative to who else is in the batch, not to a fixed population.
func (sc *Scorer) Score(ctx context.Context, student model.Student, peers []model.Student) (float64, error) {
	tags, err := sc.store.ListTagsByStudent(ctx, student.ID)
	if err != nil {
		return 0, &PersistenceError{Op: "list tags", Err: err}
	}

	weights, err := CurrentWeights(ctx, sc.store)
	if err != nil {
		return 0, err
	}

	score := tagScore(tags) * weights[model.WeightTag]
	score += majorScore(student, peers) * weights[model.WeightMajor]
	score += sc.BedTypeScore(student) * weights[model.WeightBedType]
	score += sc.jitter()

	return score, nil
}

// jitter draws a uniform value in [0, 0.1) to avoid identical scores.
func (sc *Scorer) jitter() float64 {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.rng.Float64() * 0.1
}

// tagScore starts from a neutral 0.5 and moves 0.1 per lexicon hit,
// clamped to [0,1]. A student with no tags scores exactly 0.5.
func tagScore(tags []model.RoommateTag) float64 {
	score := 0.5
	for _, tag := range tags {
		if IsPositiveTag(tag.TagName) {
			score += 0.1
		} else if IsNegativeTag(tag.TagName) {
			score -= 0.1
		}
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// majorScore is the share of the peer group sharing the student's major.
func majorScore(student model.Student, peers []model.Student) float64 {
	if len(peers) == 0 {
		return 0
	}
	sameMajor := 0
	for _, peer := range peers {
		if peer.Major == student.Major {
			sameMajor++
		}
	}
	s := float64(sameMajor) / float64(len(peers))
	if s > 1 {
		return 1
	}
	return s
}
