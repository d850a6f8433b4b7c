package matching

import (
	"context"
	"errors"
	"sort"
	"time"

	"dorm-allocation-backend/internal/model"
	"dorm-allocation-backend/internal/store"
)

// Engine orchestrates batch allocation: it groups pending students by
// (major, gender), ranks each group by compatibility, and greedily fills
// gender-compatible rooms, lower bunks first.
//
// Precondition: callers must pre-filter students that already hold an
// ACTIVE allocation. The engine does not check for one and will happily
// create a second.
type Engine struct {
	store  store.Store
	scorer *Scorer
	guard  *GenderGuard
	strict bool
}

// NewEngine creates an allocation engine. With strict set, unresolvable
// student IDs abort the batch instead of being dropped.
func NewEngine(s store.Store, scorer *Scorer, strict bool) *Engine {
	return &Engine{
		store:  s,
		scorer: scorer,
		guard:  NewGenderGuard(s),
		strict: strict,
	}
}

// BatchResult is the outcome of one allocation run.
type BatchResult struct {
	Allocations []model.Allocation `json:"allocations"`
	Unallocated []string           `json:"unallocated"`
}

// ScoredCandidate is one roommate suggestion.
type ScoredCandidate struct {
	StudentID string  `json:"studentId"`
	Name      string  `json:"name"`
	Gender    string  `json:"gender"`
	Score     float64 `json:"score"`
}

type groupKey struct {
	major  string
	gender string
}

// AllocateBatch assigns the given students to available beds. Rooms are
// committed one at a time; on cancellation or conflict the result holds
// everything committed so far alongside the error.
func (e *Engine) AllocateBatch(ctx context.Context, studentIDs []string) (*BatchResult, error) {
	if len(studentIDs) == 0 {
		return nil, &ValidationError{Field: "studentIds", Reason: "batch is empty"}
	}

	students, err := e.resolveStudents(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	beds, err := e.store.ListAvailableBeds(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list available beds", Err: err}
	}

	result := &BatchResult{
		Allocations: []model.Allocation{},
		Unallocated: []string{},
	}
	consumed := make(map[string]bool)

	for _, grp := range groupStudents(students) {
		ranked, err := e.rankByCompatibility(ctx, grp.students)
		if err != nil {
			return result, err
		}

		bedsByDorm, dormIDs := partitionBeds(beds, consumed)
		for _, dormID := range dormIDs {
			if len(ranked) == 0 {
				break
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}

			ok, err := e.guard.IsCompatible(ctx, dormID, grp.key.gender)
			if err != nil {
				return result, err
			}
			if !ok {
				continue
			}

			roomBeds := bedsByDorm[dormID]
			sortLowerFirst(roomBeds)

			n := len(ranked)
			if len(roomBeds) < n {
				n = len(roomBeds)
			}

			checkIn := time.Now().UTC()
			allocs := make([]*model.Allocation, 0, n)
			for i := 0; i < n; i++ {
				allocs = append(allocs, &model.Allocation{
					StudentID:   ranked[i].ID,
					DormitoryID: dormID,
					BedID:       roomBeds[i].ID,
					CheckInDate: checkIn,
					Status:      model.AllocationActive,
				})
			}

			if err := e.store.CommitAllocations(ctx, allocs); err != nil {
				if errors.Is(err, store.ErrBedUnavailable) {
					return result, &ConflictError{Reason: err.Error()}
				}
				return result, &PersistenceError{Op: "commit allocations", Err: err}
			}

			for i := 0; i < n; i++ {
				consumed[roomBeds[i].ID] = true
				result.Allocations = append(result.Allocations, *allocs[i])
			}
			ranked = ranked[n:]
		}

		for _, st := range ranked {
			result.Unallocated = append(result.Unallocated, st.ID)
		}
	}

	return result, nil
}

// SuggestRoommates ranks same-major same-gender students by their
// compatibility with that peer group. limit defaults to 5.
func (e *Engine) SuggestRoommates(ctx context.Context, studentID string, limit int) ([]ScoredCandidate, error) {
	if limit <= 0 {
		limit = 5
	}

	student, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch student", Err: err}
	}
	if student == nil {
		return nil, &NotFoundError{Kind: "student", ID: studentID}
	}

	sameMajor, err := e.store.ListStudentsByMajor(ctx, student.Major)
	if err != nil {
		return nil, &PersistenceError{Op: "list students by major", Err: err}
	}

	var peers []model.Student
	for _, s := range sameMajor {
		if s.Gender == student.Gender {
			peers = append(peers, s)
		}
	}

	var candidates []ScoredCandidate
	for _, peer := range peers {
		if peer.ID == studentID {
			continue
		}
		score, err := e.scorer.Score(ctx, peer, peers)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, ScoredCandidate{
			StudentID: peer.ID,
			Name:      peer.Name,
			Gender:    peer.Gender,
			Score:     score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// resolveStudents maps the ID batch to student records. Unresolvable IDs
// are dropped silently unless strict mode is on.
func (e *Engine) resolveStudents(ctx context.Context, studentIDs []string) ([]model.Student, error) {
	students := make([]model.Student, 0, len(studentIDs))
	for _, id := range studentIDs {
		student, err := e.store.GetStudent(ctx, id)
		if err != nil {
			return nil, &PersistenceError{Op: "fetch student", Err: err}
		}
		if student == nil {
			if e.strict {
				return nil, &NotFoundError{Kind: "student", ID: id}
			}
			continue
		}
		students = append(students, *student)
	}
	return students, nil
}

type studentGroup struct {
	key      groupKey
	students []model.Student
}

// groupStudents partitions the batch by (major, gender) with a sorted
// group order so runs are reproducible.
func groupStudents(students []model.Student) []studentGroup {
	byKey := make(map[groupKey][]model.Student)
	for _, s := range students {
		k := groupKey{major: s.Major, gender: s.Gender}
		byKey[k] = append(byKey[k], s)
	}

	keys := make([]groupKey, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].major != keys[j].major {
			return keys[i].major < keys[j].major
		}
		return keys[i].gender < keys[j].gender
	})

	groups := make([]studentGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, studentGroup{key: k, students: byKey[k]})
	}
	return groups
}

// rankByCompatibility sorts a group descending by compatibility score
// computed against that same group.
func (e *Engine) rankByCompatibility(ctx context.Context, group []model.Student) ([]model.Student, error) {
	type scored struct {
		student model.Student
		score   float64
	}
	scoredGroup := make([]scored, 0, len(group))
	for _, s := range group {
		score, err := e.scorer.Score(ctx, s, group)
		if err != nil {
			return nil, err
		}
		scoredGroup = append(scoredGroup, scored{student: s, score: score})
	}

	sort.SliceStable(scoredGroup, func(i, j int) bool {
		return scoredGroup[i].score > scoredGroup[j].score
	})

	ranked := make([]model.Student, 0, len(scoredGroup))
	for _, s := range scoredGroup {
		ranked = append(ranked, s.student)
	}
	return ranked, nil
}

// partitionBeds splits the unconsumed bed pool by dormitory with a
// sorted room order so runs are reproducible.
func partitionBeds(beds []model.Bed, consumed map[string]bool) (map[string][]model.Bed, []string) {
	byDorm := make(map[string][]model.Bed)
	for _, b := range beds {
		if consumed[b.ID] {
			continue
		}
		byDorm[b.DormitoryID] = append(byDorm[b.DormitoryID], b)
	}

	dormIDs := make([]string, 0, len(byDorm))
	for id := range byDorm {
		dormIDs = append(dormIDs, id)
	}
	sort.Strings(dormIDs)
	return byDorm, dormIDs
}

// sortLowerFirst orders a room's beds with lower bunks before upper
// bunks, stable otherwise.
func sortLowerFirst(beds []model.Bed) {
	sort.SliceStable(beds, func(i, j int) bool {
		return beds[i].BedType == model.BedTypeLower && beds[j].BedType != model.BedTypeLower
	})
}
