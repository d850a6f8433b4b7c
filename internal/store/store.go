package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dorm-allocation-backend/internal/model"
	"dorm-allocation-backend/internal/parse"
)

// ErrBedUnavailable is returned when a bed lost its AVAILABLE status
// between selection and commit.
var ErrBedUnavailable = errors.New("bed is not available")

// ErrAllocationNotActive is returned when ending an allocation that is
// not in the ACTIVE state.
var ErrAllocationNotActive = errors.New("allocation is not active")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	GetStudent(ctx context.Context, id string) (*model.Student, error)
	ListStudentsByMajor(ctx context.Context, major string) ([]model.Student, error)
	ListTagsByStudent(ctx context.Context, studentID string) ([]model.RoommateTag, error)

	GetDormitory(ctx context.Context, id string) (*model.Dormitory, error)
	ListAvailableBeds(ctx context.Context) ([]model.Bed, error)

	GetAllocation(ctx context.Context, id int64) (*model.Allocation, error)
	ListActiveAllocationsByDorm(ctx context.Context, dormitoryID string) ([]model.Allocation, error)
	ActiveAllocationForStudent(ctx context.Context, studentID string) (*model.Allocation, error)
	CommitAllocations(ctx context.Context, allocs []*model.Allocation) error
	EndAllocation(ctx context.Context, allocationID int64, checkOut time.Time) error

	ListEnabledWeights(ctx context.Context) ([]model.AlgorithmWeight, error)
	UpsertWeight(ctx context.Context, weightType string, value float64) error

	InsertFeedback(ctx context.Context, fb *model.AllocationFeedback) error
	ListFeedback(ctx context.Context) ([]model.AllocationFeedback, error)
	ListFeedbackByStudent(ctx context.Context, studentID string) ([]model.AllocationFeedback, error)

	UpsertDormsAndBeds(ctx context.Context, items []FacilityItem) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for thin read-only handlers.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// GetStudent returns the student or nil when the ID does not resolve.
func (s *gormStore) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := s.db.WithContext(ctx).First(&student, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student %s: %w", id, err)
	}
	return &student, nil
}

func (s *gormStore) ListStudentsByMajor(ctx context.Context, major string) ([]model.Student, error) {
	var students []model.Student
	if err := s.db.WithContext(ctx).Where("major = ?", major).Order("id").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students for major %q: %w", major, err)
	}
	return students, nil
}

func (s *gormStore) ListTagsByStudent(ctx context.Context, studentID string) ([]model.RoommateTag, error) {
	var tags []model.RoommateTag
	if err := s.db.WithContext(ctx).Where("student_id = ?", studentID).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags for student %s: %w", studentID, err)
	}
	return tags, nil
}

// GetDormitory returns the dormitory or nil when the ID does not resolve.
func (s *gormStore) GetDormitory(ctx context.Context, id string) (*model.Dormitory, error) {
	var dorm model.Dormitory
	err := s.db.WithContext(ctx).First(&dorm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dormitory %s: %w", id, err)
	}
	return &dorm, nil
}

// ListAvailableBeds returns AVAILABLE beds in a stable order so that
// allocation runs are reproducible.
func (s *gormStore) ListAvailableBeds(ctx context.Context) ([]model.Bed, error) {
	var beds []model.Bed
	if err := s.db.WithContext(ctx).
		Where("status = ?", model.BedStatusAvailable).
		Order("dormitory_id, bed_number").
		Find(&beds).Error; err != nil {
		return nil, fmt.Errorf("failed to list available beds: %w", err)
	}
	return beds, nil
}

func (s *gormStore) GetAllocation(ctx context.Context, id int64) (*model.Allocation, error) {
	var alloc model.Allocation
	err := s.db.WithContext(ctx).First(&alloc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch allocation %d: %w", id, err)
	}
	return &alloc, nil
}

func (s *gormStore) ListActiveAllocationsByDorm(ctx context.Context, dormitoryID string) ([]model.Allocation, error) {
	var allocs []model.Allocation
	if err := s.db.WithContext(ctx).
		Where("dormitory_id = ? AND status = ?", dormitoryID, model.AllocationActive).
		Find(&allocs).Error; err != nil {
		return nil, fmt.Errorf("failed to list active allocations for dormitory %s: %w", dormitoryID, err)
	}
	return allocs, nil
}

func (s *gormStore) ActiveAllocationForStudent(ctx context.Context, studentID string) (*model.Allocation, error) {
	var alloc model.Allocation
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, model.AllocationActive).
		First(&alloc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active allocation for student %s: %w", studentID, err)
	}
	return &alloc, nil
}

// CommitAllocations persists one room's worth of assignments atomically.
// Each bed is flipped AVAILABLE -> OCCUPIED with an optimistic status
// check; a bed that lost the race aborts the whole transaction with
// ErrBedUnavailable.
func (s *gormStore) CommitAllocations(ctx context.Context, allocs []*model.Allocation) error {
	if len(allocs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, alloc := range allocs {
			res := tx.Model(&model.Bed{}).
				Where("id = ? AND status = ?", alloc.BedID, model.BedStatusAvailable).
				Update("status", model.BedStatusOccupied)
			if res.Error != nil {
				return fmt.Errorf("failed to occupy bed %s: %w", alloc.BedID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("bed %s: %w", alloc.BedID, ErrBedUnavailable)
			}

			if err := tx.Create(alloc).Error; err != nil {
				return fmt.Errorf("failed to create allocation for student %s: %w", alloc.StudentID, err)
			}

			if err := tx.Model(&model.Dormitory{}).
				Where("id = ?", alloc.DormitoryID).
				Update("current_occupancy", gorm.Expr("current_occupancy + 1")).Error; err != nil {
				return fmt.Errorf("failed to bump occupancy for dormitory %s: %w", alloc.DormitoryID, err)
			}
		}
		return nil
	})
}

// EndAllocation closes an ACTIVE allocation and releases its bed.
func (s *gormStore) EndAllocation(ctx context.Context, allocationID int64, checkOut time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var alloc model.Allocation
		if err := tx.First(&alloc, "id = ?", allocationID).Error; err != nil {
			return err
		}
		if alloc.Status != model.AllocationActive {
			return fmt.Errorf("allocation %d: %w", allocationID, ErrAllocationNotActive)
		}

		if err := tx.Model(&alloc).Updates(map[string]any{
			"status":         model.AllocationEnded,
			"check_out_date": checkOut,
		}).Error; err != nil {
			return fmt.Errorf("failed to end allocation %d: %w", allocationID, err)
		}

		if err := tx.Model(&model.Bed{}).
			Where("id = ?", alloc.BedID).
			Update("status", model.BedStatusAvailable).Error; err != nil {
			return fmt.Errorf("failed to release bed %s: %w", alloc.BedID, err)
		}

		if err := tx.Model(&model.Dormitory{}).
			Where("id = ? AND current_occupancy > 0", alloc.DormitoryID).
			Update("current_occupancy", gorm.Expr("current_occupancy - 1")).Error; err != nil {
			return fmt.Errorf("failed to lower occupancy for dormitory %s: %w", alloc.DormitoryID, err)
		}
		return nil
	})
}

func (s *gormStore) ListEnabledWeights(ctx context.Context) ([]model.AlgorithmWeight, error) {
	var weights []model.AlgorithmWeight
	if err := s.db.WithContext(ctx).Where("enabled = ?", true).Find(&weights).Error; err != nil {
		return nil, fmt.Errorf("failed to list enabled weights: %w", err)
	}
	return weights, nil
}

// UpsertWeight writes a weight row with last-writer-wins semantics. The
// conflict clause keeps concurrent submissions deterministic at the
// database level.
func (s *gormStore) UpsertWeight(ctx context.Context, weightType string, value float64) error {
	now := time.Now().UTC()
	weight := model.AlgorithmWeight{
		WeightType:  weightType,
		WeightValue: value,
		Enabled:     true,
		Description: "动态调整的权重配置",
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "weight_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"weight_value", "enabled", "last_updated"}),
	}).Create(&weight).Error; err != nil {
		return fmt.Errorf("failed to upsert weight %s: %w", weightType, err)
	}
	return nil
}

func (s *gormStore) InsertFeedback(ctx context.Context, fb *model.AllocationFeedback) error {
	if err := s.db.WithContext(ctx).Create(fb).Error; err != nil {
		return fmt.Errorf("failed to insert feedback for student %s: %w", fb.StudentID, err)
	}
	return nil
}

func (s *gormStore) ListFeedback(ctx context.Context) ([]model.AllocationFeedback, error) {
	var feedbacks []model.AllocationFeedback
	if err := s.db.WithContext(ctx).Find(&feedbacks).Error; err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedbacks, nil
}

func (s *gormStore) ListFeedbackByStudent(ctx context.Context, studentID string) ([]model.AllocationFeedback, error) {
	var feedbacks []model.AllocationFeedback
	if err := s.db.WithContext(ctx).Where("student_id = ?", studentID).Find(&feedbacks).Error; err != nil {
		return nil, fmt.Errorf("failed to list feedback for student %s: %w", studentID, err)
	}
	return feedbacks, nil
}

// UpsertDormsAndBeds handles the database updates for dormitory and bed
// metadata coming from the facilities feed.
func (s *gormStore) UpsertDormsAndBeds(ctx context.Context, items []FacilityItem) error {
	existingBeds, err := s.fetchAllBeds(ctx)
	if err != nil {
		log.Printf("Warning: could not pre-fetch beds: %v", err)
		existingBeds = make(map[string]model.Bed)
	}

	// Phase 1: Process and save dormitories
	dormMap, err := s.processAndSaveDorms(ctx, items)
	if err != nil {
		return fmt.Errorf("failed to process dormitories: %w", err)
	}

	// Phase 2: Build bed slice for upserting
	var bedsToUpsert []model.Bed
	for _, item := range items {
		parsedLabel, err := parse.ParseBedLabel(item.Name, item.RoomCode)
		if err != nil {
			log.Printf("Error parsing label for item %s (%s): %v", item.ID, item.Name, err)
			continue
		}

		dorm, ok := dormMap[dormName(parsedLabel)]
		if !ok {
			log.Printf("Error: could not find dormitory %q in map after upserting. Skipping bed %s.", dormName(parsedLabel), item.ID)
			continue
		}

		bed, needsUpsert := prepareBed(item, parsedLabel, existingBeds, dorm.ID)
		if needsUpsert {
			bedsToUpsert = append(bedsToUpsert, bed)
		}
	}

	if len(bedsToUpsert) > 0 {
		log.Printf("Batch upserting %d beds...", len(bedsToUpsert))
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return batchUpsertBeds(tx, bedsToUpsert)
		})
	}
	return nil
}

func (s *gormStore) fetchAllBeds(ctx context.Context) (map[string]model.Bed, error) {
	var beds []model.Bed
	if err := s.db.WithContext(ctx).Find(&beds).Error; err != nil {
		return nil, err
	}
	bedMap := make(map[string]model.Bed, len(beds))
	for _, b := range beds {
		bedMap[b.ID] = b
	}
	return bedMap, nil
}

func dormName(label parse.ParsedLabel) string {
	return fmt.Sprintf("%s-%d", label.Building, label.Room)
}

func (s *gormStore) processAndSaveDorms(ctx context.Context, items []FacilityItem) (map[string]model.Dormitory, error) {
	dormsToUpsert := make(map[string]model.Dormitory)
	bedCounts := make(map[string]int)
	for _, item := range items {
		parsedLabel, err := parse.ParseBedLabel(item.Name, item.RoomCode)
		if err != nil {
			continue
		}
		name := dormName(parsedLabel)
		bedCounts[name]++
		if _, exists := dormsToUpsert[name]; !exists {
			dormsToUpsert[name] = model.Dormitory{
				ID:         name,
				Name:       name,
				Building:   parsedLabel.Building,
				RoomNumber: parsedLabel.Room,
				Status:     "NORMAL",
			}
		}
	}

	if len(dormsToUpsert) == 0 {
		return make(map[string]model.Dormitory), nil
	}

	var dormList []model.Dormitory
	for name, d := range dormsToUpsert {
		d.BedCount = bedCounts[name]
		dormList = append(dormList, d)
	}

	log.Printf("Batch upserting %d dormitories...", len(dormList))
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"building", "room_number", "bed_count"}),
	}).Create(&dormList).Error; err != nil {
		return nil, fmt.Errorf("batch upsert dormitories failed: %w", err)
	}

	var allDorms []model.Dormitory
	if err := s.db.WithContext(ctx).Find(&allDorms).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve dormitories after upsert: %w", err)
	}

	dormMap := make(map[string]model.Dormitory, len(allDorms))
	for _, d := range allDorms {
		dormMap[d.Name] = d
	}
	return dormMap, nil
}

func normalizeBedType(raw string) string {
	switch {
	case strings.EqualFold(raw, "lower"), raw == "下铺":
		return model.BedTypeLower
	case strings.EqualFold(raw, "upper"), raw == "上铺":
		return model.BedTypeUpper
	}
	return model.BedTypeUpper
}

func prepareBed(item FacilityItem, label parse.ParsedLabel, existingBeds map[string]model.Bed, dormitoryID string) (model.Bed, bool) {
	newBed := model.Bed{
		ID:          item.ID,
		DormitoryID: dormitoryID,
		BedNumber:   label.Seq,
		BedType:     normalizeBedType(item.BedType),
		Status:      model.BedStatusAvailable,
	}

	if oldBed, exists := existingBeds[newBed.ID]; exists {
		// The feed never overrides an allocation-owned status.
		newBed.Status = oldBed.Status
		if oldBed.DormitoryID == newBed.DormitoryID &&
			oldBed.BedNumber == newBed.BedNumber &&
			oldBed.BedType == newBed.BedType {
			return newBed, false
		}
	}
	return newBed, true
}

func batchUpsertBeds(tx *gorm.DB, beds []model.Bed) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"dormitory_id", "bed_number", "bed_type", "updated_at"}),
	}).Create(&beds).Error
}
