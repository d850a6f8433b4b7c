package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dorm-allocation-backend/config"
	"dorm-allocation-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Student{},
		&model.Dormitory{},
		&model.Bed{},
		&model.Allocation{},
		&model.RoommateTag{},
		&model.AlgorithmWeight{},
		&model.AllocationFeedback{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableConstraints {
		log.Println("Applying allocation constraint DDL...")
		if err := applyConstraintDDL(db); err != nil {
			log.Printf("Warning: failed to apply some constraint DDL: %v. Continuing without them.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyConstraintDDL installs Postgres-side backstops for the core
// allocation invariants. The bed index makes double-booking impossible
// even if two processes race past the optimistic status check.
func applyConstraintDDL(db *gorm.DB) error {
	ddls := []string{
		// 床位互斥：同一床位最多一条 ACTIVE 分配
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_allocations_active_bed ON allocations (bed_id) WHERE status = 'ACTIVE';",

		// 满意度取值校验
		"ALTER TABLE allocation_feedbacks " +
			"ADD CONSTRAINT allocation_feedbacks_satisfaction_range CHECK (" +
			"roommate_satisfaction BETWEEN 1 AND 5 AND " +
			"environment_satisfaction BETWEEN 1 AND 5 AND " +
			"overall_satisfaction BETWEEN 1 AND 5);",

		// 常用查询索引：按宿舍拉在住分配
		"CREATE INDEX IF NOT EXISTS idx_allocations_dorm_status ON allocations (dormitory_id, status);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
