package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"dorm-allocation-backend/internal/model"
)

// DormResponse represents the API response for a single dormitory.
type DormResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Building     string `json:"building"`
	RoomNumber   int    `json:"roomNumber"`
	BedCount     int64  `json:"bedCount"`
	OccupiedBeds int64  `json:"occupiedBeds"`
	Status       string `json:"status"`
}

// GetDorms handles the GET /api/dorms request.
func GetDorms(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1) 一次取所有宿舍
		var dorms []model.Dormitory
		if err := db.Find(&dorms).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dormitories"})
			return
		}

		// 2) 一次聚合出每个宿舍的床位统计
		type AggRow struct {
			DormitoryID  string
			TotalBeds    int64
			OccupiedBeds int64
		}
		var aggs []AggRow
		if err := db.
			Model(&model.Bed{}).
			Select("dormitory_id as dormitory_id, COUNT(*) as total_beds, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as occupied_beds", model.BedStatusOccupied).
			Group("dormitory_id").
			Scan(&aggs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate beds"})
			return
		}

		// 3) 合并
		aggMap := make(map[string]AggRow, len(aggs))
		for _, a := range aggs {
			aggMap[a.DormitoryID] = a
		}

		responses := make([]DormResponse, 0, len(dorms))
		for _, d := range dorms {
			a := aggMap[d.ID] // 不存在时使用零值
			responses = append(responses, DormResponse{
				ID:           d.ID,
				Name:         d.Name,
				Building:     d.Building,
				RoomNumber:   d.RoomNumber,
				BedCount:     a.TotalBeds,
				OccupiedBeds: a.OccupiedBeds,
				Status:       d.Status,
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}
