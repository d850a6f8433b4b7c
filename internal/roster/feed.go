package roster

import "dorm-allocation-backend/internal/store"

// FeedResponse models the top-level structure of the facilities feed.
type FeedResponse struct {
	Code int `json:"code"`
	Data struct {
		Page     int                  `json:"page"`
		PageSize int                  `json:"pageSize"`
		Total    int                  `json:"total"`
		Items    []store.FacilityItem `json:"items"`
	} `json:"data"`
}
