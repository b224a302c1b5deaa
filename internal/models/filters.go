package models

// WalkFilter filters and paginates walk history queries
type WalkFilter struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`

	OnlyValid       bool `form:"onlyValid"`
	OnlyInterrupted bool `form:"onlyInterrupted"`
}
