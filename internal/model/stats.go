// internal/model/stats.go
package model

// OperationStats summarizes an entity's operations for the analytics view.
// Flag counts cover non-archived operations only.
type OperationStats struct {
	EntityID int          `json:"entity_id"`
	Total    int          `json:"total"`
	Archived int          `json:"archived"`
	ByKind   map[Kind]int `json:"by_kind"`
	Flags    map[Flag]int `json:"flags"`
}

func NewOperationStats(entityID int) *OperationStats {
	s := &OperationStats{
		EntityID: entityID,
		ByKind:   map[Kind]int{KindEmail: 0, KindSlider: 0, KindSocial: 0},
		Flags:    map[Flag]int{},
	}
	for _, f := range Flags {
		s.Flags[f] = 0
	}
	return s
}
