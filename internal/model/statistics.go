package model

// WarehouseProgress is the counting progress of one warehouse
type WarehouseProgress struct {
	Warehouse string `json:"warehouse"`
	Total     int64  `json:"total"`
	Counted   int64  `json:"counted"`
	Pending   int64  `json:"pending"`
}

// CountProgress aggregates counting progress across warehouses
type CountProgress struct {
	Total      int64               `json:"total"`
	Counted    int64               `json:"counted"`
	Pending    int64               `json:"pending"`
	Percent    float64             `json:"percent"`
	Warehouses []WarehouseProgress `json:"warehouses"`
}
