package domain

type RouteStop struct {
	ID        string  `json:"id"`
	RouteID   string  `json:"route_id"`
	StudentID string  `json:"student_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Sequence  int     `json:"sequence"`
}

type School struct {
	ID      string  `json:"id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RadiusM float64 `json:"radius_m"`
}
