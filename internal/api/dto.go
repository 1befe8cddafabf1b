package api

// WorldSummary is the outward shape of a stored world.
type WorldSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Revision string `json:"revision"`

	BspNodes     int `json:"bsp_nodes"`
	LeafPolygons int `json:"leaf_polygons"`
	Vertices     int `json:"vertices"`
	Polygons     int `json:"polygons"`
	Vobs         int `json:"vobs"`
	Waypoints    int `json:"waypoints"`
	WayEdges     int `json:"way_edges"`
}

// VobSummary is one flattened scene-graph node.
type VobSummary struct {
	Name     string     `json:"name"`
	Class    string     `json:"class"`
	Position [3]float32 `json:"position"`
	Children int        `json:"children"`
	Depth    int        `json:"depth"`
}

// WaypointSummary is one way-net node.
type WaypointSummary struct {
	Name       string     `json:"name"`
	Position   [3]float32 `json:"position"`
	UnderWater bool       `json:"under_water"`
}

// WayNetSummary is the outward shape of a world's navigation graph.
type WayNetSummary struct {
	Version   int32             `json:"version"`
	Waypoints []WaypointSummary `json:"waypoints"`
	Edges     [][2]int          `json:"edges"`
}

// ErrorResponse is the error envelope returned by all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListWorldsResponse wraps the world listing.
type ListWorldsResponse struct {
	Worlds []WorldSummary `json:"worlds"`
}
