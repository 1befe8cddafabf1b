// Package api serves parsed worlds over HTTP for inspection tooling.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/zenworld/internal/vobs"
	"github.com/samcharles93/zenworld/internal/world"
	"github.com/samcharles93/zenworld/pkg/zen"
)

// maxArchiveSize bounds uploaded archives. Shipped worlds are well under
// this; anything larger is rejected before parsing.
const maxArchiveSize = 512 << 20

type Server struct {
	store  *WorldStore
	parser *world.Parser
}

func NewServer(store *WorldStore, parser *world.Parser) *Server {
	if store == nil {
		store = NewWorldStore()
	}
	return &Server{store: store, parser: parser}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/worlds", s.handleCreateWorld)
	e.GET("/v1/worlds", s.handleListWorlds)
	e.GET("/v1/worlds/:id", s.handleGetWorld)
	e.GET("/v1/worlds/:id/vobs", s.handleGetVobs)
	e.GET("/v1/worlds/:id/waynet", s.handleGetWayNet)
	e.DELETE("/v1/worlds/:id", s.handleDeleteWorld)
}

func (s *Server) handleCreateWorld(c *echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		name = "unnamed.zen"
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxArchiveSize+1))
	if err != nil {
		return writeJSON(c, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if len(data) > maxArchiveSize {
		return writeJSON(c, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "archive too large"})
	}

	w, err := s.parser.Parse(zen.NewBuffer(data))
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, world.ErrTruncated) {
			code = http.StatusUnprocessableEntity
		}
		return writeJSON(c, code, ErrorResponse{Error: err.Error()})
	}

	id := s.store.Put(name, w)
	return writeJSON(c, http.StatusCreated, summarize(id, name, w))
}

func (s *Server) handleListWorlds(c *echo.Context) error {
	resp := ListWorldsResponse{Worlds: []WorldSummary{}}
	for _, id := range s.store.IDs() {
		name, w, ok := s.store.Get(id)
		if !ok {
			continue
		}
		resp.Worlds = append(resp.Worlds, summarize(id, name, w))
	}
	return writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleGetWorld(c *echo.Context) error {
	id := c.Param("id")
	name, w, ok := s.store.Get(id)
	if !ok {
		return writeJSON(c, http.StatusNotFound, ErrorResponse{Error: "unknown world " + id})
	}
	return writeJSON(c, http.StatusOK, summarize(id, name, w))
}

func (s *Server) handleGetVobs(c *echo.Context) error {
	id := c.Param("id")
	_, w, ok := s.store.Get(id)
	if !ok {
		return writeJSON(c, http.StatusNotFound, ErrorResponse{Error: "unknown world " + id})
	}
	out := make([]VobSummary, 0, len(w.Vobs))
	for _, v := range w.Vobs {
		out = flattenVob(out, v, 0)
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleGetWayNet(c *echo.Context) error {
	id := c.Param("id")
	_, w, ok := s.store.Get(id)
	if !ok {
		return writeJSON(c, http.StatusNotFound, ErrorResponse{Error: "unknown world " + id})
	}
	if w.WayNet == nil {
		return writeJSON(c, http.StatusNotFound, ErrorResponse{Error: "world has no way-net"})
	}

	resp := WayNetSummary{
		Version:   w.WayNet.Version,
		Waypoints: make([]WaypointSummary, 0, len(w.WayNet.Waypoints)),
		Edges:     make([][2]int, 0, len(w.WayNet.Edges)),
	}
	for _, wp := range w.WayNet.Waypoints {
		resp.Waypoints = append(resp.Waypoints, WaypointSummary{
			Name:       wp.Name,
			Position:   [3]float32{wp.Position.X, wp.Position.Y, wp.Position.Z},
			UnderWater: wp.UnderWater,
		})
	}
	for _, e := range w.WayNet.Edges {
		resp.Edges = append(resp.Edges, [2]int{e.A, e.B})
	}
	return writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleDeleteWorld(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeJSON(c, http.StatusNotFound, ErrorResponse{Error: "unknown world " + id})
	}
	return c.NoContent(http.StatusNoContent)
}

func summarize(id, name string, w *world.World) WorldSummary {
	out := WorldSummary{
		ID:       id,
		Name:     name,
		Revision: w.Revision.String(),
		Vobs:     countVobs(w.Vobs),
	}
	if w.BspTree != nil {
		out.BspNodes = len(w.BspTree.Nodes)
		out.LeafPolygons = len(w.BspTree.LeafPolygons)
	}
	if w.Mesh != nil {
		out.Vertices = len(w.Mesh.Vertices)
		out.Polygons = len(w.Mesh.Polygons)
	}
	if w.WayNet != nil {
		out.Waypoints = len(w.WayNet.Waypoints)
		out.WayEdges = len(w.WayNet.Edges)
	}
	return out
}

func countVobs(vs []*vobs.Vob) int {
	n := 0
	for _, v := range vs {
		n += 1 + countVobs(v.Children)
	}
	return n
}

func flattenVob(out []VobSummary, v *vobs.Vob, depth int) []VobSummary {
	out = append(out, VobSummary{
		Name:     v.Name,
		Class:    v.ClassName,
		Position: [3]float32{v.Position.X, v.Position.Y, v.Position.Z},
		Children: len(v.Children),
		Depth:    depth,
	})
	for _, child := range v.Children {
		out = flattenVob(out, child, depth+1)
	}
	return out
}

func writeJSON(c *echo.Context, code int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(code, "application/json; charset=UTF-8", b)
}
