package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/search"
	"github.com/DrSkyle/kinship/pkg/session"
	"github.com/DrSkyle/kinship/pkg/tree"
	"github.com/gin-gonic/gin"
)

// writeError maps domain errors onto status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, person.ErrNotFound):
		status, code = http.StatusNotFound, "PERSON_NOT_FOUND"
	case errors.Is(err, session.ErrInvalidExpansionTarget):
		status, code = http.StatusConflict, "INVALID_TARGET"
	case errors.Is(err, session.ErrNoRoot):
		status, code = http.StatusConflict, "NO_ROOT"
	case errors.Is(err, person.ErrInvalidPerson), errors.Is(err, tree.ErrUnknownCategory):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, person.ErrRepositoryUnavailable):
		status, code = http.StatusServiceUnavailable, "REPOSITORY_UNAVAILABLE"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "TIMEOUT"
	}
	if status >= 500 {
		s.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "INVALID_REQUEST"})
}

func pathID(c *gin.Context) (person.ID, bool) {
	id, err := person.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err.Error())
		return 0, false
	}
	return id, true
}

func (s *Server) handleTest(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "API is working!"})
}

func (s *Server) handleListPeople(c *gin.Context) {
	people, err := s.deps.Store.ListAllPeople(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, search.Match(people, "", search.FieldBoth))
}

func (s *Server) handleGetPerson(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.deps.Store.GetPerson(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleNetwork(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	set, err := s.deps.Cache.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// handleSearch serves GET /api/search?term=&field=&filter=. An empty term
// returns everyone; filter is an optional CEL expression.
func (s *Server) handleSearch(c *gin.Context) {
	field, err := search.ParseField(c.Query("field"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var filter *search.Filter
	if expr := c.Query("filter"); expr != "" {
		if filter, err = search.CompileFilter(expr); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	people, err := s.deps.Store.ListAllPeople(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	matches := search.Match(people, c.Query("term"), field)
	if filter != nil {
		matches = filter.Apply(matches)
	}
	c.JSON(http.StatusOK, matches)
}

func (s *Server) handleCreatePerson(c *gin.Context) {
	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := req.Person()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	created, err := s.deps.Editor.Create(c.Request.Context(), p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.deps.Cache.Clear()
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdatePerson(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := req.Person()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	updated, err := s.deps.Editor.Update(c.Request.Context(), id, p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.deps.Cache.Clear()
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeletePerson(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := s.deps.Editor.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	s.deps.Cache.Clear()
	c.JSON(http.StatusOK, MessageResponse{Message: "Person deleted successfully"})
}
