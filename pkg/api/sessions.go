package api

import (
	"context"
	"net/http"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/session"
	"github.com/DrSkyle/kinship/pkg/tree"
	"github.com/gin-gonic/gin"
)

func sessionResponse(sess *session.Session) SessionResponse {
	snap := sess.Snapshot()
	root := snap.Tree
	lines := tree.Flatten(root)
	text := make([]string, 0, len(lines))
	for _, l := range lines {
		text = append(text, l.Text())
	}
	return SessionResponse{
		ID:         sess.ID,
		RootID:     int64(snap.Root),
		Generation: snap.Generation,
		Nodes:      root.Len(),
		Lines:      text,
		Tree:       tree.Snapshot(root),
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sess := s.deps.NewSession()
	if _, err := sess.Start(c.Request.Context(), person.ID(req.RootID)); err != nil {
		s.writeError(c, err)
		return
	}
	s.addSession(sess)
	c.JSON(http.StatusCreated, sessionResponse(sess))
}

func (s *Server) lookupSession(c *gin.Context) (*session.Session, bool) {
	sess, ok := s.session(c.Param("sid"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found", Code: "SESSION_NOT_FOUND"})
	}
	return sess, ok
}

func (s *Server) handleGetTree(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	if _, err := sess.Refresh(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if !s.removeSession(c.Param("sid")) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found", Code: "SESSION_NOT_FOUND"})
		return
	}
	c.Status(http.StatusNoContent)
}

// mutationFunc applies one session operation to a target.
type mutationFunc func(ctx context.Context, sess *session.Session, id person.ID, category string) (*tree.Node, error)

func withCategory(op func(*session.Session, context.Context, person.ID, tree.Category) (*tree.Node, error)) mutationFunc {
	return func(ctx context.Context, sess *session.Session, id person.ID, category string) (*tree.Node, error) {
		c, err := tree.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		return op(sess, ctx, id, c)
	}
}

func withoutCategory(op func(*session.Session, context.Context, person.ID) (*tree.Node, error)) mutationFunc {
	return func(ctx context.Context, sess *session.Session, id person.ID, _ string) (*tree.Node, error) {
		return op(sess, ctx, id)
	}
}

var (
	expand      = withCategory((*session.Session).ExpandCategory)
	collapse    = withCategory((*session.Session).CollapseCategory)
	toggle      = withCategory((*session.Session).ToggleCategory)
	toggleAll   = withoutCategory((*session.Session).ToggleAll)
	collapseAll = withoutCategory((*session.Session).CollapseAll)
	expandAll   = withoutCategory((*session.Session).ExpandAll)
	reRoot      = withoutCategory((*session.Session).ReRoot)
)

func (s *Server) mutation(op mutationFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.lookupSession(c)
		if !ok {
			return
		}
		var req TargetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if _, err := op(c.Request.Context(), sess, person.ID(req.PersonID), req.Category); err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessionResponse(sess))
	}
}
