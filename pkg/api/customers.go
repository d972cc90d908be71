package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"deskdir/models"
	"deskdir/pkg/customers"
	"deskdir/pkg/liveness"
)

// customerView is a stored customer plus its in-memory liveness.
type customerView struct {
	models.Customer
	IsOnline bool       `json:"isOnline"`
	LastPing *time.Time `json:"lastPing,omitempty"`
}

type customerRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AnydeskID string  `json:"anydeskId"`
	Category  string  `json:"category"`
	Notes     *string `json:"notes"`
}

func (s *Server) view(c models.Customer) customerView {
	v := customerView{Customer: c}
	if st, ok := s.tracker.Status(c.ID); ok {
		v.IsOnline = st.Online
		lp := st.LastPing
		v.LastPing = &lp
	}
	return v
}

func (s *Server) listCustomersHandler(c *gin.Context) {
	list, err := s.repo.List(c.Request.Context(), customers.Filter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	})
	if err != nil {
		s.writeError(c, err, "Failed to fetch customers")
		return
	}
	out := make([]customerView, 0, len(list))
	for _, cu := range list {
		out = append(out, s.view(cu))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCustomerHandler(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cu, err := s.repo.Create(c.Request.Context(), customers.Input{
		Name:      req.Name,
		AnydeskID: req.AnydeskID,
		Category:  req.Category,
		Notes:     req.Notes,
	})
	if err != nil {
		s.writeError(c, err, "Failed to create customer")
		return
	}
	c.JSON(http.StatusCreated, s.view(cu))
}

func (s *Server) updateCustomerHandler(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	if id == "" {
		id = strings.TrimSpace(req.ID)
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer ID is required"})
		return
	}
	cu, err := s.repo.Update(c.Request.Context(), id, customers.Patch{
		Name:      req.Name,
		AnydeskID: req.AnydeskID,
		Category:  req.Category,
		Notes:     req.Notes,
	})
	if err != nil {
		s.writeError(c, err, "Failed to update customer")
		return
	}
	c.JSON(http.StatusOK, s.view(cu))
}

func (s *Server) deleteCustomerHandler(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		id = strings.TrimSpace(c.Query("id"))
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer ID is required"})
		return
	}
	if err := s.repo.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err, "Failed to delete customer")
		return
	}
	s.tracker.Forget(id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) categoriesHandler(c *gin.Context) {
	cats, err := s.repo.Categories(c.Request.Context())
	if err != nil {
		s.writeError(c, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (s *Server) statsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := s.repo.List(ctx, customers.Filter{})
	if err != nil {
		s.writeError(c, err, "Failed to fetch stats")
		return
	}
	cats, err := s.repo.Categories(ctx)
	if err != nil {
		s.writeError(c, err, "Failed to fetch stats")
		return
	}
	ids := make([]string, len(list))
	for i, cu := range list {
		ids[i] = cu.ID
	}
	c.JSON(http.StatusOK, gin.H{
		"totalCustomers":  len(list),
		"totalCategories": len(cats),
		"onlineCount":     s.tracker.OnlineCount(ids),
	})
}

func (s *Server) pingCustomerHandler(c *gin.Context) {
	ctx := c.Request.Context()
	cu, err := s.repo.Get(ctx, c.Param("id"))
	if err != nil {
		s.writeError(c, err, "Failed to ping customer")
		return
	}
	st, err := s.tracker.Ping(ctx, liveness.Target{CustomerID: cu.ID, AnydeskID: cu.AnydeskID})
	if err != nil {
		s.writeError(c, err, "Failed to ping customer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": cu.ID, "isOnline": st.Online, "lastPing": st.LastPing})
}

func (s *Server) pingAllHandler(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := s.repo.List(ctx, customers.Filter{})
	if err != nil {
		s.writeError(c, err, "Failed to ping customers")
		return
	}
	targets := make([]liveness.Target, len(list))
	for i, cu := range list {
		targets[i] = liveness.Target{CustomerID: cu.ID, AnydeskID: cu.AnydeskID}
	}
	statuses, err := s.tracker.PingAll(ctx, targets, s.pingInterval)
	if err != nil {
		s.writeError(c, err, "Failed to ping customers")
		return
	}
	out := make([]gin.H, 0, len(list))
	online := 0
	for _, t := range targets {
		st := statuses[t.CustomerID]
		if st.Online {
			online++
		}
		out = append(out, gin.H{"id": t.CustomerID, "isOnline": st.Online, "lastPing": st.LastPing})
	}
	c.JSON(http.StatusOK, gin.H{"results": out, "onlineCount": online})
}

// writeError maps domain errors to status codes. Unexpected errors are
// logged and answered with fallback.
func (s *Server) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, customers.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": customers.MsgRequiredFields})
	case errors.Is(err, customers.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": customers.ErrNotFound.Error()})
	case errors.Is(err, customers.ErrDuplicateIdentifier):
		c.JSON(http.StatusConflict, gin.H{"error": customers.ErrDuplicateIdentifier.Error()})
	default:
		_ = c.Error(err)
		s.log.Errorw(fallback, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
