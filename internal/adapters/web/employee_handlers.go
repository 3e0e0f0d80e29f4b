package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/codex-employee-import/internal/core/employee"
)

type employeeJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toEmployeeJSON(e *employee.Employee) employeeJSON {
	return employeeJSON{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (s *Server) listEmployees(c *gin.Context) {
	pageSize := 0
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(c, employee.ErrInvalidPageSize)
			return
		}
		pageSize = n
	}

	res, err := s.employees.ListEmployees(c.Request.Context(), employee.ListEmployeesInput{
		PageSize:  pageSize,
		PageToken: c.Query("page_token"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]employeeJSON, 0, len(res.Employees))
	for _, e := range res.Employees {
		out = append(out, toEmployeeJSON(e))
	}
	c.JSON(http.StatusOK, gin.H{"employees": out, "next_page_token": res.NextPageToken})
}

func (s *Server) getEmployee(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, employee.ErrInvalidID)
		return
	}
	found, err := s.employees.GetEmployee(c.Request.Context(), employee.GetEmployeeInput{ID: id})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toEmployeeJSON(found))
}

func (s *Server) deleteEmployee(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, employee.ErrInvalidID)
		return
	}
	if err := s.employees.DeleteEmployee(c.Request.Context(), employee.DeleteEmployeeInput{ID: id}); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
