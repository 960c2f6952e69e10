package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/service"
	"github.com/gigboard/gigboard-api/internal/util"
)

type slotRequest struct {
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	PeopleNeeded int    `json:"people_needed"`
}

type jobCreateRequest struct {
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Location    *string       `json:"location"`
	HourlyRate  *float64      `json:"hourly_rate"`
	Slots       []slotRequest `json:"slots"`
}

// RegisterJobRoutes wires the posting endpoints. Browsing is public; every
// mutation sits behind the employer guard.
func RegisterJobRoutes(e *echo.Echo, jobs *service.JobService, apps *service.ApplicationService, auth *service.AuthService) {
	e.GET("/jobs", handleListJobs(jobs))
	e.GET("/jobs/:id", handleGetJob(jobs))

	g := e.Group("/employer", RequireAuth(auth), RequireEmployer())
	g.GET("/jobs", handleListEmployerJobs(jobs))
	g.POST("/jobs", handleCreateJob(jobs))
	g.POST("/jobs/:id/publish", handleJobTransition(jobs.PublishJob))
	g.POST("/jobs/:id/close", handleJobTransition(jobs.CloseJob))
	g.POST("/jobs/:id/reopen", handleJobTransition(jobs.ReopenJob))
	g.POST("/jobs/:id/cancel", handleJobTransition(jobs.CancelJob))
	g.DELETE("/jobs/:id", handleDeleteJob(jobs))
	g.GET("/jobs/:id/applications", handleListJobApplications(apps))
}

func handleListJobs(jobs *service.JobService) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, offset := paginationParams(c)
		list, err := jobs.ListActiveJobs(c.Request().Context(), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(list))
	}
}

func handleGetJob(jobs *service.JobService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid job id"))
		}
		job, err := jobs.GetJob(c.Request().Context(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(job))
	}
}

func handleListEmployerJobs(jobs *service.JobService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		limit, offset := paginationParams(c)
		list, err := jobs.ListEmployerJobs(c.Request().Context(), user, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(list))
	}
}

func handleCreateJob(jobs *service.JobService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		var req jobCreateRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}

		input := service.JobCreateInput{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			HourlyRate:  req.HourlyRate,
		}
		fields := make(map[string]string)
		for i, s := range req.Slots {
			slot, errField, msg := parseSlotRequest(s)
			if errField != "" {
				fields["slots["+strconv.Itoa(i)+"]."+errField] = msg
				continue
			}
			input.Slots = append(input.Slots, slot)
		}
		if len(fields) > 0 {
			return c.JSON(http.StatusBadRequest, util.FieldErrors("validation failed", fields))
		}

		job, err := jobs.CreateJob(c.Request().Context(), user, input)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusCreated, util.Data(job))
	}
}

func parseSlotRequest(s slotRequest) (service.SlotInput, string, string) {
	date, err := time.Parse("2006-01-02", s.Date)
	if err != nil {
		return service.SlotInput{}, "date", "date must be formatted YYYY-MM-DD"
	}
	start, err := time.Parse(time.RFC3339, s.StartTime)
	if err != nil {
		return service.SlotInput{}, "start_time", "start_time must be RFC3339"
	}
	end, err := time.Parse(time.RFC3339, s.EndTime)
	if err != nil {
		return service.SlotInput{}, "end_time", "end_time must be RFC3339"
	}
	return service.SlotInput{
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		PeopleNeeded: s.PeopleNeeded,
	}, "", ""
}

func handleJobTransition(transition func(ctx context.Context, employer *domain.User, id uuid.UUID) (*domain.JobPosting, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid job id"))
		}
		job, err := transition(c.Request().Context(), user, id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(job))
	}
}

func handleDeleteJob(jobs *service.JobService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid job id"))
		}
		if err := jobs.DeleteJob(c.Request().Context(), user, id); err != nil {
			return serviceError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func handleListJobApplications(apps *service.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid job id"))
		}
		limit, offset := paginationParams(c)
		list, err := apps.ListJobApplications(c.Request().Context(), user, id, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(list))
	}
}

func paginationParams(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}
