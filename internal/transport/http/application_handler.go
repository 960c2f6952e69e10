package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gigboard/gigboard-api/internal/service"
	"github.com/gigboard/gigboard-api/internal/util"
)

type acceptRequest struct {
	SlotIDs []string `json:"slot_ids"`
}

// RegisterApplicationRoutes wires the application lifecycle endpoints.
// Workers submit and withdraw; the posting's employer accepts and rejects.
func RegisterApplicationRoutes(e *echo.Echo, apps *service.ApplicationService, auth *service.AuthService) {
	authed := e.Group("", RequireAuth(auth))
	authed.GET("/applications/:id", handleGetApplication(apps))
	authed.GET("/applications", handleListMyApplications(apps))
	authed.POST("/applications/:id/withdraw", handleWithdraw(apps))

	worker := e.Group("", RequireAuth(auth), RequireWorker())
	worker.POST("/jobs/:id/applications", handleSubmitApplication(apps))

	employer := e.Group("", RequireAuth(auth), RequireEmployer())
	employer.POST("/applications/:id/accept", handleAccept(apps))
	employer.POST("/applications/:id/reject", handleReject(apps))
}

// handleSubmitApplication accepts either a JSON body or multipart form data.
// Multipart carries an optional resume file alongside the slot selection.
func handleSubmitApplication(apps *service.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		jobID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid job id"))
		}

		input, parseErr := parseSubmitInput(c)
		if parseErr != nil {
			return c.JSON(http.StatusBadRequest, util.Error(parseErr.Error()))
		}
		if input.Resume != nil {
			defer input.closeResume()
		}

		app, err := apps.Submit(c.Request().Context(), user, jobID, input.ApplicationSubmitInput)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusCreated, util.Data(app))
	}
}

type submitInput struct {
	service.ApplicationSubmitInput
	closeResume func()
}

func parseSubmitInput(c echo.Context) (*submitInput, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return parseMultipartSubmit(c)
	}

	var req struct {
		SlotIDs     []string `json:"slot_ids"`
		CoverLetter *string  `json:"cover_letter"`
	}
	if err := c.Bind(&req); err != nil {
		return nil, errors.New("invalid request body")
	}
	slotIDs, err := parseUUIDs(req.SlotIDs)
	if err != nil {
		return nil, err
	}
	return &submitInput{
		ApplicationSubmitInput: service.ApplicationSubmitInput{
			SlotIDs:     slotIDs,
			CoverLetter: req.CoverLetter,
		},
		closeResume: func() {},
	}, nil
}

func parseMultipartSubmit(c echo.Context) (*submitInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.New("invalid multipart form")
	}

	slotIDs, err := parseUUIDs(form.Value["slot_ids"])
	if err != nil {
		return nil, err
	}
	var coverLetter *string
	if values := form.Value["cover_letter"]; len(values) > 0 {
		coverLetter = &values[0]
	}

	input := &submitInput{
		ApplicationSubmitInput: service.ApplicationSubmitInput{
			SlotIDs:     slotIDs,
			CoverLetter: coverLetter,
		},
		closeResume: func() {},
	}

	if files := form.File["resume"]; len(files) > 0 {
		header := files[0]
		file, err := header.Open()
		if err != nil {
			return nil, errors.New("unable to read resume file")
		}
		input.Resume = &service.ResumeUpload{
			Reader:      file,
			Size:        header.Size,
			FileName:    header.Filename,
			ContentType: header.Header.Get(echo.HeaderContentType),
		}
		input.closeResume = func() { file.Close() }
	}
	return input, nil
}

func handleAccept(apps *service.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid application id"))
		}
		var req acceptRequest
		if err := c.Bind(&req); err != nil && c.Request().ContentLength > 0 {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		slotIDs, err := parseUUIDs(req.SlotIDs)
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
		}

		app, job, err := apps.Accept(c.Request().Context(), user, id, slotIDs)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(map[string]any{
			"application": app,
			"job":         job,
		}))
	}
}

func handleReject(apps *service.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid application id"))
		}
		app, err := apps.Reject(c.Request().Context(), user, id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(app))
	}
}

func handleWithdraw(apps *service.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid application id"))
		}
		app, err := apps.Withdraw(c.Request().Context(), user, id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(app))
	}
}

func handleGetApplication(apps *service.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid application id"))
		}
		app, err := apps.GetApplication(c.Request().Context(), user, id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(app))
	}
}

func handleListMyApplications(apps *service.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := CurrentUser(c)
		limit, offset := paginationParams(c)
		list, err := apps.ListMyApplications(c.Request().Context(), user, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(list))
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, errors.New("invalid slot id " + value)
		}
		out = append(out, id)
	}
	return out, nil
}
