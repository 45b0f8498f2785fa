package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnpart/internal/analyser/fixtures"
	"jobnpart/internal/analyser/models"
	"jobnpart/internal/workshop/diagram"
	workshop "jobnpart/internal/workshop/models"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	store, err := fixtures.Default()
	require.NoError(t, err)

	app := fiber.New()
	Register(app, NewAnalyseHandler(store, "http://analyser.local/"))
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

const job = `{"jobNumber":"J-1","engine":"1.5 TSI","make":"Skoda","model":"Octavia","vin":"TMB1","year":"2019",
  "workItems":[{"description":"Replace front brake pads","category":"Brakes"},{"description":"Oil change","category":"Fluids"}]}`

func TestAnalyseJob(t *testing.T) {
	app := newApp(t)

	resp, raw := post(t, app, "/analyse-job", job)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var diagrams []workshop.PartsData
	require.NoError(t, json.Unmarshal(raw, &diagrams))
	require.Len(t, diagrams, 2)
	assert.Equal(t, "http://analyser.local/diagrams/0.png", diagrams[0].Img)
	assert.Equal(t, "SKODA", diagrams[0].Brand)

	part, ok := diagrams[0].FindPart("BP-1234-VW")
	require.True(t, ok)
	assert.Equal(t, "1", part.PositionNumber)
}

func TestAnalyseJobRejectsIncompleteBody(t *testing.T) {
	app := newApp(t)

	resp, raw := post(t, app, "/analyse-job", `{"make":"Skoda"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Missing []string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, []string{"jobNumber", "vin", "workItems"}, body.Missing)

	resp, _ = post(t, app, "/analyse-job", `not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRepairTimeStubs(t *testing.T) {
	app := newApp(t)

	for _, path := range []string{"/haynes-pro", "/hp-job-info"} {
		t.Run(path, func(t *testing.T) {
			resp, raw := post(t, app, path, job)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var results []models.RepairTimeResult
			require.NoError(t, json.Unmarshal(raw, &results))
			require.Len(t, results, 2)
			assert.Equal(t, "Oil change", results[1].WorkItemDescription)
			assert.Nil(t, results[0].IdentifiedGroup)
			assert.NotNil(t, results[0].RepairTimeInfos)
			assert.Len(t, results[0].Errors, 1)
		})
	}

	resp, raw := post(t, app, "/haynes-pro", `{"workItems":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(raw), "vin")
}

func TestDiagramImage(t *testing.T) {
	app := newApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/diagrams/0.png", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	size, err := diagram.DecodeSize(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, diagram.Size{Width: 740, Height: 310}, size)

	missing, err := app.Test(httptest.NewRequest(http.MethodGet, "/diagrams/9.png", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
