package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/catalog"
	sitinhttp "github.com/fyrsmithlabs/sitin/internal/http"
	"github.com/fyrsmithlabs/sitin/internal/indexer"
	"github.com/fyrsmithlabs/sitin/internal/view"
)

func TestPrintAnswer(t *testing.T) {
	answer := &assistant.Answer{
		QueryID: "q-1",
		Text:    "\n1. **CSE 110: Software Engineering**\n",
		Cards:   []assistant.Card{{Code: "CSE 110", Title: "Software Engineering"}},
	}

	var text bytes.Buffer
	require.NoError(t, printAnswer(&text, answer, false))
	assert.Equal(t, "1. **CSE 110: Software Engineering**\n", text.String())

	var raw bytes.Buffer
	require.NoError(t, printAnswer(&raw, answer, true))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw.Bytes(), &decoded))
	assert.Equal(t, "q-1", decoded["queryId"])
	assert.Len(t, decoded["cards"], 1)
}

func TestAskCommand_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "evening classes in CENTR", req["query"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sitinhttp.ChatResponse{
			Response: "1. **CSE 110: Software Engineering**",
			Cards:    []assistant.Card{},
			QueryID:  "q-9",
		})
	}))
	defer srv.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"ask", "--server", srv.URL, "evening", "classes", "in", "CENTR"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "CSE 110: Software Engineering")
}

func TestLecturesState(t *testing.T) {
	saved := lecturesFlags
	t.Cleanup(func() { lecturesFlags = saved })

	lecturesFlags.tab = "Upcoming"
	lecturesFlags.building = "CENTR"
	lecturesFlags.pageSize = 5
	lecturesFlags.page = 2
	lecturesFlags.desc = true

	s, err := lecturesState()
	require.NoError(t, err)
	assert.Equal(t, view.TabUpcoming, s.Tab)
	assert.Equal(t, "CENTR", s.Filters.Building)
	assert.Equal(t, 5, s.PageSize)
	assert.Equal(t, 2, s.Page)
	assert.True(t, s.SortDesc)

	lecturesFlags.tab = "about"
	_, err = lecturesState()
	assert.ErrorContains(t, err, `unknown tab "about"`)

	lecturesFlags.tab = "live"
	lecturesFlags.pageSize = 0
	_, err = lecturesState()
	assert.ErrorContains(t, err, "page-size must be positive")
}

func TestPrintLectures(t *testing.T) {
	var empty bytes.Buffer
	require.NoError(t, printLectures(&empty, view.TabLive, view.Page{TotalPages: 1}))
	assert.Equal(t, "No lectures match on the Live Lectures tab.\n", empty.String())

	page := view.Page{
		Rows: []view.Row{{
			ClassItem: catalog.ClassItem{
				CourseCode: "CSE 110", CourseName: "Software Engineering", Professor: "Staff",
				Building: "CENTR", Room: "115", Days: "MWF",
			},
			TimeRange: "6:00 PM - 7:20 PM",
			Remaining: "50 min",
		}},
		TotalPages: 1,
		Total:      1,
	}
	var out bytes.Buffer
	require.NoError(t, printLectures(&out, view.TabLive, page))
	assert.Contains(t, out.String(), "Remaining")
	assert.Contains(t, out.String(), "CENTR 115")
	assert.Contains(t, out.String(), "50 min")
	assert.Contains(t, out.String(), "Page 1 of 1 (1 lectures)")
}

func TestRunHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sitinhttp.HealthResponse{
			Status:   "ok",
			Services: map[string]string{"catalog": "ok", "assistant": "disabled"},
			Records:  42,
		})
	}))
	defer srv.Close()

	defer func(saved string) { serverURL = saved }(serverURL)
	serverURL = srv.URL

	var out bytes.Buffer
	healthCmd.SetOut(&out)
	healthCmd.SetContext(context.Background())
	require.NoError(t, runHealth(healthCmd, nil))

	assert.Contains(t, out.String(), "Server Status: ok")
	assert.Contains(t, out.String(), "Lectures: 42")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("assistant")), bytes.Index(out.Bytes(), []byte("catalog")))
}

func TestRunHealth_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	defer func(saved string) { serverURL = saved }(serverURL)
	serverURL = srv.URL

	healthCmd.SetContext(context.Background())
	err := runHealth(healthCmd, nil)
	assert.ErrorContains(t, err, "server returned status 503")
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer
	printStats(&out, indexer.Stats{Documents: 3, Upserted: 2, Unchanged: 1, Skipped: 1}, true)
	assert.Contains(t, out.String(), "Would upsert: 2")
	assert.Contains(t, out.String(), "Skipped (unparseable times): 1")
}
