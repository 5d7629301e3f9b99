package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPath(t *testing.T) {
	e := EventsFor(sampleTasks())[0]
	assert.Equal(t, "/cal/P1-ADC-designer.ics", ObjectPath("/cal/", e))
}

func TestCalDAVPublisher_CountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewCalDAVPublisher(srv.URL, "user", "secret", nil).WithCalendarPath("/cal/")
	result, err := p.Publish(context.Background(), EventsFor(sampleTasks()))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Zero(t, result.Created)
}

func TestCalDAVPublisher_NoCalendar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewCalDAVPublisher(srv.URL, "user", "secret", nil).Publish(context.Background(), nil)
	assert.Error(t, err)
}
