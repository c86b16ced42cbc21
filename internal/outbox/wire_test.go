package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/gymcheckins/internal/events"
)

func TestEncodeWireFormat(t *testing.T) {
	payload := []byte(`{"check_in_id":"abc"}`)

	frame := encodeWireFormat(258, payload)

	require.Len(t, frame, 5+len(payload))
	require.Equal(t, byte(0), frame[0])
	require.Equal(t, uint32(258), binary.BigEndian.Uint32(frame[1:5]))
	require.Equal(t, payload, frame[5:])
}

func TestSchemaCatalogCoversPublishedEvents(t *testing.T) {
	for _, eventType := range []string{events.TypeGymCreated, events.TypeCheckInCreated, events.TypeCheckInValidated} {
		entry, ok := schemaCatalog[eventType]
		require.Truef(t, ok, "missing schema for %s", eventType)
		require.True(t, json.Valid([]byte(entry.Schema)), eventType)
	}
}

func TestBackoffDelayDoublesUpToOneHour(t *testing.T) {
	manager := NewDLQManager(nil, 0, 0, nil)

	require.Equal(t, defaultDLQMaxRetries, manager.maxRetries)
	require.Equal(t, time.Minute, manager.backoffDelay(1))
	require.Equal(t, 2*time.Minute, manager.backoffDelay(2))
	require.Equal(t, 4*time.Minute, manager.backoffDelay(3))
	require.Equal(t, time.Hour, manager.backoffDelay(7))
	require.Equal(t, time.Hour, manager.backoffDelay(64))
}

func TestSchemaRegistryClientUsesLatestVersion(t *testing.T) {
	var registered bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/subjects/checkin_events-value/versions/latest":
			_ = json.NewEncoder(w).Encode(map[string]int{"id": 11})
		case r.Method == http.MethodPost:
			registered = true
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "checkin_events-value", checkInCreatedSchema)
	require.NoError(t, err)
	require.Equal(t, 11, id)
	require.False(t, registered)
}

func TestSchemaRegistryClientRegistersMissingSubject(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		require.Equal(t, "/subjects/gym_events-value/versions", r.URL.Path)
		require.Equal(t, "application/vnd.schemaregistry.v1+json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]int{"id": 5})
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "gym_events-value", gymCreatedSchema)
	require.NoError(t, err)
	require.Equal(t, 5, id)
	require.Equal(t, "JSON", body["schemaType"])
	require.Equal(t, gymCreatedSchema, body["schema"])
}

func TestSchemaRegistryClientSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("registry offline"))
	}))
	defer srv.Close()

	_, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "gym_events-value", gymCreatedSchema)
	require.ErrorContains(t, err, "registry offline")
}
