package outbox

import "example.com/gymcheckins/internal/events"

// SchemaCatalogEntry maps an event type to its JSON schema.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeGymCreated:       {Schema: gymCreatedSchema},
	events.TypeCheckInCreated:   {Schema: checkInCreatedSchema},
	events.TypeCheckInValidated: {Schema: checkInValidatedSchema},
}

const gymCreatedSchema = `{
  "type": "object",
  "title": "GymCreated",
  "properties": {
    "gym_id": {"type": "string"},
    "title": {"type": "string"},
    "description": {"type": "string"},
    "phone": {"type": "string"},
    "latitude": {"type": "number", "minimum": -90, "maximum": 90},
    "longitude": {"type": "number", "minimum": -180, "maximum": 180},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["gym_id", "title", "latitude", "longitude", "created_at"],
  "additionalProperties": false
}`

const checkInCreatedSchema = `{
  "type": "object",
  "title": "CheckInCreated",
  "properties": {
    "check_in_id": {"type": "string"},
    "user_id": {"type": "string"},
    "gym_id": {"type": "string"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["check_in_id", "user_id", "gym_id", "created_at"],
  "additionalProperties": false
}`

const checkInValidatedSchema = `{
  "type": "object",
  "title": "CheckInValidated",
  "properties": {
    "check_in_id": {"type": "string"},
    "user_id": {"type": "string"},
    "gym_id": {"type": "string"},
    "created_at": {"type": "string", "format": "date-time"},
    "validated_at": {"type": "string", "format": "date-time"}
  },
  "required": ["check_in_id", "user_id", "gym_id", "created_at", "validated_at"],
  "additionalProperties": false
}`
