package logger

// Standard field names for consistent logging.
const (
	FieldService       = "service"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldRole          = "role"
	FieldRequestID     = "request_id"
	FieldBib           = "bib"
	FieldCountry       = "country"
	FieldEventID       = "event_id"
	FieldParticipantID = "participant_id"
)
