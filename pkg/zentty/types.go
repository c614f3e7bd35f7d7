package zentty

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp decodes the server's timestamps, which arrive either as RFC 3339
// strings or as Unix epoch milliseconds.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts null, a number of epoch milliseconds, or a string
// holding RFC 3339 or epoch milliseconds.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		if s == "" {
			return nil
		}

		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			ts.Time = time.UnixMilli(ms).UTC()
			return nil
		}

		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("zentty: invalid timestamp %q: %w", s, err)
		}

		ts.Time = t

		return nil
	}

	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("zentty: invalid timestamp %s: %w", data, err)
	}

	ts.Time = time.UnixMilli(ms).UTC()

	return nil
}

// MarshalJSON encodes the timestamp as RFC 3339, or null when zero.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(ts.Format(time.RFC3339Nano))
}

// User is an account on the content-graph service.
type User struct {
	ID         string    `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Active     bool      `json:"active"`
	Registered Timestamp `json:"registered"`
	AvatarURL  string    `json:"avatarUrl"`
}

// LoginSession is returned by a successful login.
type LoginSession struct {
	SessionCode string    `json:"sessionCode"`
	CreatedAt   Timestamp `json:"createdAt"`
	Expires     Timestamp `json:"expires"`
	IPAddress   string    `json:"ipAddress"`
	UserAgent   string    `json:"userAgent"`
}

// FileInfo describes the file attached to an entity.
type FileInfo struct {
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
	Status   string `json:"status"`
}

// Entity is a node of the content graph. Body (rich content) and Metadata
// are opaque JSON.
type Entity struct {
	ID        string          `json:"_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Body      json.RawMessage `json:"body,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt Timestamp       `json:"createdAt"`
	CreatedBy *User           `json:"createdBy,omitempty"`
	Archived  bool            `json:"archived"`
	File      *FileInfo       `json:"file,omitempty"`
}

// ResultInfo is the paging envelope of list operations.
type ResultInfo struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// EntityList is the reply of GetEntities.
type EntityList struct {
	Result ResultInfo `json:"result"`
	Items  []Entity   `json:"items"`
}

// RelatedEntity is one edge of a relationship listing.
type RelatedEntity struct {
	TargetEntity Entity  `json:"targetEntity"`
	Position     float64 `json:"position"`
}

// RelatedEntityList is the reply of GetRelatedEntities.
type RelatedEntityList struct {
	Result ResultInfo      `json:"result"`
	Items  []RelatedEntity `json:"items"`
}

// RegisterUserParams are the inputs of RegisterUser. All fields are required.
type RegisterUserParams struct {
	Username string
	Email    string
	Name     string
	Password string
}

// LoginUserParams are the inputs of LoginUser. Identifier is a username or
// email address.
type LoginUserParams struct {
	Identifier string
	Password   string
}

// LogoutUserParams are the inputs of LogoutUser. An empty SessionCode logs
// out the session the request is authenticated with.
type LogoutUserParams struct {
	SessionCode string
}

// EntityInput carries the editable fields of an entity. Nil fields are left
// out of the request.
type EntityInput struct {
	Title    *string
	Body     json.RawMessage
	Metadata json.RawMessage
}

// CreateEntityParams are the inputs of CreateEntity. Type is required.
type CreateEntityParams struct {
	Type           string
	Entity         EntityInput
	ScopeID        string
	ParentEntityID string
	PlaceBeforeID  string
	PlaceAfterID   string
}

// GetEntityParams are the inputs of GetEntity.
type GetEntityParams struct {
	ID string
}

// ModifyEntityParams are the inputs of ModifyEntity. ID is required; a nil
// Entity leaves the content unchanged (useful for pure reordering).
type ModifyEntityParams struct {
	ID            string
	Entity        *EntityInput
	PlaceBeforeID string
	PlaceAfterID  string
}

// RelateEntityParams are the inputs of RelateEntity.
type RelateEntityParams struct {
	SourceEntityID string
	TargetEntityID string
	Relationship   string
	Metadata       json.RawMessage
	PlaceBeforeID  string
	PlaceAfterID   string
}

// UnrelateEntityParams are the inputs of UnrelateEntity.
type UnrelateEntityParams struct {
	SourceEntityID string
	TargetEntityID string
	Relationship   string
}

// GetEntitiesParams are the inputs of GetEntities. Zero Limit and Offset
// defer to the server defaults.
type GetEntitiesParams struct {
	ParentID  string
	ChildType string
	Limit     int
	Offset    int
}

// Relationship directions for GetRelatedEntities.
const (
	DirectionTarget = "target"
	DirectionSource = "source"
)

// GetRelatedEntitiesParams are the inputs of GetRelatedEntities. Direction
// defaults to DirectionTarget.
type GetRelatedEntitiesParams struct {
	SourceEntityID string
	Relationship   string
	Type           string
	Direction      string
	Limit          int
	Offset         int
}

// PrepareFileUploadParams are the inputs of PrepareFileUpload.
type PrepareFileUploadParams struct {
	EntityID string
	Filename string
	Type     string
	Filesize int64
}

// AppendFileChunkParams are the inputs of AppendFileChunk.
type AppendFileChunkParams struct {
	EntityID string
	Chunk    []byte
}

// Progress is reported after every uploaded chunk.
type Progress struct {
	Complete      bool  `json:"complete"`
	BytesUploaded int64 `json:"bytesUploaded"`
	TotalBytes    int64 `json:"totalBytes"`
}

// ProgressFunc receives upload progress. It runs on the uploading goroutine
// and should return quickly.
type ProgressFunc func(Progress)
