// Package models holds the client-side view of server resources and the
// locally saved session.
package models

import (
	"fmt"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

type Stream struct {
	ID           string    `json:"id"`
	StreamKey    string    `json:"streamKey"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	RTMPURL      string    `json:"rtmpUrl"`
	HLSURL       string    `json:"hlsUrl"`
	RecordingURL string    `json:"recordingUrl,omitempty"`
}

func (s *Stream) String() string {
	line := fmt.Sprintf("%s  %-7s  created %s  expires %s\n  key:  %s\n  rtmp: %s\n  hls:  %s",
		s.ID, s.Status, s.CreatedAt.Local().Format(time.DateTime), s.ExpiresAt.Local().Format(time.DateTime),
		s.StreamKey, s.RTMPURL, s.HLSURL)
	if s.RecordingURL != "" {
		line += "\n  recording: " + s.RecordingURL
	}
	return line
}

// IngestGrant is the answer to an accepted stream key.
type IngestGrant struct {
	UserID   string
	StreamID string
}

// Session is the token saved by the last successful login or registration.
type Session struct {
	Token     string
	Username  string
	ServerURL string
	SavedAt   time.Time
}
