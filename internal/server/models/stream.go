package models

import "time"

type StreamStatus string

const (
	StreamActive  StreamStatus = "active"
	StreamStopped StreamStatus = "stopped"
)

// Stream is one broadcast session. Stopped is terminal; a key is never
// reused once its stream stops.
type Stream struct {
	ID        string
	UserID    string
	StreamKey string
	Status    StreamStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

func (s *Stream) Active() bool {
	return s.Status == StreamActive
}

// Usable reports whether the ingest layer may publish with this stream's
// key at time now.
func (s *Stream) Usable(now time.Time) bool {
	return s.Active() && now.Before(s.ExpiresAt)
}

// Playback holds locations derived from configuration; they are never stored.
type Playback struct {
	RTMPURL      string `json:"rtmpUrl"`
	HLSURL       string `json:"hlsUrl"`
	RecordingURL string `json:"recordingUrl,omitempty"`
}

// StreamView is a Stream plus its playback locations, as returned to owners.
type StreamView struct {
	ID        string       `json:"id"`
	StreamKey string       `json:"streamKey"`
	Status    StreamStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Playback
}

func (s *Stream) View(p Playback) StreamView {
	return StreamView{
		ID:        s.ID,
		StreamKey: s.StreamKey,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		ExpiresAt: s.ExpiresAt,
		Playback:  p,
	}
}
