// Package playback derives the locations a stream can be watched from. They
// are computed from configuration on every read and never stored.
package playback

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
)

// RecordingSigner returns a time-limited URL for a stream's archived
// recording.
type RecordingSigner interface {
	RecordingURL(ctx context.Context, st *models.Stream) (string, error)
}

type Resolver struct {
	rtmpHost   string
	hlsHost    string
	recordings RecordingSigner
	log        logging.Logger
}

// NewResolver builds a Resolver. recordings may be nil when no archive is
// configured.
func NewResolver(rtmpHost, hlsHost string, recordings RecordingSigner, log logging.Logger) *Resolver {
	return &Resolver{rtmpHost: rtmpHost, hlsHost: hlsHost, recordings: recordings, log: log}
}

func RTMPURL(host, streamKey string) string {
	return fmt.Sprintf("rtmp://%s/live/%s", host, streamKey)
}

func HLSURL(host, streamKey string) string {
	return fmt.Sprintf("http://%s/hls/%s.m3u8", host, streamKey)
}

// Resolve fills in playback locations for st. A recording URL is offered
// only once the stream has stopped; signing failures drop it and are logged.
func (r *Resolver) Resolve(ctx context.Context, st *models.Stream) models.Playback {
	p := models.Playback{
		RTMPURL: RTMPURL(r.rtmpHost, st.StreamKey),
		HLSURL:  HLSURL(r.hlsHost, st.StreamKey),
	}

	if r.recordings == nil || st.Active() {
		return p
	}

	url, err := r.recordings.RecordingURL(ctx, st)
	if err != nil {
		r.log.Warn(ctx, "recording url presign failed", "stream_id", st.ID, "error", err)
		return p
	}
	p.RecordingURL = url

	return p
}

// View resolves playback and returns the owner-facing projection.
func (r *Resolver) View(ctx context.Context, st *models.Stream) *models.StreamView {
	v := st.View(r.Resolve(ctx, st))
	return &v
}
