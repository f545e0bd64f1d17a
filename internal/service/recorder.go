package service

import (
	"context"
	"sync"
	"time"

	"wordrush/internal/cache"
	"wordrush/internal/model"
	"wordrush/internal/repository"
	"wordrush/internal/stream"

	"github.com/rs/zerolog/log"
)

const (
	recorderBuffer  = 512
	recorderTimeout = 5 * time.Second
)

// Recorder forwards finished games and room events to the optional reporting
// sinks. Nothing it writes is ever read back into a room. Any sink may be nil.
type Recorder struct {
	archive repository.ReportRepo
	hall    cache.LeaderboardCache
	events  stream.Publisher

	jobs     chan func(ctx context.Context)
	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

// NewRecorder creates a recorder; call Start to begin writing
func NewRecorder(archive repository.ReportRepo, hall cache.LeaderboardCache, events stream.Publisher) *Recorder {
	return &Recorder{
		archive: archive,
		hall:    hall,
		events:  events,
		jobs:    make(chan func(ctx context.Context), recorderBuffer),
		stop:    make(chan struct{}),
	}
}

// Enabled reports whether any sink is configured
func (r *Recorder) Enabled() bool {
	return r.archive != nil || r.hall != nil || r.events != nil
}

// Start runs the writer goroutine
func (r *Recorder) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case job := <-r.jobs:
				r.run(job)
			case <-r.stop:
				// drain what was queued before the stop
				for {
					select {
					case job := <-r.jobs:
						r.run(job)
					default:
						return
					}
				}
			}
		}
	}()
}

func (r *Recorder) run(job func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), recorderTimeout)
	defer cancel()
	job(ctx)
}

// Stop flushes queued writes and closes the event stream
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.wg.Wait()
		if r.events != nil {
			if err := r.events.Close(); err != nil {
				log.Warn().Err(err).Msg("closing event stream")
			}
		}
	})
}

func (r *Recorder) submit(job func(ctx context.Context)) {
	select {
	case <-r.stop:
		return
	default:
	}
	select {
	case r.jobs <- job:
	default:
		log.Warn().Msg("recorder queue full, dropping write")
	}
}

// RoomEvent queues an event for the stream
func (r *Recorder) RoomEvent(event model.RoomEvent) {
	if r.events == nil {
		return
	}
	r.submit(func(ctx context.Context) {
		if err := r.events.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("room", event.RoomCode).Str("event", string(event.Type)).Msg("publish room event")
		}
	})
}

// GameFinished queues the archive and hall of fame writes for a finished game
func (r *Recorder) GameFinished(result model.GameResult) {
	if r.archive == nil && r.hall == nil {
		return
	}
	r.submit(func(ctx context.Context) {
		if r.archive != nil {
			if err := r.archive.SaveResult(ctx, &result); err != nil {
				log.Error().Err(err).Str("room", result.RoomCode).Msg("archive game result")
			}
		}
		if r.hall != nil {
			if err := r.hall.Record(ctx, result.Players); err != nil {
				log.Error().Err(err).Str("room", result.RoomCode).Msg("record hall of fame")
			}
		}
	})
}
