// Package images generates the thumbnail and large variants of uploaded
// pictures and avatars on a background worker pool
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/shared"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Job kinds
const (
	KindRecipe = "recipe"
	KindAvatar = "avatar"
)

// Job asks for the variants of one stored original
type Job struct {
	Kind     string
	Dir      string // e.g. "pictures/12"
	Original string // e.g. "original.jpg"
}

func (j Job) key(name string) string {
	return path.Join(j.Dir, name)
}

// Recorder observes finished jobs
type Recorder interface {
	RecordImageJob(kind, outcome string, duration time.Duration)
	SetImageQueueDepth(n int)
}

// Pool runs image jobs on a fixed number of goroutines
type Pool struct {
	storage  outbound.StorageService
	recorder Recorder
	logger   *zap.Logger
	workers  int
	thumb    int
	large    int

	mu     sync.Mutex
	jobs   chan Job
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool creates a pool sized by cfg. Start must be called before jobs run.
func NewPool(cfg config.ImagesConfig, storage outbound.StorageService, recorder Recorder, logger *zap.Logger) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queue := cfg.QueueSize
	if queue < 1 {
		queue = 1
	}
	thumb, large := cfg.ThumbnailSize, cfg.LargeSize
	if thumb <= 0 {
		thumb = 300
	}
	if large <= 0 {
		large = 1200
	}

	return &Pool{
		storage:  storage,
		recorder: recorder,
		logger:   logger.Named("image-pool"),
		workers:  workers,
		thumb:    thumb,
		large:    large,
		jobs:     make(chan Job, queue),
	}
}

// Start launches the workers
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
	p.logger.Info("Image workers started", zap.Int("workers", p.workers), zap.Int("queue", cap(p.jobs)))
}

// Stop stops accepting jobs and waits for queued ones until ctx ends, then
// abandons what is left
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Image workers stopped")
		return nil
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		return ctx.Err()
	}
}

// Enqueue hands a job to the workers without blocking. It reports false when
// the job was dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.logger.Warn("Image pool stopped, dropping job", zap.String("dir", job.Dir))
		p.recorder.RecordImageJob(job.Kind, "dropped", 0)
		return false
	}

	select {
	case p.jobs <- job:
		p.recorder.SetImageQueueDepth(len(p.jobs))
		return true
	default:
		p.logger.Warn("Image job queue full, dropping job", zap.String("dir", job.Dir))
		p.recorder.RecordImageJob(job.Kind, "dropped", 0)
		return false
	}
}

// Subscribe registers the pool for upload events
func (p *Pool) Subscribe(register func(event string, handler shared.EventHandler)) {
	register(recipe.ImageAttachedEvent{}.EventName(), func(event shared.DomainEvent) error {
		e, ok := event.(recipe.ImageAttachedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}
		p.Enqueue(Job{Kind: KindRecipe, Dir: path.Join("pictures", strconv.FormatInt(e.RecipeID, 10)), Original: e.Filename})
		return nil
	})
	register(user.AvatarAttachedEvent{}.EventName(), func(event shared.DomainEvent) error {
		e, ok := event.(user.AvatarAttachedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}
		p.Enqueue(Job{Kind: KindAvatar, Dir: path.Join("avatars", strconv.FormatInt(e.UserID, 10)), Original: e.Filename})
		return nil
	})
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()

	for job := range p.jobs {
		if ctx.Err() != nil {
			return
		}
		p.recorder.SetImageQueueDepth(len(p.jobs))

		start := time.Now()
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("Image job failed",
				zap.String("kind", job.Kind),
				zap.String("dir", job.Dir),
				zap.Error(err),
			)
			p.recorder.RecordImageJob(job.Kind, "failed", time.Since(start))
			continue
		}
		p.recorder.RecordImageJob(job.Kind, "ok", time.Since(start))
		p.logger.Debug("Image variants written", zap.String("dir", job.Dir), zap.Duration("took", time.Since(start)))
	}
}

// Process writes the thumbnail and large variants of one original
func (p *Pool) Process(ctx context.Context, job Job) error {
	rc, err := p.storage.Open(ctx, job.key(job.Original))
	if err != nil {
		return fmt.Errorf("open original: %w", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}

	format, err := imaging.FormatFromFilename(job.Original)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode original: %w", err)
	}
	img = CorrectOrientation(img, Orientation(data))

	ext := path.Ext(job.Original)
	variants := []struct {
		name string
		img  image.Image
	}{
		{"thumbnail" + ext, imaging.Fill(img, p.thumb, p.thumb, imaging.Center, imaging.Lanczos)},
		{"large" + ext, imaging.Fit(img, p.large, p.large, imaging.Lanczos)},
	}

	for _, v := range variants {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, v.img, format); err != nil {
			return fmt.Errorf("encode %s: %w", v.name, err)
		}
		if err := p.storage.Put(ctx, job.key(v.name), &buf, mime.TypeByExtension(ext)); err != nil {
			return fmt.Errorf("store %s: %w", v.name, err)
		}
	}
	return nil
}
