// Package forge 维护世界与地点的生成/展示状态。
//
// 所有状态由一把互斥锁保护；网关调用在锁外的 goroutine 中进行，
// 结果回来时重新读取当前状态，并通过令牌判断结果是否已经过期：
// 世界令牌在每次发起生成或重置时递增，地点令牌在每次请求该地点图像时刷新。
package forge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"worldforge/internal/application/gateway"
	"worldforge/internal/domain/world"
	"worldforge/pkg/logger"
	"worldforge/pkg/metrics"
)

// ErrNoWorld 当前没有可导出的世界
var ErrNoWorld = errors.New("no world has been forged")

// Options 状态存储参数
type Options struct {
	// MaxParallel 批量渲染时同时进行的图像请求上限
	MaxParallel int
}

type locationStatus struct {
	generating bool
	image      *world.Image
	token      uint64
}

// Store 世界/地点状态存储（进程内单例）
type Store struct {
	gateway gateway.Gateway
	opts    Options

	mu         sync.Mutex
	world      *world.World
	loading    bool
	worldErr   string
	status     map[string]*locationStatus
	expanded   *ExpandedImage
	worldToken uint64
	seq        uint64

	subs   map[*subscriber]struct{}
	closed bool

	inflight sync.WaitGroup
	pending  atomic.Int64
}

// NewStore 创建状态存储
func NewStore(gw gateway.Gateway, opts Options) *Store {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	return &Store{
		gateway: gw,
		opts:    opts,
		status:  make(map[string]*locationStatus),
		subs:    make(map[*subscriber]struct{}),
	}
}

// StartWorldGeneration 提交种子并开始生成世界。
// 空白种子不做任何事；否则同步进入加载状态并清空旧世界，结果异步落定。
func (s *Store) StartWorldGeneration(ctx context.Context, seed string) *Ticket {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		metrics.StoreTransitionsTotal.WithLabelValues("start_world", "ignored").Inc()
		return ignoredTicket()
	}

	s.mu.Lock()
	s.worldToken++
	token := s.worldToken
	s.loading = true
	s.worldErr = ""
	s.world = nil
	s.status = make(map[string]*locationStatus)
	s.expanded = nil
	s.publishStateLocked()
	s.mu.Unlock()
	metrics.StoreTransitionsTotal.WithLabelValues("start_world", "accepted").Inc()

	t := newTicket()
	ctx = logger.WithContext(context.WithoutCancel(ctx), logger.WorldTokenKey, token)
	logger.Info(ctx, "world generation started", "seed_len", len(seed), "ticket", t.ID())

	s.spawn(func() {
		defer t.finish()

		w, err := s.gateway.RequestWorld(ctx, seed)
		s.resolveWorld(ctx, token, w, err)
	})
	return t
}

func (s *Store) resolveWorld(ctx context.Context, token uint64, w *world.World, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.worldToken {
		metrics.StoreTransitionsTotal.WithLabelValues("resolve_world", "stale").Inc()
		logger.Debug(ctx, "discarding stale world result", "current_token", s.worldToken)
		return
	}

	s.loading = false
	if err != nil || w == nil {
		s.world = nil
		s.worldErr = WorldFailureMessage
		metrics.StoreTransitionsTotal.WithLabelValues("resolve_world", "failure").Inc()
		logger.Warn(ctx, "world generation failed", "reason", string(gateway.ReasonOf(err)))
	} else {
		s.world = w
		s.worldErr = ""
		s.status = make(map[string]*locationStatus, len(w.Locations))
		for _, id := range w.LocationIDs() {
			s.status[id] = &locationStatus{}
		}
		metrics.StoreTransitionsTotal.WithLabelValues("resolve_world", "success").Inc()
		logger.Info(ctx, "world ready", "title", w.Title, "locations", len(w.Locations))
	}
	s.publishStateLocked()
}

// imageJob 一次已登记的地点图像请求
type imageJob struct {
	worldToken uint64
	token      uint64
	locationID string
	prompt     string
}

// beginImageLocked 将地点标记为生成中并分配新令牌；调用方必须持有 s.mu
func (s *Store) beginImageLocked(loc world.Location, override string) imageJob {
	st := s.status[loc.ID]
	if st == nil {
		st = &locationStatus{}
		s.status[loc.ID] = st
	}
	s.seq++
	st.generating = true
	st.token = s.seq
	return imageJob{
		worldToken: s.worldToken,
		token:      st.token,
		locationID: loc.ID,
		prompt:     ComposeImagePrompt(loc.ImagePromptLong, override),
	}
}

// RequestLocationImage 为单个地点请求图像；没有世界或地点不存在时不做任何事
func (s *Store) RequestLocationImage(ctx context.Context, locationID, overrideText string) *Ticket {
	s.mu.Lock()
	loc, ok := s.world.Location(locationID)
	if !ok {
		s.mu.Unlock()
		metrics.StoreTransitionsTotal.WithLabelValues("request_image", "ignored").Inc()
		return ignoredTicket()
	}
	job := s.beginImageLocked(loc, overrideText)
	s.publishStateLocked()
	s.mu.Unlock()
	metrics.StoreTransitionsTotal.WithLabelValues("request_image", "accepted").Inc()

	t := newTicket()
	ctx = context.WithoutCancel(ctx)
	s.spawn(func() {
		defer t.finish()
		s.runImageJob(ctx, job)
	})
	return t
}

func (s *Store) runImageJob(ctx context.Context, job imageJob) {
	ctx = logger.WithContext(ctx, logger.WorldTokenKey, job.worldToken)
	ctx = logger.WithContext(ctx, logger.LocationIDKey, job.locationID)

	metrics.ImagesInFlight.Inc()
	img, err := s.gateway.RequestImage(ctx, job.prompt)
	metrics.ImagesInFlight.Dec()

	s.resolveImage(ctx, job, img, err)
}

func (s *Store) resolveImage(ctx context.Context, job imageJob, img world.Image, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.status[job.locationID]
	if job.worldToken != s.worldToken || st == nil || st.token != job.token {
		metrics.StoreTransitionsTotal.WithLabelValues("resolve_image", "stale").Inc()
		logger.Debug(ctx, "discarding stale image result")
		return
	}

	st.generating = false
	if err != nil {
		// 保留之前的图像
		metrics.StoreTransitionsTotal.WithLabelValues("resolve_image", "failure").Inc()
		logger.Warn(ctx, "location image failed", "reason", string(gateway.ReasonOf(err)))
		s.publishStateLocked()
		s.publishLocked(Event{Kind: EventNotice, Notice: &Notice{
			Message:    ImageFailureMessage,
			LocationID: job.locationID,
		}})
		return
	}

	st.image = &img
	metrics.StoreTransitionsTotal.WithLabelValues("resolve_image", "success").Inc()
	logger.Info(ctx, "location image ready", "bytes", len(img.Data))
	s.publishStateLocked()
}

// DismissError 清除世界错误，不影响其他状态
func (s *Store) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.worldErr == "" {
		return
	}
	s.worldErr = ""
	metrics.StoreTransitionsTotal.WithLabelValues("dismiss_error", "accepted").Inc()
	s.publishStateLocked()
}

// Reset 丢弃当前世界回到初始状态；进行中的请求结果将作为过期结果丢弃
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worldToken++
	s.world = nil
	s.loading = false
	s.worldErr = ""
	s.status = make(map[string]*locationStatus)
	s.expanded = nil
	metrics.StoreTransitionsTotal.WithLabelValues("reset", "accepted").Inc()
	s.publishStateLocked()
}

// ExpandImage 放大查看一张图像
func (s *Store) ExpandImage(img world.Image, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = &ExpandedImage{Image: img, Label: label}
	s.publishStateLocked()
}

// ExpandLocationImage 放大查看某地点当前的图像，以地点名作为标签；没有图像时返回 false
func (s *Store) ExpandLocationImage(locationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.world.Location(locationID)
	if !ok {
		return false
	}
	st := s.status[locationID]
	if st == nil || st.image == nil {
		return false
	}
	s.expanded = &ExpandedImage{Image: *st.image, Label: loc.Name}
	s.publishStateLocked()
	return true
}

// CloseExpandedImage 关闭放大查看
func (s *Store) CloseExpandedImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expanded == nil {
		return
	}
	s.expanded = nil
	s.publishStateLocked()
}

// Snapshot 返回当前状态
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		View:      deriveView(s.loading, s.worldErr, s.world != nil),
		IsLoading: s.loading,
		Error:     s.worldErr,
	}
	if s.expanded != nil {
		e := *s.expanded
		snap.Expanded = &e
	}
	if s.world == nil {
		return snap
	}

	wv := &WorldView{
		Title:     s.world.Title,
		TitleKo:   s.world.TitleKo,
		Tagline:   s.world.Tagline,
		TaglineKo: s.world.TaglineKo,
		Pillars:   append([]world.Pillar(nil), s.world.Pillars...),
		Locations: make([]LocationView, 0, len(s.world.Locations)),
	}
	for _, loc := range s.world.Locations {
		lv := LocationView{Location: loc}
		if st := s.status[loc.ID]; st != nil {
			lv.IsGeneratingImage = st.generating
			if st.image != nil {
				img := *st.image
				lv.GeneratedImage = &img
			}
		}
		wv.Locations = append(wv.Locations, lv)
	}
	snap.World = wv
	return snap
}

// Export 返回可下载的世界文档，包含已生成的图像
func (s *Store) Export() (*world.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.world == nil {
		return nil, ErrNoWorld
	}
	images := make(map[string]world.Image)
	for id, st := range s.status {
		if st.image != nil {
			images[id] = *st.image
		}
	}
	return world.NewDocument(s.world, images), nil
}

// LocationImage 返回地点当前的图像
func (s *Store) LocationImage(locationID string) (world.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.world.Location(locationID); !ok {
		return world.Image{}, false
	}
	st := s.status[locationID]
	if st == nil || st.image == nil {
		return world.Image{}, false
	}
	return *st.image, true
}

// Drain 等待所有进行中的请求落定；没有进行中的请求时立即返回，不受 ctx 是否过期影响
func (s *Store) Drain(ctx context.Context) error {
	if s.pending.Load() == 0 {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn 在后台执行一次网关调用并计入 Drain
func (s *Store) spawn(fn func()) {
	s.inflight.Add(1)
	s.pending.Add(1)
	go func() {
		defer s.inflight.Done()
		defer s.pending.Add(-1)
		fn()
	}()
}
