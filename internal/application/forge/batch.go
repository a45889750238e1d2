package forge

import (
	"context"

	"golang.org/x/sync/errgroup"

	"worldforge/pkg/logger"
	"worldforge/pkg/metrics"
)

// RequestAllLocationImages 为所有未在生成中的地点请求图像。
// 所有地点同步进入生成中状态，网关调用最多并行 MaxParallel 个；
// 单个地点失败不影响其他地点。
func (s *Store) RequestAllLocationImages(ctx context.Context, overrideText string) *Ticket {
	s.mu.Lock()
	if s.world == nil {
		s.mu.Unlock()
		metrics.StoreTransitionsTotal.WithLabelValues("request_all_images", "ignored").Inc()
		return ignoredTicket()
	}
	jobs := make([]imageJob, 0, len(s.world.Locations))
	for _, loc := range s.world.Locations {
		if st := s.status[loc.ID]; st != nil && st.generating {
			continue
		}
		jobs = append(jobs, s.beginImageLocked(loc, overrideText))
	}
	if len(jobs) == 0 {
		s.mu.Unlock()
		metrics.StoreTransitionsTotal.WithLabelValues("request_all_images", "ignored").Inc()
		return ignoredTicket()
	}
	s.publishStateLocked()
	s.mu.Unlock()
	metrics.StoreTransitionsTotal.WithLabelValues("request_all_images", "accepted").Inc()

	t := newTicket()
	ctx = context.WithoutCancel(ctx)
	logger.Info(ctx, "batch image generation started", "locations", len(jobs), "max_parallel", s.opts.MaxParallel)

	s.spawn(func() {
		defer t.finish()

		var g errgroup.Group
		g.SetLimit(s.opts.MaxParallel)
		for _, job := range jobs {
			g.Go(func() error {
				s.runImageJob(ctx, job)
				return nil
			})
		}
		_ = g.Wait()
	})
	return t
}
