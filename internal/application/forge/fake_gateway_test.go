package forge

import (
	"context"
	"sync"
	"testing"
	"time"

	"worldforge/internal/domain/world"
)

type worldReply struct {
	w   *world.World
	err error
}

type imageReply struct {
	img world.Image
	err error
}

// fakeGateway 每次调用阻塞，直到测试按 seed / prompt 送出回复
type fakeGateway struct {
	mu      sync.Mutex
	worlds  map[string]chan worldReply
	images  map[string]chan imageReply
	prompts []string

	inflight    int
	maxInflight int

	worldStarted chan string
	imageStarted chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		worlds:       make(map[string]chan worldReply),
		images:       make(map[string]chan imageReply),
		worldStarted: make(chan string, 64),
		imageStarted: make(chan string, 64),
	}
}

func (g *fakeGateway) worldCh(seed string) chan worldReply {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.worlds[seed]
	if !ok {
		ch = make(chan worldReply, 4)
		g.worlds[seed] = ch
	}
	return ch
}

func (g *fakeGateway) imageCh(prompt string) chan imageReply {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.images[prompt]
	if !ok {
		ch = make(chan imageReply, 4)
		g.images[prompt] = ch
	}
	return ch
}

func (g *fakeGateway) RequestWorld(_ context.Context, seed string) (*world.World, error) {
	g.worldStarted <- seed
	r := <-g.worldCh(seed)
	return r.w, r.err
}

func (g *fakeGateway) RequestImage(_ context.Context, prompt string) (world.Image, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.inflight++
	if g.inflight > g.maxInflight {
		g.maxInflight = g.inflight
	}
	g.mu.Unlock()

	g.imageStarted <- prompt
	r := <-g.imageCh(prompt)

	g.mu.Lock()
	g.inflight--
	g.mu.Unlock()
	return r.img, r.err
}

func (g *fakeGateway) replyWorld(seed string, w *world.World, err error) {
	g.worldCh(seed) <- worldReply{w: w, err: err}
}

func (g *fakeGateway) replyImage(prompt string, img world.Image, err error) {
	g.imageCh(prompt) <- imageReply{img: img, err: err}
}

func (g *fakeGateway) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func waitTicket(t *testing.T, tk *Ticket) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tk.Wait(ctx); err != nil {
		t.Fatalf("ticket %s did not resolve: %v", tk.ID(), err)
	}
}

func waitStarted(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("gateway call did not start")
		return ""
	}
}
