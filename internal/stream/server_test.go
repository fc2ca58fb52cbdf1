package stream

import (
	"context"
	"encoding/binary"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/fluidsim/internal/emitter"
	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/sim"
)

const testN = 12

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	solver, err := fluid.New(0.0001, 0.0001, 0.1, fluid.WithSize(testN))
	if err != nil {
		t.Fatal(err)
	}
	manual := emitter.NewManual()
	srv, err := New(sim.New(solver, manual), manual, Options{FPS: 200, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func decodeFrame(t *testing.T, data []byte) (n, step int, ceiling float64, px []byte) {
	t.Helper()
	if len(data) < headerSize {
		t.Fatalf("short frame: %d bytes", len(data))
	}
	n = int(binary.LittleEndian.Uint32(data[0:]))
	step = int(binary.LittleEndian.Uint32(data[4:]))
	ceiling = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[12:])))
	return n, step, ceiling, data[headerSize:]
}

func TestEncodeFrame(t *testing.T) {
	n := 5
	d := make(fluid.Field, n*n)
	d[1+1*n] = 4
	d[2+1*n] = 2
	d[0] = 100 // boundary cells are not sent

	data := EncodeFrame(Frame{N: n, Step: 7, Time: 0.7, Density: d})
	gotN, step, ceiling, px := decodeFrame(t, data)
	if gotN != n || step != 7 || ceiling != 4 {
		t.Errorf("header = (%d, %d, %v)", gotN, step, ceiling)
	}
	if len(px) != (n-2)*(n-2) {
		t.Fatalf("expected %d pixels, got %d", (n-2)*(n-2), len(px))
	}
	if px[0] != 255 || px[1] != 128 || px[2] != 0 {
		t.Errorf("pixels = %v", px[:3])
	}
}

func TestEncodeEmptyFrame(t *testing.T) {
	data := EncodeFrame(Frame{N: 4, Density: make(fluid.Field, 16)})
	_, _, ceiling, px := decodeFrame(t, data)
	if ceiling != 0 {
		t.Errorf("empty frame ceiling %v", ceiling)
	}
	for _, p := range px {
		if p != 0 {
			t.Fatal("empty frame has lit pixels")
		}
	}
}

func TestInputImpulse(t *testing.T) {
	tests := []struct {
		name   string
		in     Input
		i, j   int
		vx     float64
		hasErr bool
	}{
		{"centre", Input{X: 0.5, Y: 0.5}, 6, 6, 0, false},
		{"top left", Input{X: 0, Y: 0}, 1, 1, 0, false},
		{"bottom right clamps", Input{X: 1, Y: 1}, 10, 10, 0, false},
		{"drag", Input{X: 0.5, Y: 0.5, DX: 0.1}, 6, 6, 0.1, false},
		{"outside", Input{X: 1.5, Y: 0.5}, 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, err := tt.in.impulse(testN)
			if (err != nil) != tt.hasErr {
				t.Fatalf("err = %v", err)
			}
			if tt.hasErr {
				return
			}
			if imp.I != tt.i || imp.J != tt.j {
				t.Errorf("cell = (%d,%d), want (%d,%d)", imp.I, imp.J, tt.i, tt.j)
			}
			if math.Abs(imp.VX-tt.vx) > 1e-9 {
				t.Errorf("vx = %v, want %v", imp.VX, tt.vx)
			}
			if imp.Density != splatDensity {
				t.Errorf("density = %v", imp.Density)
			}
		})
	}
}

func TestServesPage(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "/ws") {
		t.Errorf("index page not served: %d", resp.StatusCode)
	}
}

func TestStreamsFramesAndAcceptsSplats(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts)

	var hello Hello
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("hello: %v", err)
	}
	if hello.N != testN || len(hello.Palette) != 256 || !strings.HasPrefix(hello.Palette[0], "#") {
		t.Fatalf("bad hello: n=%d palette=%d", hello.N, len(hello.Palette))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	if err := conn.WriteJSON(Input{Action: ActionSplat, X: 0.5, Y: 0.5}); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("no frame with density arrived: %v", err)
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		n, step, ceiling, _ := decodeFrame(t, data)
		if n != testN || step < 1 {
			t.Fatalf("frame header n=%d step=%d", n, step)
		}
		if ceiling > 0 {
			break
		}
	}
	if srv.Clients() != 1 || srv.FramesSent() == 0 {
		t.Errorf("clients=%d sent=%d", srv.Clients(), srv.FramesSent())
	}
}

func TestClientDisconnectIsDropped(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts)
	var hello Hello
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client still registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestResetAndPause(t *testing.T) {
	srv, _ := newTestServer(t)
	n := srv.sim.Solver().Size()

	if err := srv.handle(Input{Action: ActionPause}, n); err != nil {
		t.Fatal(err)
	}
	if !srv.paused.Load() {
		t.Error("pause did not toggle")
	}
	if err := srv.handle(Input{Action: ActionReset}, n); err != nil {
		t.Fatal(err)
	}
	if len(srv.control) != 1 {
		t.Error("reset not queued for the simulation goroutine")
	}
	if err := srv.handle(Input{Action: "explode"}, n); err == nil {
		t.Error("unknown action accepted")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := srv.Run(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected deadline error, got %v", err)
	}
	if srv.sim.Steps() == 0 {
		t.Error("no steps taken before cancel")
	}
}
