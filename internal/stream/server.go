package stream

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/fluidsim/internal/emitter"
	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/sim"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultFPS  = 30
	sendBuffer  = 4
	frameQueue  = 2
	writeWait   = time.Second
	maxInputLen = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Options struct {
	FPS     int
	Palette string
	Logger  *log.Logger
}

type message struct {
	kind int
	data []byte
}

type client struct {
	conn *websocket.Conn
	send chan message
}

// Server steps one simulator and streams its density to every client.
type Server struct {
	sim     *sim.Simulator
	manual  *emitter.Manual
	pool    *sim.FieldPool
	palette *export.Palette
	fps     int
	log     *log.Logger

	frames  chan Frame
	control chan func()
	paused  atomic.Bool
	sent    atomic.Uint64

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New wires a server around s. manual must be one of the emitters s runs,
// so client splats reach the solver.
func New(s *sim.Simulator, manual *emitter.Manual, opts Options) (*Server, error) {
	if opts.FPS <= 0 {
		opts.FPS = defaultFPS
	}
	if opts.Palette == "" {
		opts.Palette = "viridis"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	pal, err := export.NewPalette(opts.Palette)
	if err != nil {
		return nil, err
	}
	n := s.Solver().Size()
	return &Server{
		sim:     s,
		manual:  manual,
		pool:    sim.NewFieldPool(n * n),
		palette: pal,
		fps:     opts.FPS,
		log:     opts.Logger,
		frames:  make(chan Frame, frameQueue),
		control: make(chan func(), 16),
		clients: make(map[*client]struct{}),
	}, nil
}

// Handler serves the browser page at / and the websocket at /ws.
func (s *Server) Handler() http.Handler {
	root, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(root)))
	mux.HandleFunc("/ws", s.wsHandler)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Print(r.RemoteAddr + " " + r.Method + " " + r.URL.String())
		mux.ServeHTTP(w, r)
	})
}

// Clients reports the number of connected websockets.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// FramesSent counts frames handed to clients, summed over clients.
func (s *Server) FramesSent() uint64 { return s.sent.Load() }

// Run steps the simulation until ctx is done. It is the only goroutine
// touching the solver.
func (s *Server) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.broadcast()
		close(done)
	}()
	defer func() {
		close(s.frames)
		<-done
		s.closeClients()
	}()

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.control:
			fn()
		case <-ticker.C:
			if s.paused.Load() {
				continue
			}
			if err := s.sim.Advance(); err != nil {
				s.log.Printf("step: %v", err)
			}
			if !s.sim.Finite() {
				return sim.SimError{Step: s.sim.Steps() - 1, Time: s.sim.Time(), Message: "invalid state (NaN/Inf)"}
			}
			s.publish()
		}
	}
}

// publish copies the density into a pooled field. A frame is dropped when
// the broadcaster is still busy with earlier ones.
func (s *Server) publish() {
	solver := s.sim.Solver()
	f := Frame{
		N:       solver.Size(),
		Step:    s.sim.Steps(),
		Time:    s.sim.Time(),
		Density: s.pool.GetAndCopy(solver.Density()),
	}
	select {
	case s.frames <- f:
	default:
		s.pool.Put(f.Density)
	}
}

func (s *Server) broadcast() {
	for f := range s.frames {
		data := EncodeFrame(f)
		s.pool.Put(f.Density)

		s.mu.Lock()
		for c := range s.clients {
			select {
			case c.send <- message{websocket.BinaryMessage, data}:
				s.sent.Add(1)
			default:
				// slow client, skip this frame
			}
		}
		s.mu.Unlock()
	}
}

func (s *Server) hello() Hello {
	colors := s.palette.Colors()
	hex := make([]string, 0, len(colors))
	for _, c := range colors {
		r, g, b, _ := c.RGBA()
		hex = append(hex, hexColor(r>>8, g>>8, b>>8))
	}
	return Hello{
		N:       s.sim.Solver().Size(),
		Dt:      s.sim.Solver().Params().Dt,
		FPS:     s.fps,
		Palette: hex,
	}
}

func hexColor(r, g, b uint32) string {
	const digits = "0123456789abcdef"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for k, v := range []uint32{r, g, b} {
		out[1+2*k] = digits[v>>4&0xf]
		out[2+2*k] = digits[v&0xf]
	}
	return string(out)
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		var hs websocket.HandshakeError
		if !errors.As(err, &hs) {
			s.log.Println(err)
		}
		return
	}
	c := &client{conn: conn, send: make(chan message, sendBuffer)}

	if err := conn.WriteJSON(s.hello()); err != nil {
		s.log.Println(err)
		conn.Close()
		return
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(c)
	go s.readLoop(c)
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

func (s *Server) closeClients() {
	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
			s.log.Println(err)
			s.drop(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop decodes client input until the connection closes.
func (s *Server) readLoop(c *client) {
	defer s.drop(c)
	c.conn.SetReadLimit(maxInputLen)
	n := s.sim.Solver().Size()

	for {
		var in Input
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.log.Printf("error: %v", err)
			}
			return
		}
		if err := s.handle(in, n); err != nil {
			s.log.Printf("input: %v", err)
		}
	}
}

func (s *Server) handle(in Input, n int) error {
	switch in.Action {
	case ActionSplat, "":
		imp, err := in.impulse(n)
		if err != nil {
			return err
		}
		s.manual.Push(imp)
	case ActionReset:
		select {
		case s.control <- s.sim.Reset:
		default:
			return errors.New("reset dropped, control queue full")
		}
	case ActionPause:
		s.paused.Store(!s.paused.Load())
	default:
		return errors.New("unknown action " + in.Action)
	}
	return nil
}

// ListenAndServe runs the simulation and the HTTP server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 2)
	go func() { errc <- s.Run(ctx) }()
	go func() {
		s.log.Printf("serving fluid on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	err := <-errc
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	srv.Shutdown(shutdownCtx)

	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
