package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-firstream/dsp/core"
	"github.com/cwbudde/algo-firstream/dsp/filter/fir"
	"github.com/cwbudde/algo-firstream/dsp/spectrum"
	"github.com/cwbudde/algo-firstream/internal/config"
	"github.com/cwbudde/algo-firstream/stats/frame"
)

// Handler upgrades requests to websocket streaming sessions. Each session
// owns its own fir.Stream.
type Handler struct {
	logger   *zap.Logger
	cfg      config.ServerConfig
	filter   config.FilterConfig
	presets  []config.Preset
	taps     []float32
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

// NewHandler resolves the default taps once so a broken filter
// configuration fails at startup rather than per session.
func NewHandler(cfg config.Config, presets []config.Preset, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	taps, err := cfg.Filter.Taps(presets, logger)
	if err != nil {
		return nil, fmt.Errorf("resolve default filter: %w", err)
	}

	h := &Handler{
		logger:   logger,
		cfg:      cfg.Server,
		filter:   cfg.Filter,
		presets:  presets,
		taps:     taps,
		sessions: make(map[string]*session),
	}
	if err := h.checkTaps(len(taps)); err != nil {
		return nil, err
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.Server.ReadBufferSize,
		WriteBufferSize: cfg.Server.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}

	return h, nil
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.ContainsFunc(h.cfg.AllowedOrigins, func(o string) bool {
		return strings.EqualFold(o, origin)
	})
}

func (h *Handler) checkTaps(n int) error {
	if h.cfg.MaxTaps > 0 && n > h.cfg.MaxTaps {
		return fmt.Errorf("%w: %d > %d", ErrTooManyTaps, n, h.cfg.MaxTaps)
	}
	return nil
}

func (h *Handler) checkFrameSize(n int) error {
	if h.cfg.MaxFrameSize > 0 && n > h.cfg.MaxFrameSize {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, h.cfg.MaxFrameSize)
	}
	return nil
}

// Sessions returns the number of open sessions.
func (h *Handler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// CloseAll sends a close frame to every open session and closes its
// connection. http.Server.Shutdown does not track hijacked connections.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	open := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		open = append(open, s)
	}
	h.mu.Unlock()

	for _, s := range open {
		s.close(websocket.CloseGoingAway, "server shutting down")
	}
}

func (h *Handler) register(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.id] = s
}

func (h *Handler) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Handle runs one session until the client disconnects.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	stream, err := fir.NewStream(h.filter.FrameSize, h.taps, fir.WithLogger(h.logger))
	if err != nil {
		h.logger.Error("ws session stream init failed", zap.Error(err))
		return
	}

	sess := newSession(uuid.NewString(), conn, stream, h.filter.SampleRate, h.cfg.QueueSize, h.logger)
	sess.handler = h

	h.register(sess)
	defer h.unregister(sess.id)

	sess.logger.Info("ws session opened",
		zap.Int("frame_size", stream.FrameSize()),
		zap.Int("taps", stream.Taps()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sess.processLoop(ctx)
	}()

	sess.sendConfigured()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			sess.logger.Debug("ws connection closed", zap.Error(err))
			break
		}

		switch kind {
		case websocket.BinaryMessage:
			samples, err := decodeBinaryFrame(data)
			if err != nil {
				sess.sendError(err)
				continue
			}
			sess.enqueue(samples)
		case websocket.TextMessage:
			var msg incomingMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				sess.sendError(fmt.Errorf("%w: %w", ErrInvalidMessage, err))
				continue
			}
			sess.handleIncoming(msg)
		}
	}

	close(sess.frames)
	wg.Wait()

	sess.logger.Info("ws session closed",
		zap.Uint64("frames", sess.processed.Load()),
		zap.Uint64("dropped", sess.dropped.Load()),
	)
}

type session struct {
	id      string
	conn    *websocket.Conn
	handler *Handler
	logger  *zap.Logger

	stream     atomic.Pointer[fir.Stream]
	sampleRate float64

	frames    chan []float32
	seq       uint64
	dropped   atomic.Uint64
	processed atomic.Uint64

	sendMu sync.Mutex
}

func newSession(id string, conn *websocket.Conn, stream *fir.Stream, sampleRate float64, queueSize int, logger *zap.Logger) *session {
	s := &session{
		id:         id,
		conn:       conn,
		logger:     logger.With(zap.String("session_id", id)),
		sampleRate: sampleRate,
		frames:     make(chan []float32, max(queueSize, 1)),
	}
	s.stream.Store(stream)
	return s
}

// enqueue hands a frame to the processing goroutine. A full queue drops
// the frame and counts it.
func (s *session) enqueue(samples []float32) bool {
	select {
	case s.frames <- samples:
		return true
	default:
		n := s.dropped.Add(1)
		s.logger.Debug("ws frame dropped", zap.Uint64("dropped", n))
		return false
	}
}

func (s *session) processLoop(ctx context.Context) {
	var out []float32
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-s.frames:
			if !ok {
				return
			}
			stream := s.stream.Load()
			out = core.EnsureLen(out, stream.FrameSize())
			if err := stream.ProcessTo(out, in); err != nil {
				s.sendError(err)
				continue
			}
			s.processed.Add(1)
			s.seq++

			st := frame.Calculate(out)
			s.sendJSON(outputMessage{
				Type:       msgOutput,
				Seq:        s.seq,
				Samples:    out,
				Generation: stream.Generation(),
				LevelDB:    st.LevelDB(),
				RMSDB:      st.RMSDB(),
				PeakDB:     st.PeakDB(),
				Meter:      spectrum.NormalizeLevel(st.LevelDB()),
				Dropped:    s.dropped.Load(),
			})
		}
	}
}

func (s *session) handleIncoming(msg incomingMessage) {
	if msg.Type != msgHeartbeat && msg.Type != msgFrame {
		s.logger.Debug("ws incoming message", zap.String("type", msg.Type))
	}

	var err error
	switch msg.Type {
	case msgFrame:
		s.enqueue(msg.Samples)
		return
	case msgConfigure:
		err = s.configure(msg)
	case msgUpdateCoefficients:
		err = s.updateCoefficients(toTaps(msg.Coefficients))
	case msgDesign:
		err = s.design(msg)
	case msgReset:
		s.stream.Load().Reset()
	case msgHeartbeat:
		return
	default:
		err = fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, msg.Type)
	}

	if err != nil {
		s.sendError(err)
		return
	}
	s.sendConfigured()
}

// configure replaces the frame size and/or the taps. A new frame size
// installs a fresh stream; frames still queued for the old size are
// reported as size mismatches.
func (s *session) configure(msg incomingMessage) error {
	if msg.SampleRate < 0 {
		return fmt.Errorf("%w: sample_rate must be > 0", ErrInvalidMessage)
	}
	if msg.SampleRate > 0 {
		s.sampleRate = msg.SampleRate
	}

	taps, err := s.resolveTaps(msg)
	if err != nil {
		return err
	}

	current := s.stream.Load()
	if msg.FrameSize == 0 || msg.FrameSize == current.FrameSize() {
		if taps == nil {
			return nil
		}
		return s.updateCoefficients(taps)
	}

	if err := s.handler.checkFrameSize(msg.FrameSize); err != nil {
		return err
	}
	if taps == nil {
		taps = current.Coefficients()
	}
	stream, err := fir.NewStream(msg.FrameSize, taps, fir.WithLogger(s.handler.logger))
	if err != nil {
		return err
	}
	s.stream.Store(stream)

	s.logger.Info("ws stream reconfigured",
		zap.Int("frame_size", msg.FrameSize),
		zap.Int("taps", len(taps)),
	)
	return nil
}

// resolveTaps returns nil when msg names no coefficient source.
func (s *session) resolveTaps(msg incomingMessage) ([]float32, error) {
	switch {
	case len(msg.Coefficients) > 0:
		return toTaps(msg.Coefficients), nil
	case msg.Preset != "":
		p, err := config.FindPreset(s.handler.presets, msg.Preset)
		if err != nil {
			return nil, err
		}
		return p.Taps(s.sampleRate, s.logger)
	case msg.Design != nil:
		return msg.Design.Build(s.sampleRate, s.logger)
	default:
		return nil, nil
	}
}

func (s *session) design(msg incomingMessage) error {
	if msg.Design == nil {
		return fmt.Errorf("%w: design message without design", ErrInvalidMessage)
	}
	taps, err := msg.Design.Build(s.sampleRate, s.logger)
	if err != nil {
		return err
	}
	return s.updateCoefficients(taps)
}

func (s *session) updateCoefficients(taps []float32) error {
	if err := s.handler.checkTaps(len(taps)); err != nil {
		return err
	}
	return s.stream.Load().UpdateCoefficients(taps)
}

func (s *session) sendConfigured() {
	stream := s.stream.Load()
	s.sendJSON(configuredMessage{
		Type:       msgConfigured,
		SessionID:  s.id,
		FrameSize:  stream.FrameSize(),
		Taps:       stream.Taps(),
		SampleRate: s.sampleRate,
		Generation: stream.Generation(),
	})
}

func (s *session) sendError(err error) {
	s.logger.Debug("ws request failed", zap.Error(err))
	s.sendJSON(newErrorMessage(err))
}

func (s *session) sendJSON(payload any) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.conn.WriteJSON(payload); err != nil {
		s.logger.Debug("ws write failed", zap.Error(err))
	}
}

func (s *session) close(code int, reason string) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = s.conn.Close()
}
