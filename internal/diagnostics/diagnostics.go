// Package diagnostics serves a live, read-only JSON stream of pipeline
// frame statistics over TCP, and optionally advertises the service via
// mDNS/DNS-SD so a client on the local network can find it without being
// told a host and port. It is entirely separate from the multitouch sink:
// nothing read here feeds back into touch delivery.
package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/brutella/dnssd"

	"github.com/iptsd/iptsd/internal/ipts"
	"github.com/iptsd/iptsd/internal/logging"
)

// ServiceType is the DNS-SD service type iptsd advertises under.
const ServiceType = "_iptsd._tcp"

// ContactReport is one contact's entry in a FrameReport.
type ContactReport struct {
	TrackingID int     `json:"tracking_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Diameter   float64 `json:"diameter"`
}

// FrameReport is the per-frame record streamed to each connected client,
// one JSON object per line.
type FrameReport struct {
	Frame         uint64          `json:"frame"`
	ValidClusters int             `json:"valid_clusters"`
	Contacts      []ContactReport `json:"contacts"`
}

// summaryBufferSize bounds the channel Publish hands frame summaries to.
// Sized generously above any plausible broadcast stall; once full, Publish
// drops the oldest pending summary rather than block the pipeline
// goroutine that calls it.
const summaryBufferSize = 32

// Server accepts TCP connections and fans every Publish call out to all of
// them as newline-delimited JSON, in the same accept-loop-plus-broadcast
// shape as a KISS-over-TCP server: one goroutine blocks in Accept, each
// connected client gets tracked in a set, and a send error drops that
// client rather than the whole server. Publish itself never touches a
// socket: it hands a FrameReport to a buffered channel that a separate
// broadcast goroutine drains, so a stalled TCP consumer cannot stall the
// pipeline goroutine that calls Publish.
type Server struct {
	log *logging.Logger

	mu      sync.Mutex
	clients map[net.Conn]struct{}

	listener  net.Listener
	frame     uint64
	summaries chan FrameReport
	done      chan struct{}
	closeOnce sync.Once
}

// NewServer constructs a Server. Call Serve to start accepting connections
// and broadcasting published summaries.
func NewServer(log *logging.Logger) *Server {
	if log != nil {
		log = log.With("diagnostics")
	}

	return &Server{
		log:       log,
		clients:   make(map[net.Conn]struct{}),
		summaries: make(chan FrameReport, summaryBufferSize),
		done:      make(chan struct{}),
	}
}

// Serve listens on addr (e.g. ":8273"), starts the broadcast goroutine that
// drains Publish's summaries out to connected clients, and blocks accepting
// client connections until the listener is closed. Run it in its own
// goroutine.
func (s *Server) Serve(addr string) error {
	var listener, err = net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("diagnostics: listen: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go s.broadcastLoop()

	for {
		var conn, acceptErr = listener.Accept()
		if acceptErr != nil {
			return acceptErr
		}

		s.mu.Lock()
		s.clients[conn] = struct{}{}
		s.mu.Unlock()

		if s.log != nil {
			s.log.Infof("client connected: %s", conn.RemoteAddr())
		}
	}
}

// broadcastLoop is the sole reader of s.summaries and the sole writer to
// client connections, so Publish and Close never touch the network
// directly.
func (s *Server) broadcastLoop() {
	for {
		select {
		case report := <-s.summaries:
			s.broadcast(report)
		case <-s.done:
			return
		}
	}
}

func (s *Server) broadcast(report FrameReport) {
	var line, err = json.Marshal(report)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("marshal frame report: %v", err)
		}
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		if _, writeErr := conn.Write(line); writeErr != nil {
			if s.log != nil {
				s.log.Warnf("client write failed, dropping: %v", writeErr)
			}
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// Close stops the broadcast goroutine, stops accepting new connections, and
// disconnects all current clients.
func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}

	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Publish builds a FrameReport from the given valid clusters and hands it
// to the broadcast goroutine over a buffered channel. It never blocks: if
// the channel is full, the oldest pending summary is dropped to make room,
// so a slow or stalled diagnostics consumer never stalls the caller (the
// touch pipeline's own goroutine).
func (s *Server) Publish(clusters *ipts.ClusterSet) {
	s.frame++

	var report = FrameReport{Frame: s.frame}

	for i := 0; i < clusters.Count; i++ {
		var c = clusters.Clusters[i]
		if !c.Valid {
			continue
		}

		report.ValidClusters++
		report.Contacts = append(report.Contacts, ContactReport{
			TrackingID: c.ID,
			X:          c.Centre.X,
			Y:          c.Centre.Y,
			Diameter:   c.Diameter,
		})
	}

	select {
	case s.summaries <- report:
		return
	default:
	}

	// Full: drop the oldest pending summary, then retry once. Both steps
	// are non-blocking selects, so a concurrent drain by broadcastLoop
	// between them just means our send succeeds without needing to drop.
	select {
	case <-s.summaries:
		if s.log != nil {
			s.log.Warnf("diagnostics summary buffer full, dropping oldest pending frame")
		}
	default:
	}

	select {
	case s.summaries <- report:
	default:
	}
}

// Announce advertises the diagnostics service over mDNS/DNS-SD using the
// pure-Go brutella/dnssd responder, so LAN clients can discover it without
// being told a hostname and port. It blocks responding to queries until the
// process exits; run it in its own goroutine. An empty name falls back to
// "iptsd on <hostname>".
func Announce(log *logging.Logger, port int, name string) error {
	if log != nil {
		log = log.With("dns-sd")
	}

	if name == "" {
		name = defaultServiceName()
	}

	var cfg = dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	var service, svcErr = dnssd.NewService(cfg)
	if svcErr != nil {
		return fmt.Errorf("diagnostics: create dns-sd service: %w", svcErr)
	}

	var responder, respErr = dnssd.NewResponder()
	if respErr != nil {
		return fmt.Errorf("diagnostics: create dns-sd responder: %w", respErr)
	}

	if _, err := responder.Add(service); err != nil {
		return fmt.Errorf("diagnostics: add dns-sd service: %w", err)
	}

	if log != nil {
		log.Infof("announcing %s on port %d as %q", ServiceType, port, name)
	}

	return responder.Respond(context.Background())
}

func defaultServiceName() string {
	var hostname, err = os.Hostname()
	if err != nil {
		return "iptsd"
	}

	hostname, _, _ = strings.Cut(hostname, ".")
	return "iptsd on " + hostname
}
