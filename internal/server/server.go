// Package server runs the webhook receiver used in serve mode. It
// accepts GitHub push deliveries over HTTP and feeds each one through
// the release pipeline.
package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/drewfead/relaynote/internal/config"
	"github.com/drewfead/relaynote/internal/event"
	"github.com/drewfead/relaynote/internal/logging"
	"github.com/drewfead/relaynote/internal/release"
)

// maxBodySize caps webhook payloads. GitHub documents ~25 MB as the
// maximum push payload size.
const maxBodySize = 25 * 1024 * 1024

// Server is the webhook receiver.
type Server struct {
	httpServer *http.Server
	pipeline   *release.Pipeline
	secret     []byte
}

// New creates a server around the given pipeline. When the configured
// webhook secret is non-empty, deliveries must carry a valid
// X-Hub-Signature-256 header.
func New(cfg config.ServerConfig, pipeline *release.Pipeline) *Server {
	s := &Server{
		pipeline: pipeline,
		secret:   []byte(cfg.WebhookSecret),
	}

	router := mux.NewRouter()
	router.HandleFunc("/webhook/github", s.handleWebhook).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleWebhook processes one GitHub delivery. Unlike the one-shot run
// command, a long-running receiver must not die on events it does not
// handle: non-push deliveries are acknowledged and dropped.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		logging.Error("webhook: failed to read body", "error", err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	if len(s.secret) > 0 {
		if err := verifySignature(s.secret, body, r.Header.Get("X-Hub-Signature-256")); err != nil {
			logging.Warn("webhook: signature verification failed",
				"error", err, "remote_addr", r.RemoteAddr)
			http.Error(w, "", http.StatusUnauthorized)
			return
		}
	}

	eventKind := r.Header.Get("X-GitHub-Event")
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	log := logging.With("delivery_id", deliveryID, "event", eventKind)

	if eventKind != "push" {
		log.Debug("ignoring non-push delivery")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ev, err := event.Parse(eventKind, body)
	if err != nil {
		log.Warn("webhook: invalid payload", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.pipeline.Run(r.Context(), ev.Repository.FullName, ev); err != nil {
		log.Error("pipeline failed", "error", err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// verifySignature checks a GitHub HMAC-SHA256 webhook signature of the
// form "sha256=<hex>".
func verifySignature(secret, body []byte, signature string) error {
	const prefix = "sha256="
	if len(signature) <= len(prefix) || signature[:len(prefix)] != prefix {
		return fmt.Errorf("missing or malformed signature header")
	}
	got, err := hex.DecodeString(signature[len(prefix):])
	if err != nil {
		return fmt.Errorf("signature is not valid hex")
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
