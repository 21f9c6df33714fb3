// Package backendtest provides an in-memory backend for tests.
package backendtest

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PolarWolf314/sealreel/internal/integrity"
)

// User is an account known to the fake backend.
type User struct {
	ID         string
	Name       string
	Email      string
	FirstLogin bool
	PublicKey  string
}

// Video is a stored upload.
type Video struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	FileName    string
	Content     []byte
	WrappedKey  string
}

// Request is an access request and, once approved, its grant.
type Request struct {
	ID          string
	VideoID     string
	RequesterID string
	State       string
	GrantedKey  string
	RequestedAt time.Time
}

// Server is an httptest server implementing the sealreel API over maps.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tokens   map[string]*User
	videos   map[string]*Video
	requests map[string]*Request
	signer   *ecdsa.PrivateKey
	tamper   func([]byte) []byte
}

// NewServer starts a fake backend. Close it when done.
func NewServer() *Server {
	s := &Server{
		tokens:   make(map[string]*User),
		videos:   make(map[string]*Video),
		requests: make(map[string]*Request),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/users/me", s.auth(s.handleMe))
	mux.HandleFunc("POST /auth/users/me/public_key", s.auth(s.handlePublishKey))
	mux.HandleFunc("POST /auth/users/me/confirm_first_login", s.auth(s.handleConfirm))
	mux.HandleFunc("POST /videos/upload_video", s.auth(s.handleUpload))
	mux.HandleFunc("GET /videos/download/{id}", s.auth(s.handleDownload))
	mux.HandleFunc("POST /videos/request_access/{id}", s.auth(s.handleRequestAccess))
	mux.HandleFunc("GET /videos/requests", s.auth(s.handleRequests))
	mux.HandleFunc("POST /videos/approve_request/{id}", s.auth(s.handleApprove))
	mux.HandleFunc("POST /videos/reject_request/{id}", s.auth(s.handleReject))
	mux.HandleFunc("GET /videos/my_accessible_videos", s.auth(s.handleAccessible))

	s.Server = httptest.NewServer(mux)
	return s
}

// AddUser registers u and returns a bearer token for it.
func (s *Server) AddUser(u User) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	token := uuid.NewString()
	user := u
	s.tokens[token] = &user
	return token
}

// User returns a snapshot of the user holding token.
func (s *Server) User(token string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.tokens[token]; ok {
		return *u
	}
	return User{}
}

// Video returns a snapshot of a stored upload.
func (s *Server) Video(id string) (Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return Video{}, false
	}
	return *v, true
}

// Request returns a snapshot of an access request.
func (s *Server) Request(id string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return Request{}, false
	}
	return *r, true
}

// SignWith makes downloads carry a signature by key.
func (s *Server) SignWith(key *ecdsa.PrivateKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signer = key
}

// Tamper rewrites download bodies after signing.
func (s *Server) Tamper(fn func([]byte) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tamper = fn
}

type authedHandler func(w http.ResponseWriter, r *http.Request, u *User)

func (s *Server) auth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		u, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, u)
	}
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":          u.ID,
		"name":        u.Name,
		"email":       u.Email,
		"first_login": u.FirstLogin,
		"public_key":  u.PublicKey,
	})
}

func (s *Server) handlePublishKey(w http.ResponseWriter, r *http.Request, u *User) {
	var body struct {
		PublicKeyPEM string `json:"public_key_pem"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PublicKeyPEM == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "public_key_pem is required")
		return
	}
	s.mu.Lock()
	u.PublicKey = body.PublicKeyPEM
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfirm(w http.ResponseWriter, _ *http.Request, u *User) {
	s.mu.Lock()
	u.FirstLogin = false
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, u *User) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	wrapped := r.FormValue("key_cifrada")
	if wrapped == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "key_cifrada is required")
		return
	}

	v := &Video{
		ID:          uuid.NewString(),
		OwnerID:     u.ID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		Content:     content,
		WrappedKey:  wrapped,
	}
	s.mu.Lock()
	s.videos[v.ID] = v
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"video_id": v.ID})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Video not found")
		return
	}
	if v.OwnerID != u.ID && !s.grantedLocked(v.ID, u.ID) {
		writeDetail(w, http.StatusForbidden, "No access to this video")
		return
	}

	body := append([]byte(nil), v.Content...)
	if s.signer != nil {
		hash := sha256.Sum256([]byte(integrity.Digest(body)))
		if sig, err := ecdsa.SignASN1(rand.Reader, s.signer, hash[:]); err == nil {
			w.Header().Set("X-Content-Signature", base64.StdEncoding.EncodeToString(sig))
		}
	}
	if s.tamper != nil {
		body = s.tamper(body)
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleRequestAccess(w http.ResponseWriter, r *http.Request, u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Video not found")
		return
	}
	if v.OwnerID == u.ID {
		writeDetail(w, http.StatusBadRequest, "You own this video")
		return
	}
	req := &Request{
		ID:          uuid.NewString(),
		VideoID:     v.ID,
		RequesterID: u.ID,
		State:       "pending",
		RequestedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.requests[req.ID] = req
	writeJSON(w, http.StatusOK, map[string]string{"request_id": req.ID})
}

func (s *Server) handleRequests(w http.ResponseWriter, _ *http.Request, u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := []map[string]interface{}{}
	for _, req := range s.sortedRequestsLocked() {
		v := s.videos[req.VideoID]
		if v == nil || v.OwnerID != u.ID {
			continue
		}
		requester := s.userByIDLocked(req.RequesterID)
		items = append(items, map[string]interface{}{
			"id":                   req.ID,
			"state":                req.State,
			"requested_at":         req.RequestedAt,
			"requester_id":         req.RequesterID,
			"requester_name":       requester.Name,
			"requester_public_key": requester.PublicKey,
			"video_id":             v.ID,
			"video_title":          v.Title,
			"owner_wrapped_key":    v.WrappedKey,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, u *User) {
	var body struct {
		EncryptedKey string `json:"encrypted_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.EncryptedKey == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "encrypted_key is required")
		return
	}
	s.decide(w, r.PathValue("id"), u, "approved", body.EncryptedKey)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request, u *User) {
	s.decide(w, r.PathValue("id"), u, "rejected", "")
}

func (s *Server) decide(w http.ResponseWriter, id string, u *User, state, granted string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Request not found")
		return
	}
	if v := s.videos[req.VideoID]; v == nil || v.OwnerID != u.ID {
		writeDetail(w, http.StatusForbidden, "Not the owner of this video")
		return
	}
	if req.State != "pending" {
		writeDetail(w, http.StatusConflict, "Request already "+req.State)
		return
	}
	req.State = state
	req.GrantedKey = granted
	writeJSON(w, http.StatusOK, map[string]string{"status": state})
}

func (s *Server) handleAccessible(w http.ResponseWriter, _ *http.Request, u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.videos))
	for id := range s.videos {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := []map[string]interface{}{}
	for _, id := range ids {
		v := s.videos[id]
		item := map[string]interface{}{"id": v.ID, "title": v.Title, "is_owner": v.OwnerID == u.ID}
		switch {
		case v.OwnerID == u.ID:
			item["wrapped_key"] = v.WrappedKey
		case s.grantedLocked(v.ID, u.ID):
			item["granted_key"] = s.grantLocked(v.ID, u.ID)
		default:
			continue
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) grantedLocked(videoID, userID string) bool {
	return s.grantLocked(videoID, userID) != ""
}

func (s *Server) grantLocked(videoID, userID string) string {
	for _, req := range s.requests {
		if req.VideoID == videoID && req.RequesterID == userID && req.State == "approved" {
			return req.GrantedKey
		}
	}
	return ""
}

func (s *Server) userByIDLocked(id string) User {
	for _, u := range s.tokens {
		if u.ID == id {
			return *u
		}
	}
	return User{}
}

func (s *Server) sortedRequestsLocked() []*Request {
	out := make([]*Request, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
