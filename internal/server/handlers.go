package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/blog-agent/internal/db"
	"github.com/jonathan/blog-agent/internal/jobs"
)

// requestValidator wraps struct validation for request bodies.
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// decode reads a JSON body into dst and validates it. The returned error
// message is safe to show to the client.
func (rv *requestValidator) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	if err := rv.v.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fmt.Errorf("invalid field %s: failed %s validation", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid request: %v", err)
	}
	return nil
}

// GenerateRequest submits a new generation job.
type GenerateRequest struct {
	ChannelName string `json:"channel_name" validate:"required,min=1,max=200"`
	VideoTitle  string `json:"video_title" validate:"required,min=1,max=300"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// GenerateResponse acknowledges a submitted job.
type GenerateResponse struct {
	JobID  uuid.UUID    `json:"job_id"`
	Status db.JobStatus `json:"status"`
}

// handleGenerate accepts a job, persists it as queued, and starts the
// worker in the background. The response returns before any work happens.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := s.validate.decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	job, err := s.store.CreateJob(r.Context(), req.ChannelName, req.VideoTitle, email)
	if err != nil {
		log.Printf("[SERVER] failed to create job: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	tracker := jobs.NewTracker(s.store, job)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobRunTimeout)
		defer cancel()
		if err := s.runner.Run(ctx, tracker, job); err != nil {
			log.Printf("[SERVER] job %s finished with error: %v", job.ID, err)
		}
	}()

	s.jsonResponse(w, http.StatusAccepted, GenerateResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// StatusResponse reports a job's progress. The post is embedded once the
// job completes.
type StatusResponse struct {
	JobID    uuid.UUID    `json:"job_id"`
	Status   db.JobStatus `json:"status"`
	Progress int          `json:"progress"`
	Phase    string       `json:"phase,omitempty"`
	Error    string       `json:"error,omitempty"`
	VideoID  string       `json:"video_id,omitempty"`
	Post     *db.BlogPost `json:"post,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		log.Printf("[SERVER] failed to get job %s: %v", id, err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to get job")
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "job not found")
		return
	}

	resp := StatusResponse{
		JobID:    job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.Phase != nil {
		resp.Phase = *job.Phase
	}
	if job.ErrorMessage != nil {
		resp.Error = *job.ErrorMessage
	}
	if job.VideoID != nil {
		resp.VideoID = *job.VideoID
	}

	if job.Status == db.JobStatusCompleted {
		post, err := s.store.GetPostByJob(r.Context(), job.ID)
		if err != nil {
			log.Printf("[SERVER] failed to load post for job %s: %v", job.ID, err)
		} else {
			resp.Post = post
		}
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	list, err := s.store.ListJobs(r.Context(), limit)
	if err != nil {
		log.Printf("[SERVER] failed to list jobs: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"jobs":  list,
		"count": len(list),
	})
}

// QueryRequest searches the article index by semantic similarity.
type QueryRequest struct {
	Query string `json:"query" validate:"required,min=1,max=1000"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=20"`
}

// QueryResponse returns ranked chunk matches.
type QueryResponse struct {
	Results []db.ChunkMatch `json:"results"`
	Count   int             `json:"count"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := s.validate.decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = 5
	}

	vector, err := s.embedder.EmbedText(r.Context(), req.Query)
	if err != nil {
		log.Printf("[SERVER] failed to embed query: %v", err)
		s.errorResponse(w, http.StatusBadGateway, "failed to embed query")
		return
	}

	matches, err := s.store.SearchChunks(r.Context(), vector, req.Limit)
	if err != nil {
		log.Printf("[SERVER] chunk search failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "search failed")
		return
	}
	if matches == nil {
		matches = []db.ChunkMatch{}
	}

	s.jsonResponse(w, http.StatusOK, QueryResponse{
		Results: matches,
		Count:   len(matches),
	})
}

// EmailRequest sends an arbitrary email through the configured mailer.
type EmailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=1,max=300"`
	Body    string `json:"body" validate:"required"`
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := s.validate.decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.mailer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "mail delivery is not configured")
		return
	}

	if err := s.mailer.Send(r.Context(), req.To, req.Subject, req.Body); err != nil {
		log.Printf("[SERVER] email send failed: %v", err)
		s.errorResponse(w, http.StatusBadGateway, "failed to send email")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "sent"})
}
