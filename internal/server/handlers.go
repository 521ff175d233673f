package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jonathan/context-matcher/internal/matching"
	"github.com/jonathan/context-matcher/internal/types"
)

// maxBodyBytes caps request bodies; a pool of a few thousand 768-dim embeddings fits
const maxBodyBytes = 32 << 20

// ScoreRequest represents the request body for /score
type ScoreRequest struct {
	User              *types.ContextWindow `json:"user"`
	Candidate         *types.ContextWindow `json:"candidate"`
	SharedCommunities int                  `json:"shared_communities"`
}

// ScoreResponse represents the response for /score
type ScoreResponse struct {
	types.MatchScore
	IsMatch       bool   `json:"is_match"`
	PrimaryReason string `json:"primary_reason"`
}

// TopMatchesRequest represents the request body for /top-matches
type TopMatchesRequest struct {
	User              *types.ContextWindow  `json:"user"`
	Candidates        []types.ContextWindow `json:"candidates"`
	SharedCommunities map[string]int        `json:"shared_communities,omitempty"`

	// Limit defaults to matching.DefaultLimit when omitted; 0 returns no matches
	Limit *int `json:"limit,omitempty"`
}

// handleScore scores one candidate against the user
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	score, err := matching.CalculateMatchScore(req.User, req.Candidate, req.SharedCommunities)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.CandidatesScored.Inc()

	resp := ScoreResponse{
		MatchScore:    *score,
		IsMatch:       score.TotalScore >= matching.MatchThreshold,
		PrimaryReason: matching.PrimaryMatchReason(score.Breakdown),
	}

	resp.Reason = resp.PrimaryReason
	if s.explainer != nil {
		reason, err := s.explainer.MatchReason(r.Context(), req.User, req.Candidate, *score)
		if err != nil {
			s.logger.Warn("using fallback match reason", "request_id", r.Header.Get(requestIDHeader), "error", err)
		}
		resp.Reason = reason
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleTopMatches ranks a candidate pool for the user
func (s *Server) handleTopMatches(w http.ResponseWriter, r *http.Request) {
	var req TopMatchesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	limit := matching.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	workers := max(min(s.workers, len(req.Candidates)), 1)
	matches, err := matching.FindTopMatchesConcurrent(r.Context(), req.User, req.Candidates, req.SharedCommunities, limit, workers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.CandidatesScored.Add(float64(len(req.Candidates)))
	s.metrics.MatchesReturned.Observe(float64(len(matches)))

	if s.explainer != nil {
		profiles := make(map[string]*types.ContextWindow, len(req.Candidates))
		for i := range req.Candidates {
			profiles[req.Candidates[i].UserID] = &req.Candidates[i]
		}
		s.explainer.Annotate(r.Context(), req.User, matches, profiles)
	} else {
		for i := range matches {
			matches[i].Reason = matching.PrimaryMatchReason(matches[i].Breakdown)
		}
	}

	s.jsonResponse(w, http.StatusOK, types.MatchResults{
		UserID:  req.User.UserID,
		Matches: matches,
	})
}

func (req *ScoreRequest) validate() error {
	if err := validateProfile("user", req.User); err != nil {
		return err
	}
	if err := validateProfile("candidate", req.Candidate); err != nil {
		return err
	}
	if req.SharedCommunities < 0 {
		return &ErrValidation{Field: "shared_communities", Message: "must not be negative"}
	}
	return nil
}

func (req *TopMatchesRequest) validate() error {
	if err := validateProfile("user", req.User); err != nil {
		return err
	}
	for i := range req.Candidates {
		if err := validateProfile(fmt.Sprintf("candidates[%d]", i), &req.Candidates[i]); err != nil {
			return err
		}
	}
	for id, n := range req.SharedCommunities {
		if n < 0 {
			return &ErrValidation{Field: "shared_communities." + id, Message: "must not be negative"}
		}
	}
	if req.Limit != nil && *req.Limit < 0 {
		return &ErrValidation{Field: "limit", Message: "must not be negative"}
	}
	return nil
}

func validateProfile(field string, cw *types.ContextWindow) error {
	if cw == nil {
		return &ErrValidation{Field: field, Message: "is required"}
	}
	if err := cw.Validate(); err != nil {
		return &ErrValidation{Field: field, Message: err.Error()}
	}
	return nil
}

// decodeJSON decodes a single JSON object from the request body
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return &ErrInvalidBody{Cause: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &ErrInvalidBody{Cause: errors.New("body must contain a single JSON object")}
	}
	return nil
}
