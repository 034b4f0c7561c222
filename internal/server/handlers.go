package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/analysis"
	"github.com/healinggarden/kokoro/internal/models"
	"github.com/healinggarden/kokoro/internal/store"
)

type embedRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	result, err := s.searcher.Embed(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("embedding failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"embedding": result.Vector,
		"dimension": result.Dimension,
		"model":     result.Model,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(query.Query) == "" || query.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "query and user_id are required")
		return
	}
	limit := query.Limit
	if limit == 0 {
		limit = s.config.Search.DefaultLimit
	}
	if limit > s.config.Search.MaxLimit {
		limit = s.config.Search.MaxLimit
	}
	s.logger.Debug("search request",
		zap.String("user_id", query.UserID), zap.Int("limit", limit))

	start := time.Now()
	results, err := s.searcher.Search(r.Context(), query.Query, query.UserID, limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &models.SearchResponse{
		Results: results,
		TookMS:  time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	result, err := s.analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("sentiment analysis failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

type emotionalAnalysisRequest struct {
	Entries []string `json:"entries"`
}

type emotionalAnalysisResponse struct {
	models.BatchSentiment
	RiskFlags []string `json:"risk_flags"`
}

// minEntriesForRiskFlags is the smallest batch risk flags are raised for.
// Smaller batches are too noisy to call a sustained trend.
const minEntriesForRiskFlags = 6

func (s *Server) handleEmotionalAnalysis(w http.ResponseWriter, r *http.Request) {
	var req emotionalAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Entries) == 0 {
		s.respondError(w, http.StatusBadRequest, "entries are required")
		return
	}
	batch, err := analysis.AnalyzeBatch(r.Context(), s.analyzer, req.Entries)
	if err != nil {
		s.logger.Error("emotional analysis failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := emotionalAnalysisResponse{BatchSentiment: *batch}
	if batch.EntryCount >= minEntriesForRiskFlags {
		resp.RiskFlags = analysis.RiskFlags(batch.OverallSentiment)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type summarizeRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	maxLen := req.MaxLength
	if maxLen <= 0 {
		maxLen = 200
	}
	summary, err := s.summarizer.Summarize(r.Context(), req.Text, maxLen)
	if err != nil {
		s.logger.Error("summarization failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &models.Summary{
		Summary:        summary,
		OriginalLength: len(req.Text),
		SummaryLength:  len(summary),
	})
}

type questionsRequest struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	var req questionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	questions, err := s.questions.Generate(r.Context(), req.UserID, req.Count)
	if err != nil {
		s.logger.Error("question generation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

type createEntryRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	Mood   string `json:"mood"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || strings.TrimSpace(req.Text) == "" {
		s.respondError(w, http.StatusBadRequest, "user_id and text are required")
		return
	}

	entry := &models.Entry{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Text:      req.Text,
		Mood:      req.Mood,
		CreatedAt: time.Now(),
	}

	embedded, err := s.searcher.Embed(r.Context(), req.Text)
	if err != nil {
		// The entry is still worth keeping; embedding can be backfilled.
		s.logger.Warn("entry embedding failed", zap.Error(err))
	} else {
		entry.Embedding = embedded.Vector
	}

	if sentiment, err := s.analyzer.Analyze(r.Context(), req.Text); err == nil {
		entry.Sentiment = sentiment.Sentiment
		entry.SentimentScore = sentiment.Score
	}

	if err := s.store.CreateEntry(r.Context(), entry); err != nil {
		s.logger.Error("entry creation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if entry.HasEmbedding() {
		err := s.index.Add(r.Context(),
			[]string{entry.ID},
			[][]float32{entry.Embedding},
			[]map[string]string{{"user_id": entry.UserID}},
		)
		if err != nil {
			s.logger.Error("index add failed", zap.String("entry_id", entry.ID), zap.Error(err))
		}
	}

	s.respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := s.store.GetEntry(r.Context(), id)
	if err != nil || entry.DeletedAt != nil {
		s.respondError(w, http.StatusNotFound, "entry not found")
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete entry request", zap.String("id", id))
	if err := s.store.SoftDeleteEntry(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.logger.Error("entry deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.index.Remove(r.Context(), []string{id}); err != nil {
		s.logger.Error("index remove failed", zap.String("entry_id", id), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	profile, err := s.aggregator.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "profile not found")
			return
		}
		s.logger.Error("profile load failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleRefreshProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	profile, err := s.aggregator.Refresh(r.Context(), userID)
	if err != nil {
		s.logger.Error("profile refresh failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if profile == nil {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "skipped", "reason": "no recent entries"})
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	entryCount, err := s.store.CountEntries(r.Context())
	if err != nil {
		s.logger.Error("status: count entries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats := s.index.Stats()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entryCount,
		"index": map[string]interface{}{
			"total_vectors": stats.TotalVectors,
			"unique_ids":    stats.UniqueIDs,
			"dimension":     stats.Dimension,
			"backend":       stats.Backend,
		},
		"config": map[string]interface{}{
			"embedding_provider":   s.config.Embedding.Provider,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"candidate_limit":      s.config.Search.CandidateLimit,
			"database_path":        s.config.Storage.DatabasePath,
			"index_path":           s.config.Storage.IndexPath,
		},
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
