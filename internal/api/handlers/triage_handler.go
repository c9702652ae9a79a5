package handlers

import (
	"net/http"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

// TriageScorer scores triage answers without a booking session
type TriageScorer interface {
	Questions() []entities.TriageQuestion
	ValidateAnswer(questionID string, answer entities.TriageAnswer) error
	Score(responses entities.TriageResponse) entities.UrgencyScore
}

// TriageHandler handles triage questionnaire HTTP requests
type TriageHandler struct {
	scorer TriageScorer
}

// NewTriageHandler creates a new triage handler
func NewTriageHandler(scorer TriageScorer) *TriageHandler {
	return &TriageHandler{scorer: scorer}
}

type scoreRequest struct {
	Answers entities.TriageResponse `json:"answers" validate:"required"`
}

// ListQuestions handles GET /api/triage/questions
func (h *TriageHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions := h.scorer.Questions()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
		"count":     len(questions),
	})
}

// Score handles POST /api/triage/score. Blank answers are ignored.
func (h *TriageHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	responses := make(entities.TriageResponse, len(req.Answers))
	for id, answer := range req.Answers {
		if answer.IsEmpty() {
			continue
		}
		if err := h.scorer.ValidateAnswer(id, answer); err != nil {
			if appErr, ok := apperrors.As(err); ok && appErr.Err != nil {
				respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: appErr.Err.Error(), Reason: string(appErr.Reason)})
				return
			}
			respondWithAppError(w, r, err)
			return
		}
		responses[id] = answer
	}

	respondWithJSON(w, http.StatusOK, h.scorer.Score(responses))
}
