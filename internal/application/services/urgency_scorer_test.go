package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Patientbookingtriage/internal/application/services"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

func TestUrgencyScorer_EmptyResponseIsLow(t *testing.T) {
	scorer := services.NewDefaultUrgencyScorer()

	score := scorer.Score(entities.TriageResponse{})

	assert.Equal(t, 0, score.Points)
	assert.Equal(t, entities.UrgencyLow, score.Label)
	assert.Equal(t, "#4CAF50", score.Color)
	assert.Empty(t, score.Breakdown)
}

func TestUrgencyScorer_Thresholds(t *testing.T) {
	scorer := services.NewDefaultUrgencyScorer()

	testCases := []struct {
		name     string
		resp     entities.TriageResponse
		points   int
		expected entities.UrgencyLabel
	}{
		{
			name: "exactly five",
			resp: entities.TriageResponse{
				services.QuestionPainIntensity:   entities.TextAnswer("Forte"),
				services.QuestionSymptomDuration: entities.TextAnswer("1 a 3 dias"),
			},
			points:   5,
			expected: entities.UrgencyMedium,
		},
		{
			name: "exactly ten",
			resp: entities.TriageResponse{
				services.QuestionAlertSymptoms: entities.ListAnswer("Dor no peito", "Falta de ar"),
			},
			points:   10,
			expected: entities.UrgencyHigh,
		},
		{
			name: "exactly fifteen",
			resp: entities.TriageResponse{
				services.QuestionAlertSymptoms: entities.ListAnswer("Dor no peito", "Falta de ar", "Desmaio ou perda de consciência"),
			},
			points:   15,
			expected: entities.UrgencyEmergency,
		},
		{
			name: "just below five",
			resp: entities.TriageResponse{
				services.QuestionPainIntensity: entities.TextAnswer("Forte"),
			},
			points:   4,
			expected: entities.UrgencyLow,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			score := scorer.Score(tc.resp)
			assert.Equal(t, tc.points, score.Points)
			assert.Equal(t, tc.expected, score.Label)
			assert.Equal(t, tc.expected.Color(), score.Color)
		})
	}
}

func TestUrgencyScorer_SymptomKeywords(t *testing.T) {
	scorer := services.NewDefaultUrgencyScorer()
	choices := entities.TriageResponse{
		services.QuestionPainIntensity: entities.TextAnswer("Moderada"),
	}
	withText := choices.Clone()
	withText[services.QuestionMainSymptom] = entities.TextAnswer("Senti DOR NO PEITO e tive um desmaio, outro desmaio ontem")

	base := scorer.Score(choices)
	score := scorer.Score(withText)

	assert.GreaterOrEqual(t, score.Points-base.Points, 4)
	assert.Contains(t, score.Breakdown, entities.ScoreContribution{Rule: "symptom_keywords", QuestionID: services.QuestionMainSymptom, Points: 4})
}

func TestUrgencyScorer_MedicationAndImpact(t *testing.T) {
	scorer := services.NewDefaultUrgencyScorer()

	meds := scorer.Score(entities.TriageResponse{
		services.QuestionCurrentMedications: entities.TextAnswer("Varfarina e insulina"),
	})
	assert.Equal(t, 2, meds.Points)

	severe := scorer.Score(entities.TriageResponse{
		services.QuestionDailyImpact: entities.TextAnswer("Tenho dificuldade e não consigo sair da cama"),
	})
	assert.Equal(t, 3, severe.Points)

	moderate := scorer.Score(entities.TriageResponse{
		services.QuestionDailyImpact: entities.TextAnswer("Alguma dificuldade no trabalho"),
	})
	assert.Equal(t, 1, moderate.Points)
}

func TestUrgencyScorer_MultiChoiceSumsDistinctSelections(t *testing.T) {
	scorer := services.NewDefaultUrgencyScorer()

	score := scorer.Score(entities.TriageResponse{
		services.QuestionMedicalHistory: entities.ListAnswer("Diabetes", "Doença cardíaca", "Diabetes", "Inventada"),
	})

	assert.Equal(t, 3, score.Points)
}

func TestUrgencyScorer_Deterministic(t *testing.T) {
	scorer := services.NewDefaultUrgencyScorer()
	resp := entities.TriageResponse{
		services.QuestionMainSymptom:        entities.TextAnswer("sangramento e vómito"),
		services.QuestionPainIntensity:      entities.TextAnswer("Insuportável"),
		services.QuestionMedicalHistory:     entities.ListAnswer("Hipertensão", "Gravidez"),
		services.QuestionAlertSymptoms:      entities.ListAnswer("Febre alta (acima de 39 °C)"),
		services.QuestionCurrentMedications: entities.TextAnswer("heparina"),
		services.QuestionDailyImpact:        entities.TextAnswer("acamado"),
	}

	first := scorer.Score(resp)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, scorer.Score(resp))
	}
	assert.Equal(t, 4+6+3+3+2+3, first.Points)
	assert.Equal(t, entities.UrgencyEmergency, first.Label)
}

func TestUrgencyScorer_Monotonic(t *testing.T) {
	scorer := services.NewDefaultUrgencyScorer()
	base := entities.TriageResponse{
		services.QuestionMainSymptom:   entities.TextAnswer("dor de cabeça"),
		services.QuestionAlertSymptoms: entities.ListAnswer("Febre alta (acima de 39 °C)"),
	}
	before := scorer.Score(base).Points

	withOption := base.Clone()
	withOption[services.QuestionAlertSymptoms] = entities.ListAnswer("Febre alta (acima de 39 °C)", "Dor no peito")
	assert.GreaterOrEqual(t, scorer.Score(withOption).Points, before)

	withKeyword := base.Clone()
	withKeyword[services.QuestionMainSymptom] = entities.TextAnswer("dor de cabeça grave")
	assert.GreaterOrEqual(t, scorer.Score(withKeyword).Points, before)
}

func TestUrgencyScorer_ChoiceWeightOverrides(t *testing.T) {
	rules := services.DefaultTriageRules()
	rules.ChoiceWeights = map[string][]int{services.QuestionPainIntensity: {0, 0, 0, 0, 10}}

	scorer, err := services.NewUrgencyScorer(services.DefaultTriageQuestions(), rules)
	require.NoError(t, err)

	score := scorer.Score(entities.TriageResponse{services.QuestionPainIntensity: entities.TextAnswer("Insuportável")})
	assert.Equal(t, 10, score.Points)

	q, ok := scorer.Question(services.QuestionPainIntensity)
	require.True(t, ok)
	assert.Equal(t, 10, q.Options[4].Weight)
	assert.Equal(t, 6, services.DefaultTriageQuestions()[2].Options[4].Weight)
}

func TestNewUrgencyScorer_RejectsBadInput(t *testing.T) {
	rules := services.DefaultTriageRules()
	rules.SymptomKeywords.QuestionID = "unknown"
	_, err := services.NewUrgencyScorer(services.DefaultTriageQuestions(), rules)
	assert.Error(t, err)

	questions := append(services.DefaultTriageQuestions(), services.DefaultTriageQuestions()[0])
	_, err = services.NewUrgencyScorer(questions, services.DefaultTriageRules())
	assert.Error(t, err)
}

func TestUrgencyScorer_ValidateAnswer(t *testing.T) {
	scorer := services.NewDefaultUrgencyScorer()

	assert.NoError(t, scorer.ValidateAnswer(services.QuestionMainSymptom, entities.TextAnswer("febre")))
	assert.NoError(t, scorer.ValidateAnswer(services.QuestionPainIntensity, entities.TextAnswer("Leve")))
	assert.NoError(t, scorer.ValidateAnswer(services.QuestionAlertSymptoms, entities.ListAnswer("Dor no peito", "Nenhum")))

	invalid := []struct {
		id     string
		answer entities.TriageAnswer
	}{
		{"unknown", entities.TextAnswer("x")},
		{services.QuestionMainSymptom, entities.ListAnswer("a", "b")},
		{services.QuestionPainIntensity, entities.TextAnswer("Enorme")},
		{services.QuestionPainIntensity, entities.ListAnswer("Leve")},
		{services.QuestionAlertSymptoms, entities.ListAnswer("Dor no peito", "Tosse")},
	}
	for _, tc := range invalid {
		err := scorer.ValidateAnswer(tc.id, tc.answer)
		require.Error(t, err, tc.id)
		assert.Equal(t, apperrors.ReasonInvalidAnswer, apperrors.ReasonOf(err))
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	}
}
