package services

import "github.com/zatekoja/Patientbookingtriage/internal/domain/entities"

// Question IDs referenced by the scoring rules
const (
	QuestionMainSymptom        = "main_symptom"
	QuestionSymptomDuration    = "symptom_duration"
	QuestionPainIntensity      = "pain_intensity"
	QuestionMedicalHistory     = "medical_history"
	QuestionCurrentMedications = "current_medications"
	QuestionAlertSymptoms      = "alert_symptoms"
	QuestionDailyImpact        = "daily_impact"
	QuestionAdditionalInfo     = "additional_info"
)

var triageQuestions = []entities.TriageQuestion{
	{
		ID:       QuestionMainSymptom,
		Prompt:   "Descreva o principal sintoma ou motivo da consulta.",
		Category: entities.TriageCategoryCurrentSymptoms,
		Kind:     entities.QuestionKindFreeText,
	},
	{
		ID:       QuestionSymptomDuration,
		Prompt:   "Há quanto tempo sente estes sintomas?",
		Category: entities.TriageCategoryCurrentSymptoms,
		Kind:     entities.QuestionKindSingleChoice,
		Options: []entities.QuestionOption{
			{Label: "Menos de 24 horas", Weight: 2},
			{Label: "1 a 3 dias", Weight: 1},
			{Label: "4 a 7 dias", Weight: 1},
			{Label: "Mais de uma semana", Weight: 0},
		},
	},
	{
		ID:       QuestionPainIntensity,
		Prompt:   "Como classifica a intensidade da dor?",
		Category: entities.TriageCategoryCurrentSymptoms,
		Kind:     entities.QuestionKindSingleChoice,
		Options: []entities.QuestionOption{
			{Label: "Sem dor", Weight: 0},
			{Label: "Leve", Weight: 1},
			{Label: "Moderada", Weight: 2},
			{Label: "Forte", Weight: 4},
			{Label: "Insuportável", Weight: 6},
		},
	},
	{
		ID:       QuestionMedicalHistory,
		Prompt:   "Tem alguma destas condições de saúde?",
		Category: entities.TriageCategoryMedicalHistory,
		Kind:     entities.QuestionKindMultiChoice,
		Options: []entities.QuestionOption{
			{Label: "Hipertensão", Weight: 1},
			{Label: "Diabetes", Weight: 1},
			{Label: "Doença cardíaca", Weight: 2},
			{Label: "Doença respiratória crónica", Weight: 2},
			{Label: "Gravidez", Weight: 2},
			{Label: "Nenhuma", Weight: 0},
		},
	},
	{
		ID:       QuestionCurrentMedications,
		Prompt:   "Que medicamentos toma atualmente?",
		Category: entities.TriageCategoryRiskFactors,
		Kind:     entities.QuestionKindFreeText,
	},
	{
		ID:       QuestionAlertSymptoms,
		Prompt:   "Apresenta algum destes sintomas?",
		Category: entities.TriageCategoryAlertSymptoms,
		Kind:     entities.QuestionKindMultiChoice,
		Options: []entities.QuestionOption{
			{Label: "Dor no peito", Weight: 5},
			{Label: "Falta de ar", Weight: 5},
			{Label: "Desmaio ou perda de consciência", Weight: 5},
			{Label: "Sangramento intenso", Weight: 4},
			{Label: "Confusão mental", Weight: 4},
			{Label: "Febre alta (acima de 39 °C)", Weight: 3},
			{Label: "Nenhum", Weight: 0},
		},
	},
	{
		ID:       QuestionDailyImpact,
		Prompt:   "Como estes sintomas afetam a sua rotina diária?",
		Category: entities.TriageCategoryLifeImpact,
		Kind:     entities.QuestionKindFreeText,
	},
	{
		ID:       QuestionAdditionalInfo,
		Prompt:   "Há mais alguma informação que queira partilhar?",
		Category: entities.TriageCategoryAdditionalInfo,
		Kind:     entities.QuestionKindFreeText,
	},
}

// DefaultTriageQuestions returns the ordered questionnaire. Callers receive
// copies and cannot alter the catalog.
func DefaultTriageQuestions() []entities.TriageQuestion {
	out := make([]entities.TriageQuestion, len(triageQuestions))
	for i, q := range triageQuestions {
		out[i] = q.Clone()
	}
	return out
}
