package forge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dogebooch/doughub/internal/card"
)

func drugRecord() *KnowledgeRecord {
	return &KnowledgeRecord{
		ID:        "rec-metoprolol",
		Archetype: ArchetypeDrug,
		Title:     "Metoprolol",
		TopicID:   "topic-cardio",
		StructuredData: StructuredData{
			"mechanismOfAction": "Selective beta-1 adrenergic antagonist",
			"indications":       []any{"hypertension", "angina", "heart failure"},
			"contraindications": "Severe bradycardia",
		},
	}
}

func TestGenerator_GenerateCards_Drug(t *testing.T) {
	g := NewGenerator()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	cards := g.GenerateCards(drugRecord(), "block-1", now)
	require.Len(t, cards, 3, "only fields present in the record yield cards")

	golden := cards[0]
	assert.True(t, golden.IsGoldenTicket)
	assert.Equal(t, CardTypeGoldenTicket, golden.CardType)
	assert.Equal(t, "What is the mechanism of action of Metoprolol?", golden.Front)
	assert.Equal(t, "Selective beta-1 adrenergic antagonist", golden.Back)
	assert.Equal(t, card.StatusActive, golden.Status)
	assert.Equal(t, card.TierInitial, golden.Tier)
	assert.Equal(t, card.Reasons{"golden ticket"}, golden.Reasons)
	require.NotNil(t, golden.DueDate)
	assert.Equal(t, now, *golden.DueDate)

	indications := cards[1]
	assert.Equal(t, "indications", indications.CardType)
	assert.Equal(t, "- hypertension\n- angina\n- heart failure", indications.Back)
	assert.Equal(t, card.StatusSuspended, indications.Status)
	assert.Nil(t, indications.DueDate)

	contraindications := cards[2]
	assert.Equal(t, "contraindications", contraindications.CardType)
	assert.Equal(t, card.StatusSuspended, contraindications.Status)

	for _, c := range cards {
		assert.Equal(t, "rec-metoprolol", c.RecordID)
		assert.Equal(t, "block-1", c.BlockID)
		assert.Equal(t, card.ReviewStateNew, c.ReviewState)
		assert.Equal(t, card.MaturityNew, c.Maturity)
	}
}

func TestGenerator_ExpectedCardCount_AgreesWithGenerateCards(t *testing.T) {
	g := NewGenerator()
	now := time.Now()

	tests := []struct {
		name   string
		record *KnowledgeRecord
	}{
		{
			name:   "drug with partial fields",
			record: drugRecord(),
		},
		{
			name: "golden ticket value only",
			record: &KnowledgeRecord{
				ID:                "rec-1",
				Archetype:         ArchetypeGenericConcept,
				Title:             "Frank-Starling law",
				GoldenTicketValue: "Stroke volume rises with end-diastolic volume",
			},
		},
		{
			name: "all illness script fields",
			record: &KnowledgeRecord{
				ID:        "rec-2",
				Archetype: ArchetypeIllnessScript,
				Title:     "Pulmonary embolism",
				StructuredData: StructuredData{
					"keyFeatures":     "Pleuritic chest pain, dyspnea, tachycardia",
					"pathophysiology": "Thrombus obstructing pulmonary arteries",
					"workup":          []any{"D-dimer", "CT angiography"},
					"management":      "Anticoagulation",
					"urgency":         "emergent",
				},
			},
		},
		{
			name: "unknown archetype yields nothing",
			record: &KnowledgeRecord{
				ID:        "rec-3",
				Archetype: Archetype("spell"),
				Title:     "Nonsense",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := g.ExpectedCardCount(tt.record)
			cards := g.GenerateCards(tt.record, "", now)

			golden := 0
			for _, c := range cards {
				if c.IsGoldenTicket {
					golden++
				}
			}
			assert.Equal(t, count.GoldenTicket, golden)
			assert.Equal(t, count.PracticeBank, len(cards)-golden)
		})
	}
}

func TestGenerator_MediaOverrides(t *testing.T) {
	g := NewGenerator()
	now := time.Now()

	tests := []struct {
		name         string
		record       *KnowledgeRecord
		wantCardType string
		wantFront    string
	}{
		{
			name: "imaging finding with image becomes occlusion card",
			record: &KnowledgeRecord{
				ID:             "rec-img",
				Archetype:      ArchetypeImagingFinding,
				Title:          "Pneumothorax",
				StructuredData: StructuredData{"finding": "Visible pleural line with absent lung markings"},
				ImagePath:      "media/ptx.png",
			},
			wantCardType: CardTypeImageOcclusion,
			wantFront:    "Identify the finding: [image: media/ptx.png]",
		},
		{
			name: "drug with image keeps text front",
			record: &KnowledgeRecord{
				ID:             "rec-drug",
				Archetype:      ArchetypeDrug,
				Title:          "Amiodarone",
				StructuredData: StructuredData{"mechanismOfAction": "Class III antiarrhythmic"},
				ImagePath:      "media/amio.png",
			},
			wantCardType: CardTypeGoldenTicket,
			wantFront:    "What is the mechanism of action of Amiodarone?",
		},
		{
			name: "audio overrides image when both present",
			record: &KnowledgeRecord{
				ID:             "rec-murmur",
				Archetype:      ArchetypeImagingFinding,
				Title:          "Aortic stenosis murmur",
				StructuredData: StructuredData{"finding": "Crescendo-decrescendo systolic murmur"},
				ImagePath:      "media/as.png",
				AudioPath:      "media/as.mp3",
			},
			wantCardType: CardTypeAudioRecognition,
			wantFront:    "Identify the sound: [audio: media/as.mp3]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := g.GenerateCards(tt.record, "", now)
			require.NotEmpty(t, cards)
			assert.Equal(t, tt.wantCardType, cards[0].CardType)
			assert.Equal(t, tt.wantFront, cards[0].Front)
		})
	}
}

func TestGenerator_IsForgeReady(t *testing.T) {
	g := NewGenerator()

	tests := []struct {
		name   string
		record *KnowledgeRecord
		want   bool
	}{
		{
			name: "structured golden field present",
			record: &KnowledgeRecord{
				Archetype:      ArchetypeDrug,
				StructuredData: StructuredData{"mechanismOfAction": "ACE inhibition"},
			},
			want: true,
		},
		{
			name: "explicit golden ticket value",
			record: &KnowledgeRecord{
				Archetype:         ArchetypeDrug,
				GoldenTicketValue: "ACE inhibition",
			},
			want: true,
		},
		{
			name: "empty structured value does not count",
			record: &KnowledgeRecord{
				Archetype:      ArchetypeDrug,
				StructuredData: StructuredData{"mechanismOfAction": "  "},
			},
			want: false,
		},
		{
			name:   "nothing set",
			record: &KnowledgeRecord{Archetype: ArchetypeDrug},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.IsForgeReady(tt.record))
		})
	}
}

func TestFormatBack(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{
			name:  "plain string",
			value: "Beta blockade",
			want:  "Beta blockade",
		},
		{
			name:  "sequence renders bullets",
			value: []any{"nausea", "bradycardia"},
			want:  "- nausea\n- bradycardia",
		},
		{
			name: "nested object renders sorted labeled sections",
			value: map[string]any{
				"firstLine":  "IV fluids",
				"definitive": []any{"surgery", "drainage"},
			},
			want: "**Definitive:**\n- surgery\n- drainage\n**First Line:** IV fluids",
		},
		{
			name:  "number falls through",
			value: 42,
			want:  "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBack(tt.value))
		})
	}
}

func TestStructuredData_Lookup(t *testing.T) {
	data := StructuredData{
		"dosing": map[string]any{
			"renal": map[string]any{"crcl30": "reduce by half"},
		},
		"empty": "",
	}

	v, ok := data.Lookup("dosing.renal.crcl30")
	require.True(t, ok)
	assert.Equal(t, "reduce by half", v)

	_, ok = data.Lookup("dosing.hepatic")
	assert.False(t, ok)

	_, ok = data.Lookup("empty")
	assert.False(t, ok, "empty values resolve as missing")
}
