package forge

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/Dogebooch/doughub/internal/card"
)

// DefaultUrgency fills the {urgency} placeholder when the record does not set one.
const DefaultUrgency = "routine"

// Generator deterministically derives practice cards from knowledge records.
type Generator struct{}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// ExpectedCount is the pre-generation preview of how many cards a record
// would produce.
type ExpectedCount struct {
	GoldenTicket int
	PracticeBank int
}

// IsForgeReady reports whether the record's golden-ticket field resolves to a
// non-empty value, directly or via the structured-data path.
func (g *Generator) IsForgeReady(record *KnowledgeRecord) bool {
	if strings.TrimSpace(record.GoldenTicketValue) != "" {
		return true
	}
	_, ok := record.StructuredData.Lookup(GoldenTicketField(record.Archetype))
	return ok
}

// ExpectedCardCount performs the same template resolution as GenerateCards
// without emitting cards. It agrees exactly with GenerateCards.
func (g *Generator) ExpectedCardCount(record *KnowledgeRecord) ExpectedCount {
	var count ExpectedCount
	g.resolve(record, func(tmpl CardTemplate, _, _ string) {
		if tmpl.GoldenTicket {
			count.GoldenTicket++
		} else {
			count.PracticeBank++
		}
	})
	return count
}

// GenerateCards derives the ordered list of insert-ready cards for a record.
// Persistence is the caller's responsibility. The golden-ticket card is
// created active and due today; all other cards start suspended.
func (g *Generator) GenerateCards(record *KnowledgeRecord, blockID string, now time.Time) []card.Card {
	templates := TemplatesFor(record.Archetype)
	if len(templates) == 0 {
		slog.Default().Warn("archetype has no card templates",
			slog.String("recordID", record.ID),
			slog.String("archetype", string(record.Archetype)),
		)
		return nil
	}

	var cards []card.Card
	g.resolve(record, func(tmpl CardTemplate, front, back string) {
		cardType := tmpl.CardType
		if tmpl.GoldenTicket {
			cardType, front = applyMediaOverride(record, cardType, front)
		}

		c := card.Card{
			ID:             uuid.NewString(),
			RecordID:       record.ID,
			TopicID:        record.TopicID,
			BlockID:        blockID,
			CardType:       cardType,
			Front:          front,
			Back:           back,
			IsGoldenTicket: tmpl.GoldenTicket,
			ReviewState:    card.ReviewStateNew,
			Status:         card.StatusSuspended,
			Tier:           card.TierInitial,
			Maturity:       card.MaturityNew,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if tmpl.GoldenTicket {
			// The golden ticket is active by construction, due on creation day.
			c.Status = card.StatusActive
			due := now
			c.DueDate = &due
			activatedAt := now
			c.ActivatedAt = &activatedAt
			c.Reasons = card.Reasons{"golden ticket"}
		}
		cards = append(cards, c)
	})
	return cards
}

// resolve runs the template interpreter, invoking emit once per card the
// record yields. Both preview and generation share this path.
func (g *Generator) resolve(record *KnowledgeRecord, emit func(tmpl CardTemplate, front, back string)) {
	for _, tmpl := range TemplatesFor(record.Archetype) {
		if tmpl.ConditionalField != "" {
			if _, ok := record.StructuredData.Lookup(tmpl.ConditionalField); !ok {
				continue
			}
		}

		backValue, ok := record.StructuredData.Lookup(tmpl.BackField)
		if !ok {
			if !tmpl.GoldenTicket || strings.TrimSpace(record.GoldenTicketValue) == "" {
				continue
			}
			backValue = record.GoldenTicketValue
		}

		emit(tmpl, g.buildFront(record, tmpl.FrontPattern), FormatBack(backValue))
	}
}

// buildFront substitutes the {title} and {urgency} placeholders.
func (g *Generator) buildFront(record *KnowledgeRecord, pattern string) string {
	urgency := DefaultUrgency
	if v, ok := record.StructuredData.Lookup("urgency"); ok {
		urgency = fmt.Sprintf("%v", v)
	}
	front := strings.ReplaceAll(pattern, "{title}", record.Title)
	return strings.ReplaceAll(front, "{urgency}", urgency)
}

// applyMediaOverride rewrites the golden-ticket card for image or audio
// records. Audio is evaluated after image, so it wins when both are present.
func applyMediaOverride(record *KnowledgeRecord, cardType, front string) (string, string) {
	if record.ImagePath != "" &&
		(record.Archetype == ArchetypeImagingFinding || record.Archetype == ArchetypeAnatomy) {
		cardType = CardTypeImageOcclusion
		front = fmt.Sprintf("Identify the finding: [image: %s]", record.ImagePath)
	}
	if record.AudioPath != "" {
		cardType = CardTypeAudioRecognition
		front = fmt.Sprintf("Identify the sound: [audio: %s]", record.AudioPath)
	}
	return cardType, front
}

// FormatBack renders a resolved back value as card text. Sequences render as
// bullet lines, nested key/value objects as bold-labeled sections, everything
// else via plain string conversion. Map keys are sorted so rendering is
// deterministic.
func FormatBack(value any) string {
	switch v := value.(type) {
	case []any:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			lines = append(lines, "- "+fmt.Sprintf("%v", item))
		}
		return strings.Join(lines, "\n")

	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sections := make([]string, 0, len(keys))
		for _, k := range keys {
			label := titleLabel(k)
			if seq, ok := v[k].([]any); ok {
				lines := make([]string, 0, len(seq)+1)
				lines = append(lines, fmt.Sprintf("**%s:**", label))
				for _, item := range seq {
					lines = append(lines, "- "+fmt.Sprintf("%v", item))
				}
				sections = append(sections, strings.Join(lines, "\n"))
				continue
			}
			sections = append(sections, fmt.Sprintf("**%s:** %v", label, v[k]))
		}
		return strings.Join(sections, "\n")

	default:
		return fmt.Sprintf("%v", value)
	}
}

// titleLabel turns a camelCase field key into a readable label
// ("blackBoxWarning" -> "Black Box Warning").
func titleLabel(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
