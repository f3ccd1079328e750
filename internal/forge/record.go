// Package forge derives practice cards from structured knowledge records.
package forge

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for the forge package. Check with errors.Is.
var (
	ErrRecordNotFound = errors.New("forge: record not found")
	ErrAlreadyForged  = errors.New("forge: record already forged")
	ErrNotForgeReady  = errors.New("forge: record is missing its golden ticket value")
)

// Archetype is a fixed category of knowledge record. It determines which
// card templates apply and which field answers the defining question.
type Archetype string

const (
	ArchetypeIllnessScript  Archetype = "illness-script"
	ArchetypeDrug           Archetype = "drug"
	ArchetypePathogen       Archetype = "pathogen"
	ArchetypePresentation   Archetype = "presentation"
	ArchetypeImagingFinding Archetype = "imaging-finding"
	ArchetypeDiagnostic     Archetype = "diagnostic"
	ArchetypeProcedure      Archetype = "procedure"
	ArchetypeAnatomy        Archetype = "anatomy"
	ArchetypeAlgorithm      Archetype = "algorithm"
	ArchetypeGenericConcept Archetype = "generic-concept"
)

// IsValid reports whether a is one of the declared archetypes.
func (a Archetype) IsValid() bool {
	switch a {
	case ArchetypeIllnessScript, ArchetypeDrug, ArchetypePathogen,
		ArchetypePresentation, ArchetypeImagingFinding, ArchetypeDiagnostic,
		ArchetypeProcedure, ArchetypeAnatomy, ArchetypeAlgorithm,
		ArchetypeGenericConcept:
		return true
	}
	return false
}

// StructuredData is the archetype-specific nested key/value tree of a record.
// It serializes as JSON text in the relational layer.
type StructuredData map[string]any

// Value implements driver.Valuer.
func (d StructuredData) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal structured data: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *StructuredData) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case string:
		if v == "" {
			*d = nil
			return nil
		}
		return json.Unmarshal([]byte(v), d)
	case []byte:
		if len(v) == 0 {
			*d = nil
			return nil
		}
		return json.Unmarshal(v, d)
	}
	return fmt.Errorf("scan structured data: unsupported type %T", src)
}

// Lookup resolves a dotted path ("pharmacology.mechanismOfAction") into the
// tree. It returns the value and whether a non-empty value was found.
// Absence is a normal input shape, not an error.
func (d StructuredData) Lookup(path string) (any, bool) {
	if path == "" || d == nil {
		return nil, false
	}

	var current any = map[string]any(d)
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			// StructuredData nested one level down.
			if sd, isSD := current.(StructuredData); isSD {
				node = map[string]any(sd)
			} else {
				return nil, false
			}
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}

	if isEmptyValue(current) {
		return nil, false
	}
	return current, true
}

func isEmptyValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(value) == ""
	case []any:
		return len(value) == 0
	case map[string]any:
		return len(value) == 0
	}
	return false
}

// KnowledgeRecord is an authored unit of knowledge. Once forged, it is
// immutable: card generation is a one-time derivation per record.
type KnowledgeRecord struct {
	ID                string         `db:"id" yaml:"id"`
	Archetype         Archetype      `db:"archetype" yaml:"archetype"`
	Title             string         `db:"title" yaml:"title"`
	TopicID           string         `db:"topic_id" yaml:"topic_id"`
	StructuredData    StructuredData `db:"structured_data" yaml:"structured_data"`
	GoldenTicketValue string         `db:"golden_ticket_value" yaml:"golden_ticket_value"`
	ImagePath         string         `db:"image_path" yaml:"image_path,omitempty"`
	AudioPath         string         `db:"audio_path" yaml:"audio_path,omitempty"`
	ForgedAt          *time.Time     `db:"forged_at" yaml:"-"`
	CreatedAt         time.Time      `db:"created_at" yaml:"-"`
	UpdatedAt         time.Time      `db:"updated_at" yaml:"-"`
}
