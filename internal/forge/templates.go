package forge

// Card type tags emitted by the generator.
const (
	CardTypeGoldenTicket     = "golden_ticket"
	CardTypeImageOcclusion   = "image_occlusion"
	CardTypeAudioRecognition = "audio_recognition"
)

// CardTemplate is a pure data record describing one derivable card. Templates
// are interpreted by a single generic function, not per-archetype branching.
type CardTemplate struct {
	// CardType tags cards emitted by this template.
	CardType string
	// FrontPattern is the front text with {title} and {urgency} placeholders.
	FrontPattern string
	// BackField is the dotted structured-data path for the back text.
	BackField string
	// ConditionalField, when set, must resolve to a non-empty value for this
	// template to apply.
	ConditionalField string
	// GoldenTicket marks the single mandatory card per record. Its back falls
	// back to the record's golden-ticket value when BackField is empty.
	GoldenTicket bool
}

// goldenTicketFields maps each archetype to the structured-data field that
// answers the archetype's defining question.
var goldenTicketFields = map[Archetype]string{
	ArchetypeIllnessScript:  "keyFeatures",
	ArchetypeDrug:           "mechanismOfAction",
	ArchetypePathogen:       "keyCharacteristics",
	ArchetypePresentation:   "differentials",
	ArchetypeImagingFinding: "finding",
	ArchetypeDiagnostic:     "interpretation",
	ArchetypeProcedure:      "indications",
	ArchetypeAnatomy:        "structure",
	ArchetypeAlgorithm:      "steps",
	ArchetypeGenericConcept: "definition",
}

// GoldenTicketField returns the archetype's golden-ticket field path.
func GoldenTicketField(a Archetype) string {
	return goldenTicketFields[a]
}

// archetypeTemplates is the fixed, ordered template list per archetype,
// in ascending priority order. The golden ticket always comes first.
var archetypeTemplates = map[Archetype][]CardTemplate{
	ArchetypeIllnessScript: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "What are the key features of {title}?", BackField: "keyFeatures", GoldenTicket: true},
		{CardType: "pathophysiology", FrontPattern: "What is the pathophysiology of {title}?", BackField: "pathophysiology", ConditionalField: "pathophysiology"},
		{CardType: "workup", FrontPattern: "What is the workup for suspected {title}?", BackField: "workup", ConditionalField: "workup"},
		{CardType: "management", FrontPattern: "How is {title} managed ({urgency})?", BackField: "management", ConditionalField: "management"},
	},
	ArchetypeDrug: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "What is the mechanism of action of {title}?", BackField: "mechanismOfAction", GoldenTicket: true},
		{CardType: "indications", FrontPattern: "What are the indications for {title}?", BackField: "indications", ConditionalField: "indications"},
		{CardType: "adverse_effects", FrontPattern: "What are the major adverse effects of {title}?", BackField: "adverseEffects", ConditionalField: "adverseEffects"},
		{CardType: "black_box", FrontPattern: "What is the black box warning for {title}?", BackField: "blackBoxWarning", ConditionalField: "blackBoxWarning"},
		{CardType: "contraindications", FrontPattern: "When is {title} contraindicated?", BackField: "contraindications", ConditionalField: "contraindications"},
	},
	ArchetypePathogen: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "What are the key characteristics of {title}?", BackField: "keyCharacteristics", GoldenTicket: true},
		{CardType: "transmission", FrontPattern: "How is {title} transmitted?", BackField: "transmission", ConditionalField: "transmission"},
		{CardType: "diseases", FrontPattern: "What diseases does {title} cause?", BackField: "diseases", ConditionalField: "diseases"},
		{CardType: "treatment", FrontPattern: "What is the treatment for {title} infection?", BackField: "treatment", ConditionalField: "treatment"},
	},
	ArchetypePresentation: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "What is the differential diagnosis for {title} ({urgency})?", BackField: "differentials", GoldenTicket: true},
		{CardType: "red_flags", FrontPattern: "What are the red flags in a patient with {title}?", BackField: "redFlags", ConditionalField: "redFlags"},
		{CardType: "initial_workup", FrontPattern: "What is the initial workup for {title}?", BackField: "initialWorkup", ConditionalField: "initialWorkup"},
	},
	ArchetypeImagingFinding: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "What is the characteristic imaging finding of {title}?", BackField: "finding", GoldenTicket: true},
		{CardType: "differentials", FrontPattern: "What is the differential for {title} on imaging?", BackField: "differentials", ConditionalField: "differentials"},
		{CardType: "next_step", FrontPattern: "What is the next step after identifying {title}?", BackField: "nextStep", ConditionalField: "nextStep"},
	},
	ArchetypeDiagnostic: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "How is {title} interpreted?", BackField: "interpretation", GoldenTicket: true},
		{CardType: "indications", FrontPattern: "When is {title} indicated?", BackField: "indications", ConditionalField: "indications"},
		{CardType: "limitations", FrontPattern: "What are the limitations of {title}?", BackField: "limitations", ConditionalField: "limitations"},
	},
	ArchetypeProcedure: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "What are the indications for {title}?", BackField: "indications", GoldenTicket: true},
		{CardType: "contraindications", FrontPattern: "When is {title} contraindicated?", BackField: "contraindications", ConditionalField: "contraindications"},
		{CardType: "complications", FrontPattern: "What are the complications of {title}?", BackField: "complications", ConditionalField: "complications"},
	},
	ArchetypeAnatomy: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "Describe the structure of {title}.", BackField: "structure", GoldenTicket: true},
		{CardType: "relations", FrontPattern: "What are the anatomical relations of {title}?", BackField: "relations", ConditionalField: "relations"},
		{CardType: "blood_supply", FrontPattern: "What is the blood supply of {title}?", BackField: "bloodSupply", ConditionalField: "bloodSupply"},
		{CardType: "innervation", FrontPattern: "What is the innervation of {title}?", BackField: "innervation", ConditionalField: "innervation"},
	},
	ArchetypeAlgorithm: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "What are the steps of the {title} algorithm ({urgency})?", BackField: "steps", GoldenTicket: true},
		{CardType: "branch_points", FrontPattern: "What are the decision points in the {title} algorithm?", BackField: "branchPoints", ConditionalField: "branchPoints"},
	},
	ArchetypeGenericConcept: {
		{CardType: CardTypeGoldenTicket, FrontPattern: "Define: {title}", BackField: "definition", GoldenTicket: true},
		{CardType: "details", FrontPattern: "What are the important details of {title}?", BackField: "details", ConditionalField: "details"},
		{CardType: "examples", FrontPattern: "Give examples of {title}.", BackField: "examples", ConditionalField: "examples"},
	},
}

// TemplatesFor returns the archetype's ordered template list, or nil when the
// archetype has none.
func TemplatesFor(a Archetype) []CardTemplate {
	return archetypeTemplates[a]
}
