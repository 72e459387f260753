package constants

// ExtractionMethod records which pass produced an invoice record.
type ExtractionMethod string

const (
	MethodRuleBased     ExtractionMethod = "rule_based"
	MethodBedrockAI     ExtractionMethod = "bedrock_ai"
	MethodBedrockFailed ExtractionMethod = "bedrock_failed"
	MethodHybrid        ExtractionMethod = "hybrid_ai_rules"
	MethodFallback      ExtractionMethod = "fallback"
)

// Confidence is the coarse quality grade attached to a merged record.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

const (
	// MinUsableTextLength is the floor below which OCR output is treated as
	// an unreadable document.
	MinUsableTextLength = 10

	// MinTextLengthForAI and MinOCRConfidenceForAI gate the AI pass: short or
	// low-confidence OCR output is not worth a model invocation.
	MinTextLengthForAI    = 50
	MinOCRConfidenceForAI = 70.0

	// PromptTextLimit caps the raw text sent to the model.
	PromptTextLimit = 3000

	// MaxLineItems and MaxDescriptionLength bound the extracted line items.
	MaxLineItems         = 5
	MaxDescriptionLength = 100
)
