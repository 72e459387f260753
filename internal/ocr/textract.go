package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/invoiceworks/invoice-pipeline/internal/entity"
)

// TextractAPI is the slice of the Textract client the extractor needs.
type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// Extractor turns a document stored in S3 into an ExtractedDocument via
// Textract forms+tables analysis.
type Extractor struct {
	api    TextractAPI
	logger *slog.Logger
}

func NewExtractor(api TextractAPI, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{api: api, logger: logger}
}

// AnalyzeInvoice runs synchronous document analysis on s3://bucket/key and
// assembles raw text, form key-value pairs, and confidence scores. Errors are
// returned raw; the caller's resilience wrapper classifies them.
func (e *Extractor) AnalyzeInvoice(ctx context.Context, bucket, key string) (*entity.ExtractedDocument, error) {
	start := time.Now()

	out, err := e.api.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
		FeatureTypes: []types.FeatureType{types.FeatureTypeTables, types.FeatureTypeForms},
	})
	if err != nil {
		e.logger.Error("ocr.analyze.failed", "bucket", bucket, "key", key, "error", err)
		return nil, fmt.Errorf("analyze document: %w", err)
	}

	doc := assembleDocument(out.Blocks)
	e.logger.Info("ocr.analyze.ok",
		"bucket", bucket, "key", key,
		"text_bytes", len(doc.RawText),
		"kv_pairs", len(doc.KeyValuePairs),
		"overall_confidence", doc.OverallConfidence(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// assembleDocument flattens Textract blocks into the document shape the
// extraction engine consumes: LINE blocks joined as raw text, KEY_VALUE_SET
// blocks resolved into a key-value map, and an overall confidence score
// averaged over the lines.
func assembleDocument(blocks []types.Block) *entity.ExtractedDocument {
	byID := make(map[string]types.Block, len(blocks))
	var keyBlocks []types.Block
	valueBlocks := make(map[string]types.Block)

	var textLines []string
	var confidenceSum float64
	var confidenceCount int

	for _, block := range blocks {
		if block.Id != nil {
			byID[*block.Id] = block
		}
		switch block.BlockType {
		case types.BlockTypeLine:
			if block.Text != nil {
				textLines = append(textLines, *block.Text)
			}
			if block.Confidence != nil {
				confidenceSum += float64(*block.Confidence)
				confidenceCount++
			}
		case types.BlockTypeKeyValueSet:
			if containsEntityType(block.EntityTypes, types.EntityTypeKey) {
				keyBlocks = append(keyBlocks, block)
			} else if block.Id != nil {
				valueBlocks[*block.Id] = block
			}
		}
	}

	kvp := make(map[string]string)
	scores := make(map[string]float64)
	for _, keyBlock := range keyBlocks {
		key := blockText(keyBlock, byID)
		if key == "" {
			continue
		}
		value := ""
		if vb, ok := findValueBlock(keyBlock, valueBlocks); ok {
			value = blockText(vb, byID)
		}
		kvp[key] = value
		if keyBlock.Confidence != nil {
			scores[key] = float64(*keyBlock.Confidence)
		}
	}

	if confidenceCount > 0 {
		scores["overall"] = confidenceSum / float64(confidenceCount)
	}

	return &entity.ExtractedDocument{
		RawText:          strings.Join(textLines, "\n"),
		KeyValuePairs:    kvp,
		ConfidenceScores: scores,
	}
}

func containsEntityType(entityTypes []types.EntityType, want types.EntityType) bool {
	for _, et := range entityTypes {
		if et == want {
			return true
		}
	}
	return false
}

func findValueBlock(keyBlock types.Block, valueBlocks map[string]types.Block) (types.Block, bool) {
	for _, rel := range keyBlock.Relationships {
		if rel.Type != types.RelationshipTypeValue {
			continue
		}
		for _, id := range rel.Ids {
			if vb, ok := valueBlocks[id]; ok {
				return vb, true
			}
		}
	}
	return types.Block{}, false
}

// blockText collects the WORD children of a block into a single string.
func blockText(block types.Block, byID map[string]types.Block) string {
	var words []string
	for _, rel := range block.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			child, ok := byID[id]
			if !ok || child.BlockType != types.BlockTypeWord || child.Text == nil {
				continue
			}
			words = append(words, *child.Text)
		}
	}
	return strings.Join(words, " ")
}
