package service

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// DocumentPatch is a partial document update. Only allow-listed keys are
// decoded; every submitted key is remembered so callers restricted to
// status changes can be detected.
type DocumentPatch struct {
	Status        *string
	BP            *decimal.NullDecimal
	MaterialCode  *string
	MaterialGrade *string
	MaterialType  *string
	// TargetUserID set to "" clears the target.
	TargetUserID *string

	keys []string
}

// ParseDocumentPatch decodes a JSON object body. Unknown keys are ignored.
func ParseDocumentPatch(body map[string]json.RawMessage) (DocumentPatch, error) {
	var p DocumentPatch
	for key, raw := range body {
		p.keys = append(p.keys, key)

		var err error
		switch key {
		case "status":
			p.Status, err = decodeString(raw)
		case "bp":
			p.BP, err = decodeDecimal(raw)
		case "material_code":
			p.MaterialCode, err = decodeString(raw)
		case "material_grade":
			p.MaterialGrade, err = decodeString(raw)
		case "material_type":
			p.MaterialType, err = decodeString(raw)
		case "target_user_id":
			p.TargetUserID, err = decodeString(raw)
		}
		if err != nil {
			return DocumentPatch{}, validation("invalid value for %s", key)
		}
	}
	sort.Strings(p.keys)
	return p, nil
}

// StatusOnly reports whether the patch carries a status and nothing else.
func (p DocumentPatch) StatusOnly() bool {
	return p.Status != nil && len(p.keys) == 1
}

// NewStatusPatch builds a patch that only changes status.
func NewStatusPatch(status string) DocumentPatch {
	return DocumentPatch{Status: &status, keys: []string{"status"}}
}

func decodeString(raw json.RawMessage) (*string, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == nil {
		empty := ""
		return &empty, nil
	}
	return s, nil
}

func decodeDecimal(raw json.RawMessage) (*decimal.NullDecimal, error) {
	var d decimal.NullDecimal
	if string(raw) == `""` {
		return &d, nil
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
