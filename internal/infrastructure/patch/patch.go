package patch

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
)

// MergeDelta devolve o merge patch (RFC 7386) que leva before a after.
// Um objeto vazio significa que nada mudou.
func MergeDelta(before, after any) (json.RawMessage, error) {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return nil, fmt.Errorf("falha ao serializar estado anterior: %w", err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return nil, fmt.Errorf("falha ao serializar estado novo: %w", err)
	}
	delta, err := jsonpatch.CreateMergePatch(beforeJSON, afterJSON)
	if err != nil {
		return nil, fmt.Errorf("falha ao calcular delta: %w", err)
	}
	return delta, nil
}

// IsEmpty indica se o merge patch não traz alteração.
func IsEmpty(delta json.RawMessage) bool {
	return len(delta) <= 2
}

// ApplyJSONPatch aplica um patch RFC 6902 a doc e decodifica o resultado
// em out.
func ApplyJSONPatch(doc any, patchData []byte, out any) error {
	originalJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("falha ao serializar documento: %w", err)
	}

	p, err := jsonpatch.DecodePatch(patchData)
	if err != nil {
		return fmt.Errorf("%w: falha ao decodificar patch: %v", domain.ErrInvalidPatch, err)
	}

	modifiedJSON, err := p.Apply(originalJSON)
	if err != nil {
		return fmt.Errorf("%w: falha ao aplicar patch: %v", domain.ErrInvalidPatch, err)
	}

	if err := json.Unmarshal(modifiedJSON, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPatch, err)
	}
	return nil
}
