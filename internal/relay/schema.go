package relay

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"ai-privacy-relay/internal/anonymizer"
)

//go:embed package.schema.json
var packageSchemaJSON []byte

var packageSchema = mustCompileSchema(packageSchemaJSON)

func mustCompileSchema(raw []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("relay: embedded package schema: %v", err))
	}
	return s
}

// ValidatePackageJSON checks raw JSON against the DataPackage schema.
// Any failure, malformed JSON included, wraps ErrInvalidPackage.
func ValidatePackageJSON(data []byte) error {
	result, err := packageSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidPackage, strings.Join(errs, "; "))
	}
	return nil
}

// DecodePackage parses raw JSON into a DataPackage, validating it first when
// validate is set.
func DecodePackage(data []byte, validate bool) (*anonymizer.DataPackage, error) {
	if validate {
		if err := ValidatePackageJSON(data); err != nil {
			return nil, err
		}
	}
	var p anonymizer.DataPackage
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	return &p, nil
}
