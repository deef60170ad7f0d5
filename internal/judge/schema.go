package judge

import (
	_ "embed"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed score_schema.json
var scoreSchemaJSON string

var scoreSchema = mustCompile(scoreSchemaJSON)

func mustCompile(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("score_schema.json", strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("score_schema.json")
}
