/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"reflect"

	"chainguard.dev/spantree/agents/agenttrace"
	"github.com/invopop/jsonschema"
)

var timestampType = reflect.TypeOf(agenttrace.Timestamp{})

// PayloadSchema returns the JSON schema of the document NewHTTP posts.
// Components nest recursively, so they are emitted as a definition.
func PayloadSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == timestampType {
				return &jsonschema.Schema{Type: "string", Format: "date-time"}
			}
			return nil
		},
	}
	return r.Reflect(&agenttrace.Payload{})
}
