package httpapi

import (
	"encoding/json"
	"strings"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
)

// Request bodies are validated against JSON schemas before decoding, so
// handlers only ever see structurally sound input.

const createDomainSchema = `{
	"type": "object",
	"required": ["name"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1, "maxLength": 255},
		"parent_id": {"type": "integer", "minimum": 0}
	}
}`

const createAccountSchema = `{
	"type": "object",
	"required": ["name", "domain_id"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1, "maxLength": 255},
		"domain_id": {"type": "integer", "minimum": 1}
	}
}`

const createUserSchema = `{
	"type": "object",
	"required": ["name", "account_id"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1, "maxLength": 255},
		"account_id": {"type": "integer", "minimum": 1}
	}
}`

const renameSchema = `{
	"type": "object",
	"required": ["name"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1, "maxLength": 255}
	}
}`

const recordEventSchema = `{
	"type": "object",
	"required": ["type"],
	"additionalProperties": false,
	"properties": {
		"type": {"type": "string", "minLength": 1, "maxLength": 255},
		"description": {"type": "string", "maxLength": 4096},
		"level": {"type": "string", "enum": ["", "INFO", "WARN", "ERROR"]},
		"start_id": {"type": "integer", "minimum": 0},
		"entity_type": {"type": "string", "maxLength": 255},
		"entity_uuid": {"type": "string", "maxLength": 255}
	}
}`

type requestSchemas struct {
	createDomain  *santhosh.Schema
	createAccount *santhosh.Schema
	createUser    *santhosh.Schema
	rename        *santhosh.Schema
	recordEvent   *santhosh.Schema
}

func compileRequestSchemas() *requestSchemas {
	return &requestSchemas{
		createDomain:  mustCompile("create_domain.json", createDomainSchema),
		createAccount: mustCompile("create_account.json", createAccountSchema),
		createUser:    mustCompile("create_user.json", createUserSchema),
		rename:        mustCompile("rename.json", renameSchema),
		recordEvent:   mustCompile("record_event.json", recordEventSchema),
	}
}

func mustCompile(name, doc string) *santhosh.Schema {
	compiler := santhosh.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(doc)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// validateBody checks raw against schema, then decodes it into out.
func validateBody(schema *santhosh.Schema, raw []byte, out any) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
