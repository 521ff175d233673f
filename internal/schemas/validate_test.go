package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["user_id"],
	"properties": {
		"user_id": {"type": "string", "minLength": 1},
		"skills": {"type": "array", "items": {"type": "string"}}
	}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateJSON_ValidJSON(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", profileSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"user_id": "u1", "skills": ["Go"]}`)

	assert.NoError(t, ValidateJSON(schemaPath, jsonPath))
}

func TestValidateJSON_MissingField(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", profileSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"skills": ["Go"]}`)

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.NotEmpty(t, validationErr.Errors)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateJSON_WrongType(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", profileSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"user_id": "u1", "skills": "Go"}`)

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Equal(t, "skills", validationErr.Errors[0].Field)
}

func TestValidateJSON_NonExistentFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", profileSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"user_id": "u1"}`)

	err := ValidateJSON(filepath.Join(dir, "missing.json"), jsonPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = ValidateJSON(schemaPath, filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSON_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", `{"type": 12}`)
	jsonPath := writeFile(t, dir, "doc.json", `{}`)

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateBytes(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", profileSchema)

	assert.NoError(t, ValidateBytes(schemaPath, []byte(`{"user_id": "u1"}`)))

	err := ValidateBytes(schemaPath, []byte(`{"user_id": ""}`))
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestValidateJSONString(t *testing.T) {
	assert.NoError(t, ValidateJSONString(profileSchema, `{"user_id": "u1"}`))
	assert.Error(t, ValidateJSONString(profileSchema, `{"user_id": 7}`))
}

func TestResolveSchemaPath(t *testing.T) {
	// Tests run from internal/schemas, two levels below the repo root
	path := ResolveSchemaPath(ContextWindowSchema)
	require.NotEmpty(t, path)
	assert.True(t, filepath.IsAbs(path))

	assert.Empty(t, ResolveSchemaPath("schemas/does_not_exist.schema.json"))
}

func TestSchemaLoadError(t *testing.T) {
	err := &SchemaLoadError{Path: "x.json", Message: "bad"}
	assert.Equal(t, "failed to load schema x.json: bad", err.Error())
	assert.Nil(t, err.Unwrap())
}
